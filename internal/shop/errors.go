package shop

import (
	"errors"
	"fmt"
)

// Kind is the machine-readable error category surfaced to API clients.
type Kind string

const (
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindBadRequest         Kind = "BAD_REQUEST"
	KindProductNotFound    Kind = "PRODUCT_NOT_FOUND"
	KindNotEnoughStock     Kind = "NOT_ENOUGH_STOCK"
	KindTotalPriceMismatch Kind = "TOTAL_PRICE_DOES_NOT_MATCH"
	KindNotFound           Kind = "NOT_FOUND"
	KindOrderNotFound      Kind = "ORDER_NOT_FOUND"
	KindInvalidReference   Kind = "INVALID_DATA_REFERENCE"
	KindValueTooLong       Kind = "INPUT_VALUE_TOO_LONG"
	KindStorageUnavailable Kind = "DATABASE_TEMPORARILY_UNAVAILABLE"
	KindStorageFailed      Kind = "DATABASE_OPERATION_FAILED"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error carries a kind plus a human-readable message; validation failures
// additionally carry field-level detail.
type Error struct {
	Kind    Kind         `json:"kind"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func E(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Invalid builds a BAD_REQUEST error from field-level findings.
func Invalid(fields ...FieldError) *Error {
	return &Error{Kind: KindBadRequest, Message: "validation failed", Fields: fields}
}

// KindOf extracts the kind from err, or KindStorageFailed when err is not a
// *Error. Callers that already normalised storage errors never hit the
// fallback.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorageFailed
}

func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
