package shop

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// totalEpsilon bounds the accepted drift between the client-claimed total and
// the total recomputed from stored prices. Anything larger means the client
// checked out against stale prices.
const totalEpsilon = 0.01

// TotalMatches reports whether a claimed checkout total agrees with the
// recomputed one within the fixed epsilon.
func TotalMatches(claimed, computed float64) bool {
	return math.Abs(claimed-computed) <= totalEpsilon
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report struct fields under their json names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateStruct runs tag-based validation and converts findings into the
// field-level shape the API promises.
func validateStruct(v any) *Error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return E(KindBadRequest, "invalid input: %v", err)
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return Invalid(fields...)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be %s or more", fe.Param())
	case "uuid4", "uuid":
		return "must be a valid id"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// validateItems checks the structural shape of a proposed cart. Stock and
// price checks happen later, inside the order transaction.
func validateItems(items []ItemInput) *Error {
	if len(items) == 0 {
		return Invalid(FieldError{Field: "items", Message: "must contain at least one item"})
	}
	var fields []FieldError
	for i, it := range items {
		if _, err := uuid.Parse(it.ProductID); err != nil {
			fields = append(fields, FieldError{
				Field:   fmt.Sprintf("items[%d].product_id", i),
				Message: "must be a valid id",
			})
		}
		if it.Qty <= 0 {
			fields = append(fields, FieldError{
				Field:   fmt.Sprintf("items[%d].qty", i),
				Message: "must be positive",
			})
		}
	}
	if len(fields) > 0 {
		return Invalid(fields...)
	}
	return nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
