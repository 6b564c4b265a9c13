package shop

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

// storageErr normalises driver-level failures into the fixed error taxonomy.
// Unrecognised codes are logged with full detail and surfaced generically so
// internals never leak to callers.
func storageErr(log *logrus.Logger, op string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return E(KindStorageUnavailable, "database temporarily unavailable")
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23503":
			return E(KindInvalidReference, "referenced record does not exist")
		case pgErr.Code == "22001":
			return E(KindValueTooLong, "input value too long")
		case pgErr.Code == "23514" && pgErr.ConstraintName == "products_stock_check":
			// concurrent decrement raced past the in-transaction check
			return E(KindNotEnoughStock, "not enough stock")
		case pgErr.Code == "40001", pgErr.Code == "40P01", pgErr.Code == "57P03":
			return E(KindStorageUnavailable, "database temporarily unavailable")
		case strings.HasPrefix(pgErr.Code, "08"):
			return E(KindStorageUnavailable, "database temporarily unavailable")
		}
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return E(KindStorageUnavailable, "database temporarily unavailable")
	}
	if log != nil {
		log.WithError(err).WithField("op", op).Error("unhandled storage error")
	}
	return E(KindStorageFailed, "storage operation failed")
}
