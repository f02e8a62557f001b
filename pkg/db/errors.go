package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique violation. When constraintName is
// provided the postgres constraint must match it; sqlite only reports the offending
// columns, so alternates such as "orders.order_number" are matched against the message.
func IsUniqueViolation(err error, constraintName string, alternates ...string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return false
		}
		return constraintName == "" || pgErr.ConstraintName == constraintName
	}

	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		if constraintName == "" {
			return true
		}
		for _, alt := range alternates {
			if strings.Contains(msg, alt) {
				return true
			}
		}
		return strings.Contains(msg, constraintName)
	}

	if constraintName != "" {
		return strings.Contains(msg, "duplicate key value") && strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value")
}
