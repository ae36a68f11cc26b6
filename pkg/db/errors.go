package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation     = "23505"
	sqliteUniqueViolation = "UNIQUE constraint failed: "
)

// IsUniqueViolation reports whether err is a duplicate-key failure. When
// constraintName is set the constraint must match as well. SQLite names the
// offending columns ("table.column") instead of the index, so columns are
// matched there when given.
func IsUniqueViolation(err error, constraintName string, columns ...string) bool {
	if err == nil {
		return false
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) && pgxErr.Code == pgUniqueViolation {
		return constraintName == "" || pgxErr.ConstraintName == constraintName
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
		return constraintName == "" || pqErr.Constraint == constraintName
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := err.Error()
	if idx := strings.Index(msg, sqliteUniqueViolation); idx >= 0 {
		if constraintName == "" || strings.Contains(msg, constraintName) {
			return true
		}
		return sqliteColumnsFailed(msg[idx+len(sqliteUniqueViolation):], columns)
	}
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value")
}

func sqliteColumnsFailed(list string, columns []string) bool {
	if len(columns) == 0 {
		return false
	}
	failed := map[string]struct{}{}
	for _, col := range strings.Split(strings.TrimSpace(list), ",") {
		failed[strings.TrimSpace(col)] = struct{}{}
	}
	for _, col := range columns {
		if _, ok := failed[col]; !ok {
			return false
		}
	}
	return true
}

// IsNotFound reports whether err is gorm's record-not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
