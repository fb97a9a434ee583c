package db

import "strings"

// IsUniqueViolation reports whether err looks like a Postgres unique
// violation. With a constraintName it matches that specific constraint, which
// lets callers distinguish the single-active-cart index from other uniques.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
