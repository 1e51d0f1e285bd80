package db

import "strings"

// IsUniqueViolation reports whether err references a Postgres unique
// violation. When constraintName is provided the helper looks for that
// constraint's name in the error text, which also matches the sqlite
// wording used by the test fixtures.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" && strings.Contains(msg, constraintName) {
		return true
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
