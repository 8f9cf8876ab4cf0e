package utils

import "database/sql"

// NullStringToStringPtr converts a sql.NullString to a *string.
func NullStringToStringPtr(ns sql.NullString) *string {
	if ns.Valid {
		return &ns.String
	}
	return nil
}

// PointerToString renders an optional string for log lines.
func PointerToString(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}
