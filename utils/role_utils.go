package utils

import (
	"strings"
)

const (
	RoleAdmin    = "admin"
	RoleMerchant = "merchant"
	RoleStaff    = "staff"
)

var ValidUserRoles = map[string]bool{
	RoleAdmin:    true,
	RoleMerchant: true,
	RoleStaff:    true,
}

// ForecastReaderRoles may read their merchant's forecasts. Staff read on
// behalf of the merchant named in their token.
var ForecastReaderRoles = []string{RoleMerchant, RoleStaff}

// ValidateAndNormalizeRole validates and normalizes a role string.
// Returns the normalized role (lowercase) and a boolean indicating if it's valid.
func ValidateAndNormalizeRole(role string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(role))
	return normalized, ValidUserRoles[normalized]
}
