package admin

import (
	"regexp"
	"strings"
)

// TenantCodeMaxLen is the longest tenant code
const TenantCodeMaxLen = 24

var (
	nonCodeChars = regexp.MustCompile(`[^A-Z0-9]+`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// TenantCode turns free text into an uppercase tenant code: runs of
// characters outside A-Z0-9 become one underscore, edges are trimmed.
func TenantCode(s string) string {
	code := nonCodeChars.ReplaceAllString(strings.ToUpper(strings.TrimSpace(s)), "_")
	code = strings.Trim(code, "_")
	if len(code) > TenantCodeMaxLen {
		code = code[:TenantCodeMaxLen]
	}
	return code
}

// routeSlug lowercases and hyphenates whitespace
func routeSlug(s string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
}

// RoutePath derives a module's navigation route from its codes
func RoutePath(industryCode, moduleCode string) string {
	return "/" + routeSlug(industryCode) + "/" + routeSlug(moduleCode)
}
