package apperr

import "net/http"

// Code is a machine-readable error code returned to API callers.
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	// Validation
	CodeValidation       Code = "VALIDATION_FAILED"
	CodeMissingToken     Code = "MISSING_TOKEN"
	CodePasswordTooShort Code = "PASSWORD_TOO_SHORT"
	CodePasswordTooLong  Code = "PASSWORD_TOO_LONG"
	CodeCodeInvalid      Code = "CODE_INVALID"

	// Authorization
	CodeUnauthorized     Code = "UNAUTHORIZED"
	CodeForbidden        Code = "FORBIDDEN"
	CodeCannotDeleteSelf Code = "CANNOT_DELETE_SELF"

	// Not found
	CodeNotFound         Code = "NOT_FOUND"
	CodeTenantNotFound   Code = "TENANT_NOT_FOUND"
	CodeUserNotFound     Code = "USER_NOT_FOUND"
	CodeModuleNotFound   Code = "MODULE_NOT_FOUND"
	CodeIndustryNotFound Code = "INDUSTRY_NOT_FOUND"
	CodeInvalidToken     Code = "INVALID_TOKEN"

	// Conflicts
	CodeConflict Code = "CONFLICT"

	// Licensing state
	CodeNoLicensedModules          Code = "NO_LICENSED_MODULES"
	CodeNoEndDefined               Code = "NO_END_DEFINED"
	CodeTenantHasNoLicensedModules Code = "TENANT_HAS_NO_LICENSED_MODULES"
	CodeNoActiveMembership         Code = "NO_ACTIVE_MEMBERSHIP"

	// Invite state
	CodeInviteAlreadyUsed  Code = "INVITE_ALREADY_USED"
	CodeInviteExpired      Code = "INVITE_EXPIRED"
	CodePasswordAlreadySet Code = "PASSWORD_ALREADY_SET"
)

// HTTPStatus maps a code to the status handlers respond with
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation, CodeMissingToken, CodePasswordTooShort, CodePasswordTooLong, CodeCodeInvalid, CodeCannotDeleteSelf:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound, CodeTenantNotFound, CodeUserNotFound, CodeModuleNotFound,
		CodeIndustryNotFound, CodeInvalidToken, CodeNoActiveMembership:
		return http.StatusNotFound
	case CodeConflict, CodeInviteAlreadyUsed, CodePasswordAlreadySet:
		return http.StatusConflict
	case CodeInviteExpired:
		return http.StatusGone
	case CodeNoLicensedModules, CodeNoEndDefined, CodeTenantHasNoLicensedModules:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
