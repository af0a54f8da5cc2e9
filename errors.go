package identity

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeInvalidCredentials = "INVALID_CREDENTIALS"
	textCodeRateLimited        = "RATE_LIMITED"
	textCodeProfileLookup      = "PROFILE_LOOKUP_FAILED"
	textCodeSessionExpired     = "SESSION_EXPIRED"
	textCodeTokenMalformed     = "TOKEN_MALFORMED"
	textCodeIdentityNotFound   = "IDENTITY_NOT_FOUND"
	textCodeImmutableClaim     = "IMMUTABLE_CLAIM_MUTATION"
)

// ErrInvalidCredentials is returned for an unknown email or a wrong
// password. The two cases are deliberately indistinguishable.
var ErrInvalidCredentials = goerrors.New("invalid email or password", goerrors.CategoryAuth).
	WithTextCode(textCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrRateLimited is returned once an account exceeds the failed sign-in
// budget inside the attempt window, regardless of credential correctness.
var ErrRateLimited = goerrors.New("too many sign-in attempts, try again later", goerrors.CategoryOperation).
	WithTextCode(textCodeRateLimited).
	WithCode(goerrors.CodeTooManyRequests)

// ErrProfileLookup is the boundary error for a failed or missing profile
// row. Callers recover by defaulting to least privilege, never by crashing.
var ErrProfileLookup = goerrors.New("unable to resolve profile", goerrors.CategoryInternal).
	WithTextCode(textCodeProfileLookup).
	WithCode(goerrors.CodeInternal)

// ErrSessionExpired is returned when a session's expiry timestamp passed
var ErrSessionExpired = goerrors.New("session expired", goerrors.CategoryAuth).
	WithTextCode(textCodeSessionExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed covers tokens we cannot parse or verify
var ErrTokenMalformed = goerrors.New("invalid session token", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrIdentityNotFound is the error for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithTextCode(textCodeIdentityNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrImmutableClaimMutation is returned when a claims decorator touches a
// registered or identity claim instead of the extension fields.
var ErrImmutableClaimMutation = goerrors.New("immutable claim mutated", goerrors.CategoryInternal).
	WithTextCode(textCodeImmutableClaim).
	WithCode(goerrors.CodeInternal)

// ErrPasswordResetDisabled is returned when the password reset feature is
// gated off for the current actor.
var ErrPasswordResetDisabled = goerrors.New("password reset is disabled", goerrors.CategoryAuthz).
	WithTextCode("PASSWORD_RESET_DISABLED").
	WithCode(goerrors.CodeForbidden)

// ErrAccountSuspended blocks suspended or archived accounts from signing in
var ErrAccountSuspended = goerrors.New("account is not allowed to sign in", goerrors.CategoryAuthz).
	WithTextCode("ACCOUNT_SUSPENDED").
	WithCode(goerrors.CodeForbidden)

func hasTextCode(err error, code string) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return rich.TextCode == code
}

// IsInvalidCredentials checks for credential mismatch errors
func IsInvalidCredentials(err error) bool {
	return hasTextCode(err, textCodeInvalidCredentials)
}

// IsRateLimited checks for attempt budget errors
func IsRateLimited(err error) bool {
	return hasTextCode(err, textCodeRateLimited)
}

// IsConflict checks for duplicate account and other conflict errors
func IsConflict(err error) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return rich.Category == goerrors.CategoryConflict
}

// IsSessionExpired checks for expired sessions, including the raw JWT
// library message for tokens rejected before we get to wrap them.
func IsSessionExpired(err error) bool {
	if err == nil {
		return false
	}
	if hasTextCode(err, textCodeSessionExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsTokenMalformed will check for error message
func IsTokenMalformed(err error) bool {
	if err == nil {
		return false
	}
	if hasTextCode(err, textCodeTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
