package models

// Verification error taxonomy for story posts. Terminal codes are never
// retried automatically; retryable codes increment the attempt counter
// until the story TTL elapses.
const (
	VerificationErrNoTag           = "NO_TAG"
	VerificationErrLegacyPostNoTag = "LEGACY_POST_NO_TAG"
	VerificationErrNoIGAccount     = "NO_IG_ACCOUNT"
	VerificationErrTTLExpired      = "TTL_EXPIRED"
	VerificationErrNotFound        = "NOT_FOUND"
	VerificationErrTokenError      = "TOKEN_ERROR"
	VerificationErrPermission      = "PERMISSION_ERROR"
	VerificationErrRateLimited     = "RATE_LIMITED"
	VerificationErrAPIError        = "API_ERROR"
	VerificationErrAmbiguousMatch  = "AMBIGUOUS_MATCH"
	VerificationErrPostFailed      = "POST_FAILED"
)

var terminalVerificationErrors = map[string]struct{}{
	VerificationErrLegacyPostNoTag: {},
	VerificationErrNoIGAccount:     {},
	VerificationErrTTLExpired:      {},
	VerificationErrPostFailed:      {},
	VerificationErrAmbiguousMatch:  {},
}

func IsTerminalVerificationError(code string) bool {
	_, ok := terminalVerificationErrors[code]
	return ok
}

// RetryableVerificationErrors lists the codes a reconciliation sweep may
// attempt again before the TTL elapses.
func RetryableVerificationErrors() []string {
	return []string{
		VerificationErrNoTag,
		VerificationErrNotFound,
		VerificationErrTokenError,
		VerificationErrPermission,
		VerificationErrRateLimited,
		VerificationErrAPIError,
	}
}
