package services

import "errors"

var (
	// ErrMissingPublicKey indicates a config request without a public key.
	ErrMissingPublicKey = errors.New("public key is required")
	// ErrUnknownPublicKey indicates no enabled tenant owns the public key.
	ErrUnknownPublicKey = errors.New("invalid public key")
	// ErrDomainNotAllowed indicates the requesting page is not on the tenant allow list.
	ErrDomainNotAllowed = errors.New("domain not allowed")
	// ErrRateLimited indicates the (public key, client ip) window is exhausted.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrMissingFields indicates a purchase report without required fields or a positive order value.
	ErrMissingFields = errors.New("missing required fields")
	// ErrSignatureRequired indicates an unsigned purchase report outside relaxed mode.
	ErrSignatureRequired = errors.New("signature required in production")
	// ErrInvalidSignature indicates a purchase signature mismatch.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrPurchaseInFlight indicates another request is crediting the same order.
	ErrPurchaseInFlight = errors.New("purchase is already being processed")
	// ErrCreditPending indicates no ledger sink accepted the credit and it was queued.
	ErrCreditPending = errors.New("failed to credit wallet")
)

// ErrorKind classifies service failures for transport-specific mapping.
type ErrorKind string

const (
	// ErrorUnknown is used when error is nil or not classified.
	ErrorUnknown ErrorKind = "unknown"
	// ErrorValidation indicates missing or malformed input.
	ErrorValidation ErrorKind = "validation"
	// ErrorUnauthenticated indicates a missing or wrong signature.
	ErrorUnauthenticated ErrorKind = "unauthenticated"
	// ErrorForbidden indicates a disallowed requesting domain.
	ErrorForbidden ErrorKind = "forbidden"
	// ErrorNotFound indicates an unknown public key.
	ErrorNotFound ErrorKind = "not_found"
	// ErrorRateLimited indicates a rate limit rejection.
	ErrorRateLimited ErrorKind = "rate_limited"
	// ErrorConflict indicates a concurrent duplicate purchase report.
	ErrorConflict ErrorKind = "conflict"
	// ErrorUpstream indicates every ledger sink failed.
	ErrorUpstream ErrorKind = "upstream"
)

// ClassifyError classifies a returned service error.
func ClassifyError(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorUnknown
	case errors.Is(err, ErrMissingPublicKey), errors.Is(err, ErrMissingFields):
		return ErrorValidation
	case errors.Is(err, ErrSignatureRequired), errors.Is(err, ErrInvalidSignature):
		return ErrorUnauthenticated
	case errors.Is(err, ErrDomainNotAllowed):
		return ErrorForbidden
	case errors.Is(err, ErrUnknownPublicKey):
		return ErrorNotFound
	case errors.Is(err, ErrRateLimited):
		return ErrorRateLimited
	case errors.Is(err, ErrPurchaseInFlight):
		return ErrorConflict
	case errors.Is(err, ErrCreditPending):
		return ErrorUpstream
	default:
		return ErrorUnknown
	}
}
