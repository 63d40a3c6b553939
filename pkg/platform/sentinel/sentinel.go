package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so the referral service can translate them into domain errors.
//
//   - ErrUnavailable: the store cannot be reached
//   - ErrClosed: the resource was already released at shutdown
//
// For validation errors (missing fields), use pkg/domain-errors directly.
var (
	ErrUnavailable = errors.New("unavailable")
	ErrClosed      = errors.New("closed")
)
