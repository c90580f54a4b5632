package session

import "codeberg.org/mutker/obdctl/internal/errors"

const (
	// Connection lifecycle errors
	ErrOpenFailed   = errors.ErrorCode("session_open_failed")
	ErrDisconnected = errors.ErrorCode("session_disconnected")
	ErrCloseFailed  = errors.ErrorCode("session_close_failed")

	// Query errors
	ErrQueryFailed      = errors.ErrorCode("session_query_failed")
	ErrParseFailed      = errors.ErrorCode("session_parse_failed")
	ErrUnknownParameter = errors.ErrorCode("session_unknown_parameter")

	// Capability errors
	ErrFaultReadFailed  = errors.ErrorCode("session_fault_read_failed")
	ErrFaultClearFailed = errors.ErrorCode("session_fault_clear_failed")
)

// IsDisconnected reports whether an error marks a lost connection rather
// than a single failed query.
func IsDisconnected(err error) bool {
	return errors.HasCode(err, ErrDisconnected)
}
