package sampler

import "codeberg.org/mutker/obdctl/internal/errors"

const (
	// Construction errors
	ErrNilSession      = errors.ErrorCode("sampler_nil_session")
	ErrNoParameters    = errors.ErrorCode("sampler_no_parameters")
	ErrInvalidInterval = errors.ErrorCode("sampler_invalid_interval")

	// Run errors
	ErrAlreadyRunning = errors.ErrorCode("sampler_already_running")
	ErrDisconnected   = errors.ErrorCode("sampler_disconnected")
)

// IsDisconnected reports whether a run ended early because the session lost
// its connection. The returned buffer still holds every completed tick.
func IsDisconnected(err error) bool {
	return errors.HasCode(err, ErrDisconnected)
}
