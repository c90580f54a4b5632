package monitor

import "codeberg.org/mutker/obdctl/internal/errors"

const (
	ErrServeFailed    = errors.ErrorCode("monitor_serve_failed")
	ErrShutdownFailed = errors.ErrorCode("monitor_shutdown_failed")
)
