package config

import "codeberg.org/mutker/obdctl/internal/errors"

const (
	ErrInvalidInterval = errors.ErrorCode("config_invalid_interval")
	ErrInvalidDuration = errors.ErrorCode("config_invalid_duration")
	ErrNoParameters    = errors.ErrorCode("config_no_parameters")
	ErrNoFormats       = errors.ErrorCode("config_no_formats")
	ErrUnknownFormat   = errors.ErrorCode("config_unknown_format")
	ErrMissingDatabase = errors.ErrorCode("config_missing_database")
)
