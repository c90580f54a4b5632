package export

import "codeberg.org/mutker/obdctl/internal/errors"

const (
	ErrCreateDir   = errors.ErrorCode("export_create_dir_failed")
	ErrWriteFailed = errors.ErrorCode("export_write_failed")
	ErrReadFailed  = errors.ErrorCode("export_read_failed")
	ErrParseFailed = errors.ErrorCode("export_parse_failed")
)
