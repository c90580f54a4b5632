package telemetry

import "codeberg.org/mutker/obdctl/internal/errors"

const (
	defaultDirPerm = 0o755
	defaultDBPath  = "/var/lib/obdctl/telemetry.db"
)

type Config struct {
	DBPath  string
	Enabled bool
}

func DefaultConfig() Config {
	return Config{
		DBPath:  defaultDBPath,
		Enabled: false,
	}
}

func (c Config) Validate() error {
	// Only validate DBPath if the archive is enabled
	if c.Enabled && c.DBPath == "" {
		return errors.New(ErrInvalidDBPath)
	}
	return nil
}
