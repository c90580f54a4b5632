package config

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/mutker/obdctl/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "obdctl.conf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OBDCTL_CONFIG", writeConfigFile(t, ""))

	cfg, err := load(nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultAdapter, cfg.Adapter)
	assert.False(t, cfg.Simulate)
	assert.Equal(t, DefaultInterval, cfg.Interval)
	assert.Equal(t, 60, cfg.Duration)
	assert.Equal(t, DefaultLogDir, cfg.LogDir)
	assert.Equal(t, []string{"RPM", "SPEED", "COOLANT_TEMP", "THROTTLE_POS"}, cfg.ParameterNames())
	assert.Equal(t, []string{"csv", "json"}, cfg.FormatNames())
	assert.False(t, cfg.Telemetry)
	assert.Empty(t, cfg.Listen)
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("OBDCTL_CONFIG", writeConfigFile(t, `
adapter = "/dev/rfcomm0"
interval = 0.5
duration = 120
parameters = "RPM, MAF"
formats = "json"
logdir = "/tmp/obd"
stats = true
`))

	cfg, err := load(nil)
	require.NoError(t, err)

	assert.Equal(t, "/dev/rfcomm0", cfg.Adapter)
	assert.Equal(t, 0.5, cfg.Interval)
	assert.Equal(t, 120, cfg.Duration)
	assert.Equal(t, []string{"RPM", "MAF"}, cfg.ParameterNames())
	assert.Equal(t, []string{"json"}, cfg.FormatNames())
	assert.Equal(t, "/tmp/obd", cfg.LogDir)
	assert.True(t, cfg.Stats)
}

func TestFlagsOverrideFile(t *testing.T) {
	t.Setenv("OBDCTL_CONFIG", writeConfigFile(t, `
interval = 5.0
parameters = "RPM"
`))

	cfg, err := load([]string{"-interval=0.25", "-simulate", "-parameters=SPEED,ENGINE_LOAD"})
	require.NoError(t, err)

	assert.Equal(t, 0.25, cfg.Interval)
	assert.True(t, cfg.Simulate)
	assert.Equal(t, []string{"SPEED", "ENGINE_LOAD"}, cfg.ParameterNames())
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Setenv("OBDCTL_CONFIG", filepath.Join(t.TempDir(), "missing.conf"))

	_, err := load(nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}

func TestLoadMalformedFile(t *testing.T) {
	t.Setenv("OBDCTL_CONFIG", writeConfigFile(t, "interval = = nonsense"))

	_, err := load(nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}

func TestValidation(t *testing.T) {
	t.Setenv("OBDCTL_CONFIG", writeConfigFile(t, ""))

	tests := []struct {
		name string
		args []string
		code errors.ErrorCode
	}{
		{"zero interval", []string{"-interval=0"}, ErrInvalidInterval},
		{"negative interval", []string{"-interval=-1"}, ErrInvalidInterval},
		{"negative duration", []string{"-duration=-5"}, ErrInvalidDuration},
		{"empty parameters", []string{"-parameters="}, ErrNoParameters},
		{"empty formats", []string{"-formats="}, ErrNoFormats},
		{"unknown format", []string{"-formats=csv,xml"}, ErrUnknownFormat},
		{"telemetry without database", []string{"-telemetry"}, ErrMissingDatabase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(tt.args)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "expected code %s, got: %v", tt.code, err)
		})
	}
}

func TestListSplittingTrimsWhitespace(t *testing.T) {
	cfg := &Config{Parameters: " RPM , SPEED ,, COOLANT_TEMP ", Formats: "csv"}

	assert.Equal(t, []string{"RPM", "SPEED", "COOLANT_TEMP"}, cfg.ParameterNames())
	assert.Equal(t, []string{"csv"}, cfg.FormatNames())
}
