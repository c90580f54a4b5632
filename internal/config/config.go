package config

import (
	"flag"
	"os"
	"strings"

	"codeberg.org/mutker/obdctl/internal/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	DefaultAdapter  = "/dev/ttyUSB0"
	DefaultInterval = 1.0
	DefaultLogDir   = "logs"

	defaultParameters = "RPM,SPEED,COOLANT_TEMP,THROTTLE_POS"
	defaultFormats    = "csv,json"
	defaultDuration   = 60
)

type Config struct {
	Adapter    string
	Simulate   bool
	Parameters string
	Interval   float64
	Duration   int
	LogDir     string `mapstructure:"logdir"`
	Formats    string
	Stats      bool
	Monitor    bool
	Listen     string
	Telemetry  bool
	Database   string
	ReadDTC    bool `mapstructure:"dtc"`
	ClearDTC   bool `mapstructure:"cleardtc"`
	Debug      bool
	Verbose    bool
}

// ParameterNames returns the configured parameter set in column order.
func (c *Config) ParameterNames() []string {
	return splitList(c.Parameters)
}

// FormatNames returns the requested export formats.
func (c *Config) FormatNames() []string {
	return splitList(c.Formats)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}

	return out
}

func Load() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	config := &Config{}

	v := viper.New()
	v.SetDefault("adapter", DefaultAdapter)
	v.SetDefault("simulate", false)
	v.SetDefault("parameters", defaultParameters)
	v.SetDefault("interval", DefaultInterval)
	v.SetDefault("duration", defaultDuration)
	v.SetDefault("logdir", DefaultLogDir)
	v.SetDefault("formats", defaultFormats)

	// Define flags on a private FlagSet so Load stays re-entrant
	fs := flag.NewFlagSet("obdctl", flag.ContinueOnError)
	fs.String("adapter", DefaultAdapter, "Serial device of the OBD-II adapter")
	fs.Bool("simulate", false, "Use the built-in simulated session instead of real hardware")
	fs.String("parameters", defaultParameters, "Comma-separated parameter names to sample")
	fs.Float64("interval", DefaultInterval, "Seconds between sampling ticks")
	fs.Int("duration", defaultDuration, "Total sampling duration in seconds (0 runs until interrupted)")
	fs.String("logdir", DefaultLogDir, "Directory for export files")
	fs.String("formats", defaultFormats, "Comma-separated export formats (csv, json)")
	fs.Bool("stats", false, "Compute and print per-parameter statistics")
	fs.Bool("monitor", false, "Log each tick as it is sampled")
	fs.String("listen", "", "Address for the live websocket feed (disabled when empty)")
	fs.Bool("telemetry", false, "Archive observations to the telemetry database")
	fs.String("database", "", "Path to the telemetry database")
	fs.Bool("dtc", false, "Read diagnostic trouble codes and exit")
	fs.Bool("cleardtc", false, "Clear diagnostic trouble codes after reading them")
	fs.Bool("debug", false, "Enable debugging mode")
	fs.Bool("verbose", false, "Enable verbose logging")

	if err := fs.Parse(args); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidArgument, err)
	}

	// Load configuration from file
	if path := os.Getenv("OBDCTL_CONFIG"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(errors.ErrReadConfig, err)
		}
	} else {
		v.SetConfigName("obdctl.conf")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(errors.ErrReadConfig, err)
			}
		}
	}

	// Override config file values with command line flags
	fs.Visit(func(f *flag.Flag) {
		v.Set(f.Name, f.Value.String())
	})

	if err := v.Unmarshal(config); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	// Set log level based on config
	if config.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else if config.Verbose {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.Interval <= 0 {
		return errors.WithData(ErrInvalidInterval, c.Interval)
	}

	if c.Duration < 0 {
		return errors.WithData(ErrInvalidDuration, c.Duration)
	}

	if len(c.ParameterNames()) == 0 {
		return errors.New(ErrNoParameters)
	}

	formats := c.FormatNames()
	if len(formats) == 0 {
		return errors.New(ErrNoFormats)
	}
	for _, format := range formats {
		if format != "csv" && format != "json" {
			return errors.WithData(ErrUnknownFormat, format)
		}
	}

	if c.Telemetry && c.Database == "" {
		return errors.New(ErrMissingDatabase)
	}

	return nil
}
