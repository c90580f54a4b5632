package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"codeberg.org/mutker/obdctl/internal/config"
	"codeberg.org/mutker/obdctl/internal/dtc"
	"codeberg.org/mutker/obdctl/internal/export"
	"codeberg.org/mutker/obdctl/internal/lockfile"
	"codeberg.org/mutker/obdctl/internal/logger"
	"codeberg.org/mutker/obdctl/internal/monitor"
	"codeberg.org/mutker/obdctl/internal/sampler"
	"codeberg.org/mutker/obdctl/internal/session"
	"codeberg.org/mutker/obdctl/internal/telemetry"
)

const simSeed = 1

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose || cfg.Monitor, logger.IsService())
	logger.Debug().Msg("Config loaded")
}

func main() {
	os.Exit(run())
}

func run() int {
	params, err := session.Resolve(cfg.ParameterNames())
	if err != nil {
		logger.Error().Err(err).Msg("Invalid parameter set")
		return 1
	}

	lockName := cfg.Adapter
	if cfg.Simulate {
		lockName = "simulated"
	}
	if err := lockfile.Acquire(lockName); err != nil {
		logger.Error().Err(err).Msg("Failed to acquire adapter lock")
		return 1
	}
	defer lockfile.Release(lockName)

	sess, err := openSession()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open diagnostic session")
		return 1
	}
	defer sess.Close()

	if describer, ok := sess.(session.Describer); ok {
		info := describer.Describe()
		logger.Info().
			Str("adapter", info.Adapter).
			Str("version", info.Version).
			Msg("Session opened")
	}

	if cfg.ReadDTC || cfg.ClearDTC {
		return runDTC(sess)
	}

	collector, err := telemetry.NewService(telemetry.Config{
		Enabled: cfg.Telemetry,
		DBPath:  cfg.Database,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize telemetry archive")
		return 1
	}
	defer func() {
		if err := collector.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close telemetry archive")
		}
	}()

	var hub *monitor.Hub
	if cfg.Listen != "" {
		hub = monitor.NewHub(cfg.Listen)
		hub.Start()
		defer func() {
			if err := hub.Stop(); err != nil {
				logger.Error().Err(err).Msg("Failed to stop live feed")
			}
		}()
	}

	runID := time.Now().Format("20060102_150405")

	onTick := func(tick []sampler.Observation) {
		if cfg.Monitor {
			logTick(tick)
		}
		if hub != nil {
			hub.Broadcast(tick)
		}
		if err := collector.Record(context.Background(), tickSnapshot(runID, tick)); err != nil {
			logger.Warn().Err(err).Msg("Failed to archive tick")
		}
	}

	smp, err := sampler.New(sess, params, sampler.Config{
		Interval: time.Duration(cfg.Interval * float64(time.Second)),
		Duration: time.Duration(cfg.Duration) * time.Second,
		OnTick:   onTick,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to configure sampler")
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	logger.Info().
		Strs("parameters", cfg.ParameterNames()).
		Float64("interval", cfg.Interval).
		Int("duration", cfg.Duration).
		Msg("Sampling started")

	buf, err := smp.Run(ctx)
	if err != nil {
		if !sampler.IsDisconnected(err) {
			logger.Error().Err(err).Msg("Sampling failed")
			return 1
		}
		// Connection loss ends the run early; the completed ticks are
		// still exported below.
		logger.Warn().
			Int("ticks", buf.Ticks()).
			Msg("Session disconnected; exporting partial buffer")
	}

	return finish(buf, runID)
}

func finish(buf *sampler.Buffer, runID string) int {
	exit := 0

	for _, format := range cfg.FormatNames() {
		path := filepath.Join(cfg.LogDir, fmt.Sprintf("obd_log_%s.%s", runID, format))

		var err error
		switch format {
		case "csv":
			err = export.WriteTable(path, buf)
		case "json":
			err = export.WriteRecords(path, buf)
		}
		if err != nil {
			logger.Error().Err(err).Str("format", format).Msg("Export failed")
			exit = 1
			continue
		}

		logger.Info().Str("path", path).Int("ticks", buf.Ticks()).Msg("Export written")
	}

	if cfg.Stats {
		if err := export.WriteSummary(os.Stdout, buf, export.Summarize(buf)); err != nil {
			logger.Error().Err(err).Msg("Failed to write summary")
			exit = 1
		}
	}

	return exit
}

func openSession() (session.Session, error) {
	if cfg.Simulate {
		return session.NewSim(simSeed), nil
	}

	return session.OpenELM(cfg.Adapter, cfg.Debug)
}

func runDTC(sess session.Session) int {
	reader, ok := sess.(session.FaultReader)
	if !ok {
		logger.Error().Msg("Session does not support fault code readout")
		return 1
	}

	ctx := context.Background()
	codes, err := reader.ReadFaultCodes(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read fault codes")
		return 1
	}

	if len(codes) == 0 {
		fmt.Println("No fault codes found.")
		return 0
	}

	fmt.Printf("Found %d fault code(s):\n", len(codes))
	for _, code := range codes {
		fmt.Printf("  %s  %s\n", code, dtc.Describe(code))
	}

	if cfg.ClearDTC {
		if err := reader.ClearFaultCodes(ctx); err != nil {
			logger.Error().Err(err).Msg("Failed to clear fault codes")
			return 1
		}
		fmt.Println("Fault codes cleared.")
	}

	return 0
}

func logTick(tick []sampler.Observation) {
	event := logger.Info()
	for _, obs := range tick {
		event.Str(obs.Parameter, obs.Value.String())
	}
	event.Msg("")
}

func tickSnapshot(runID string, tick []sampler.Observation) *telemetry.TickSnapshot {
	snapshot := &telemetry.TickSnapshot{
		RunID:   runID,
		Samples: make([]telemetry.Sample, 0, len(tick)),
	}
	if len(tick) > 0 {
		snapshot.Timestamp = tick[0].Timestamp
	}
	for _, obs := range tick {
		snapshot.Samples = append(snapshot.Samples, telemetry.Sample{
			Parameter: obs.Parameter,
			Unit:      obs.Unit,
			Literal:   obs.Value.Literal(),
		})
	}

	return snapshot
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}
