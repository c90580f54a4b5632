package session

import (
	"context"
	"io"
	"strings"
	"sync"

	"codeberg.org/mutker/obdctl/internal/errors"
	"codeberg.org/mutker/obdctl/internal/logger"
	"github.com/rzetterberg/elmobd"
)

type elmCommandFactory func() elmobd.OBDCommand

// Registry parameter to elmobd command mapping. elmobd owns the PID
// encodings and per-query timeouts.
var elmCommands = map[string]elmCommandFactory{
	"RPM":          func() elmobd.OBDCommand { return elmobd.NewEngineRPM() },
	"SPEED":        func() elmobd.OBDCommand { return elmobd.NewVehicleSpeed() },
	"COOLANT_TEMP": func() elmobd.OBDCommand { return elmobd.NewCoolantTemperature() },
	"THROTTLE_POS": func() elmobd.OBDCommand { return elmobd.NewThrottlePosition() },
	"ENGINE_LOAD":  func() elmobd.OBDCommand { return elmobd.NewEngineLoad() },
	"INTAKE_TEMP":  func() elmobd.OBDCommand { return elmobd.NewIntakeAirTemperature() },
	"MAF":          func() elmobd.OBDCommand { return elmobd.NewMafAirFlowRate() },
}

// ELM is a Session over an ELM327-compatible adapter via elmobd. The
// underlying device is stateful and non-reentrant, so every command runs
// under the session mutex.
type ELM struct {
	dev       *elmobd.Device
	supported *elmobd.SupportedCommands
	info      Info
	mu        sync.Mutex
	connected bool
}

func OpenELM(addr string, debug bool) (*ELM, error) {
	dev, err := elmobd.NewDevice(addr, debug)
	if err != nil {
		return nil, errors.Wrap(ErrOpenFailed, err)
	}

	s := &ELM{
		dev:       dev,
		info:      Info{Adapter: addr},
		connected: true,
	}

	if version, err := dev.GetVersion(); err == nil {
		s.info.Version = version
		logger.Info().Str("version", version).Msg("Detected adapter")
	} else {
		logger.Warn().Err(err).Msg("Failed to read adapter version")
	}

	if supported, err := dev.CheckSupportedCommands(); err == nil {
		s.supported = supported
	} else {
		logger.Warn().Err(err).Msg("Failed to probe supported PIDs; querying without support checks")
	}

	return s, nil
}

func (s *ELM) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.connected
}

func (s *ELM) Query(ctx context.Context, param Parameter) (Value, error) {
	if err := ctx.Err(); err != nil {
		return Null(), errors.Wrap(errors.ErrCancelled, err)
	}

	factory, ok := elmCommands[param.Name]
	if !ok {
		return Null(), errors.WithData(ErrUnknownParameter, param.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return Null(), errors.New(ErrDisconnected)
	}

	cmd := factory()
	if s.supported != nil && !s.supported.IsSupported(cmd) {
		return Null(), errors.WithData(ErrQueryFailed, param.Name+" not supported by vehicle")
	}

	result, err := s.dev.RunOBDCommand(cmd)
	if err != nil {
		if isTransportError(err) {
			s.connected = false
			return Null(), errors.Wrap(ErrDisconnected, err)
		}

		return Null(), errors.Wrap(ErrQueryFailed, err)
	}

	value, err := ParseLiteral(result.ValueAsLit())
	if err != nil {
		return Null(), errors.Wrap(ErrQueryFailed, err)
	}

	return value, nil
}

// Close marks the session unusable. elmobd holds the serial port for the
// lifetime of the process and exposes no close; the connected flag keeps
// any late callers from issuing commands.
func (s *ELM) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connected = false

	return nil
}

func (s *ELM) Describe() Info {
	return s.info
}

// isTransportError distinguishes a dead serial link from a single bad
// response. elmobd surfaces both as plain errors, so this goes by the
// transport-level failures the serial layer produces.
func isTransportError(err error) bool {
	if errors.Is(err, io.EOF) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"port has been closed", "device not configured", "input/output error", "no such file or directory", "unable to connect"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}

	return false
}
