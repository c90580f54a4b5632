package session

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"codeberg.org/mutker/obdctl/internal/dtc"
	"codeberg.org/mutker/obdctl/internal/errors"
)

type waveform struct {
	base      float64
	amplitude float64
	period    float64 // seconds per cycle
	jitter    float64
	floor     float64
}

var simWaveforms = map[string]waveform{
	"RPM":          {base: 1900, amplitude: 1100, period: 45, jitter: 40, floor: 650},
	"SPEED":        {base: 45, amplitude: 45, period: 60, jitter: 2, floor: 0},
	"COOLANT_TEMP": {base: 86, amplitude: 8, period: 300, jitter: 0.5, floor: 20},
	"THROTTLE_POS": {base: 22, amplitude: 17, period: 30, jitter: 1.5, floor: 0},
	"ENGINE_LOAD":  {base: 35, amplitude: 25, period: 40, jitter: 2, floor: 0},
	"INTAKE_TEMP":  {base: 30, amplitude: 8, period: 240, jitter: 0.4, floor: -20},
	"MAF":          {base: 16, amplitude: 13, period: 35, jitter: 1, floor: 0},
}

// Sim is an in-process session producing seeded waveform readings. It backs
// the --simulate flag and any test that needs a full session.
type Sim struct {
	mu     sync.Mutex
	rng    *rand.Rand
	start  time.Time
	faults []dtc.Code
	closed bool
}

func NewSim(seed int64) *Sim {
	return &Sim{
		rng:    rand.New(rand.NewSource(seed)),
		start:  time.Now(),
		faults: []dtc.Code{"P0133", "P0420"},
	}
}

func (s *Sim) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return !s.closed
}

func (s *Sim) Query(ctx context.Context, param Parameter) (Value, error) {
	if err := ctx.Err(); err != nil {
		return Null(), errors.Wrap(errors.ErrCancelled, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Null(), errors.New(ErrDisconnected)
	}

	wf, ok := simWaveforms[param.Name]
	if !ok {
		return Null(), errors.WithData(ErrUnknownParameter, param.Name)
	}

	elapsed := time.Since(s.start).Seconds()
	value := wf.base + wf.amplitude*math.Sin(2*math.Pi*elapsed/wf.period)
	value += wf.jitter * (s.rng.Float64()*2 - 1)
	value = math.Max(value, wf.floor)

	return Numeric(math.Round(value*100) / 100), nil
}

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true

	return nil
}

func (s *Sim) Describe() Info {
	return Info{Adapter: "simulated", Version: "sim 1.0"}
}

func (s *Sim) ReadFaultCodes(ctx context.Context) ([]dtc.Code, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(ErrFaultReadFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New(ErrDisconnected)
	}

	codes := make([]dtc.Code, len(s.faults))
	copy(codes, s.faults)

	return codes, nil
}

func (s *Sim) ClearFaultCodes(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(ErrFaultClearFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New(ErrDisconnected)
	}

	s.faults = nil

	return nil
}
