// Package sampler implements the bounded polling loop: it queries a fixed
// parameter set from a diagnostic session once per tick and buffers one
// timestamped observation per parameter per tick.
package sampler

import (
	"context"
	"sync/atomic"
	"time"

	"codeberg.org/mutker/obdctl/internal/errors"
	"codeberg.org/mutker/obdctl/internal/logger"
	"codeberg.org/mutker/obdctl/internal/session"
)

type Config struct {
	// Interval is the time between sampling ticks.
	Interval time.Duration
	// Duration bounds the run; zero runs until the context is cancelled.
	Duration time.Duration
	// OnTick, when set, receives each completed tick's observations.
	OnTick func(tick []Observation)
}

// Sampler drives one diagnostic session. The session is stateful and
// non-reentrant, so at most one Run may be active at a time.
type Sampler struct {
	sess    session.Session
	params  []session.Parameter
	cfg     Config
	running atomic.Bool
}

func New(sess session.Session, params []session.Parameter, cfg Config) (*Sampler, error) {
	if sess == nil {
		return nil, errors.New(ErrNilSession)
	}
	if len(params) == 0 {
		return nil, errors.New(ErrNoParameters)
	}
	if cfg.Interval <= 0 {
		return nil, errors.WithData(ErrInvalidInterval, cfg.Interval)
	}

	owned := make([]session.Parameter, len(params))
	copy(owned, params)

	return &Sampler{sess: sess, params: owned, cfg: cfg}, nil
}

// Run samples until the duration elapses, the context is cancelled, or the
// session disconnects. It always returns the buffer: on disconnect the
// completed ticks are preserved and the error carries ErrDisconnected.
func (s *Sampler) Run(ctx context.Context) (*Buffer, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, errors.New(ErrAlreadyRunning)
	}
	defer s.running.Store(false)

	if s.cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Duration)
		defer cancel()
	}

	// Cancellation is cooperative and observed between ticks only; a query
	// in flight is never cut short.
	queryCtx := context.WithoutCancel(ctx)

	buf := newBuffer(s.params)
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		if !s.sess.IsConnected() {
			buf.finish()
			return buf, errors.New(ErrDisconnected)
		}

		tick, err := s.sampleTick(queryCtx)
		if err != nil {
			buf.finish()
			return buf, err
		}

		buf.record(tick)
		if s.cfg.OnTick != nil {
			s.cfg.OnTick(tick)
		}

		select {
		case <-ctx.Done():
			buf.finish()
			return buf, nil
		case <-ticker.C:
		}
	}
}

// sampleTick queries every parameter once, in column order. A failed query
// becomes a null observation; a disconnect aborts the tick so the buffer
// only ever holds complete rows.
func (s *Sampler) sampleTick(ctx context.Context) ([]Observation, error) {
	tick := make([]Observation, 0, len(s.params))
	for _, param := range s.params {
		value, err := s.sess.Query(ctx, param)
		if err != nil {
			if session.IsDisconnected(err) {
				return nil, errors.Wrap(ErrDisconnected, err)
			}

			logger.Debug().
				Str("parameter", param.Name).
				Err(err).
				Msg("Query failed; recording null")
			value = session.Null()
		}

		tick = append(tick, Observation{
			Parameter: param.Name,
			Unit:      param.Unit,
			Value:     value,
			Timestamp: time.Now(),
		})
	}

	return tick, nil
}
