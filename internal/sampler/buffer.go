package sampler

import (
	"time"

	"codeberg.org/mutker/obdctl/internal/session"
)

// Observation is one reading of one parameter at one instant. Immutable
// once recorded.
type Observation struct {
	Parameter string
	Unit      string
	Value     session.Value
	Timestamp time.Time
}

// Buffer is the append-only record of one logging run. The sampler owns it
// while running; afterwards it is read-only. Observations are stored
// tick-major: one entry per parameter per tick, in parameter order.
type Buffer struct {
	params []session.Parameter
	obs    []Observation
	start  time.Time
	end    time.Time
}

func newBuffer(params []session.Parameter) *Buffer {
	owned := make([]session.Parameter, len(params))
	copy(owned, params)

	return &Buffer{
		params: owned,
		start:  time.Now(),
	}
}

func (b *Buffer) record(tick []Observation) {
	b.obs = append(b.obs, tick...)
}

func (b *Buffer) finish() {
	b.end = time.Now()
}

// Parameters returns the parameter set in column order.
func (b *Buffer) Parameters() []session.Parameter {
	out := make([]session.Parameter, len(b.params))
	copy(out, b.params)

	return out
}

// Names returns the parameter names in column order.
func (b *Buffer) Names() []string {
	names := make([]string, len(b.params))
	for i, param := range b.params {
		names[i] = param.Name
	}

	return names
}

// Observations returns every observation in insertion order.
func (b *Buffer) Observations() []Observation {
	out := make([]Observation, len(b.obs))
	copy(out, b.obs)

	return out
}

// Rows returns the observations grouped per tick. Every row has exactly one
// observation per parameter, in column order.
func (b *Buffer) Rows() [][]Observation {
	width := len(b.params)
	rows := make([][]Observation, 0, b.Ticks())
	for i := 0; i+width <= len(b.obs); i += width {
		row := make([]Observation, width)
		copy(row, b.obs[i:i+width])
		rows = append(rows, row)
	}

	return rows
}

// Ticks returns the number of completed sampling ticks.
func (b *Buffer) Ticks() int {
	if len(b.params) == 0 {
		return 0
	}

	return len(b.obs) / len(b.params)
}

// Len returns the total number of observations.
func (b *Buffer) Len() int {
	return len(b.obs)
}

// Start returns the loop start time.
func (b *Buffer) Start() time.Time {
	return b.start
}

// End returns the loop end time.
func (b *Buffer) End() time.Time {
	return b.end
}
