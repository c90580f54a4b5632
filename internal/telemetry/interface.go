package telemetry

import (
	"context"
	"time"
)

// Collector archives sampling ticks for later analysis.
type Collector interface {
	Record(ctx context.Context, snapshot *TickSnapshot) error
	Close() error
}

// Repository is the storage backend behind a Collector.
type Repository interface {
	Store(snapshot *TickSnapshot) error
	Close() error
}

// TickSnapshot is one completed sampling tick.
type TickSnapshot struct {
	RunID     string
	Timestamp time.Time
	Samples   []Sample
}

// Sample is one parameter reading within a tick. An empty Literal marks a
// null reading and is stored as SQL NULL, never as zero.
type Sample struct {
	Parameter string
	Unit      string
	Literal   string
}
