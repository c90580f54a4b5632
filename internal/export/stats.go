package export

import (
	"fmt"
	"io"
	"time"

	"codeberg.org/mutker/obdctl/internal/sampler"
)

// ParameterStats holds min/max/mean over the non-null numeric observations
// of one parameter. Count zero means no numeric samples: Min, Max and Mean
// are then undefined and must not be read as zero.
type ParameterStats struct {
	Parameter string
	Unit      string
	Count     int
	Min       float64
	Max       float64
	Mean      float64
}

// Summarize computes per-parameter statistics in column order. Null and
// boolean observations are excluded from the numeric aggregates.
func Summarize(buf *sampler.Buffer) []ParameterStats {
	order := buf.Names()
	byName := make(map[string]*ParameterStats, len(order))

	stats := make([]ParameterStats, len(order))
	for i, param := range buf.Parameters() {
		stats[i] = ParameterStats{Parameter: param.Name, Unit: param.Unit}
		byName[param.Name] = &stats[i]
	}

	sums := make(map[string]float64, len(order))
	for _, obs := range buf.Observations() {
		value, ok := obs.Value.Float()
		if !ok {
			continue
		}

		st := byName[obs.Parameter]
		if st.Count == 0 || value < st.Min {
			st.Min = value
		}
		if st.Count == 0 || value > st.Max {
			st.Max = value
		}
		st.Count++
		sums[obs.Parameter] += value
	}

	for i := range stats {
		if stats[i].Count > 0 {
			stats[i].Mean = sums[stats[i].Parameter] / float64(stats[i].Count)
		}
	}

	return stats
}

// WriteSummary renders a human-readable summary report.
func WriteSummary(w io.Writer, buf *sampler.Buffer, stats []ParameterStats) error {
	_, err := fmt.Fprintf(w, "Run summary: %d ticks, %s to %s\n",
		buf.Ticks(),
		buf.Start().Format(time.RFC3339),
		buf.End().Format(time.RFC3339))
	if err != nil {
		return err
	}

	for _, st := range stats {
		if st.Count == 0 {
			if _, err := fmt.Fprintf(w, "  %-14s no numeric samples\n", st.Parameter); err != nil {
				return err
			}
			continue
		}

		_, err := fmt.Fprintf(w, "  %-14s min %-10.2f max %-10.2f mean %-10.2f (%s, %d samples)\n",
			st.Parameter, st.Min, st.Max, st.Mean, st.Unit, st.Count)
		if err != nil {
			return err
		}
	}

	return nil
}
