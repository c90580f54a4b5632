package export_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"codeberg.org/mutker/obdctl/internal/errors"
	"codeberg.org/mutker/obdctl/internal/export"
	"codeberg.org/mutker/obdctl/internal/sampler"
	"codeberg.org/mutker/obdctl/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSession replays fixed query results, then reports disconnected,
// giving tests buffers with an exact tick count.
type scriptedSession struct {
	script []session.Value
	errs   []bool
	next   int
}

func (s *scriptedSession) IsConnected() bool {
	return s.next < len(s.script)
}

func (s *scriptedSession) Query(_ context.Context, _ session.Parameter) (session.Value, error) {
	if s.next >= len(s.script) {
		return session.Null(), errors.New(session.ErrDisconnected)
	}

	i := s.next
	s.next++
	if s.errs != nil && s.errs[i] {
		return session.Null(), errors.New(session.ErrQueryFailed)
	}

	return s.script[i], nil
}

func (s *scriptedSession) Close() error {
	return nil
}

func runBuffer(t *testing.T, names []string, script []session.Value, errs []bool) *sampler.Buffer {
	t.Helper()

	params, err := session.Resolve(names)
	require.NoError(t, err)

	smp, err := sampler.New(&scriptedSession{script: script, errs: errs}, params,
		sampler.Config{Interval: time.Millisecond})
	require.NoError(t, err)

	buf, err := smp.Run(context.Background())
	require.True(t, sampler.IsDisconnected(err))

	return buf
}

// scenarioBuffer is the RPM/SPEED fixture: three ticks with one failed
// query per parameter.
func scenarioBuffer(t *testing.T) *sampler.Buffer {
	t.Helper()

	return runBuffer(t,
		[]string{"RPM", "SPEED"},
		[]session.Value{
			session.Numeric(1200), session.Numeric(40),
			session.Null(), session.Numeric(42),
			session.Numeric(1300), session.Null(),
		},
		[]bool{false, false, true, false, false, true},
	)
}

func TestTableRoundTrip(t *testing.T) {
	buf := scenarioBuffer(t)
	path := filepath.Join(t.TempDir(), "out.csv")

	require.NoError(t, export.WriteTable(path, buf))

	parsed, err := export.ReadTable(path)
	require.NoError(t, err)

	assertTablesEqual(t, export.BufferTable(buf), parsed)
}

func TestRecordsRoundTrip(t *testing.T) {
	buf := scenarioBuffer(t)
	path := filepath.Join(t.TempDir(), "out.json")

	require.NoError(t, export.WriteRecords(path, buf))

	parsed, err := export.ReadRecords(path)
	require.NoError(t, err)

	assertTablesEqual(t, export.BufferTable(buf), parsed)
}

func TestBothFormatsAgree(t *testing.T) {
	buf := runBuffer(t,
		[]string{"RPM", "MAF"},
		[]session.Value{
			session.Numeric(950.5), session.Bool(true),
			session.Null(), session.Numeric(12.25),
		},
		nil,
	)

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "out.csv")
	jsonPath := filepath.Join(dir, "out.json")
	require.NoError(t, export.WriteTable(csvPath, buf))
	require.NoError(t, export.WriteRecords(jsonPath, buf))

	fromCSV, err := export.ReadTable(csvPath)
	require.NoError(t, err)
	fromJSON, err := export.ReadRecords(jsonPath)
	require.NoError(t, err)

	assertTablesEqual(t, fromCSV, fromJSON)
}

func TestExportIsIdempotent(t *testing.T) {
	buf := scenarioBuffer(t)
	dir := t.TempDir()

	for _, tc := range []struct {
		name  string
		write func(string) error
	}{
		{"csv", func(p string) error { return export.WriteTable(p, buf) }},
		{"json", func(p string) error { return export.WriteRecords(p, buf) }},
	} {
		first := filepath.Join(dir, "a."+tc.name)
		second := filepath.Join(dir, "b."+tc.name)
		require.NoError(t, tc.write(first))
		require.NoError(t, tc.write(second))

		a, err := os.ReadFile(first)
		require.NoError(t, err)
		b, err := os.ReadFile(second)
		require.NoError(t, err)
		assert.Equal(t, a, b, "%s export must be byte-identical", tc.name)
	}
}

func TestNullMarkerInFiles(t *testing.T) {
	buf := scenarioBuffer(t)
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "out.csv")
	require.NoError(t, export.WriteTable(csvPath, buf))
	csvData, err := os.ReadFile(csvPath)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(csvData)), "\n")
	require.Len(t, lines, 4) // header + 3 ticks
	assert.True(t, strings.HasPrefix(lines[0], "timestamp,RPM,SPEED"))
	assert.True(t, strings.HasSuffix(lines[2], ",,42"), "null RPM must be an empty cell: %s", lines[2])

	jsonPath := filepath.Join(dir, "out.json")
	require.NoError(t, export.WriteRecords(jsonPath, buf))
	jsonData, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Contains(t, string(jsonData), `"RPM": null`)
}

func TestWriteFailureLeavesNothingBehind(t *testing.T) {
	buf := scenarioBuffer(t)

	// A regular file where the target directory should be.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocked")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	path := filepath.Join(blocker, "out.csv")
	err := export.WriteTable(path, buf)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, export.ErrCreateDir))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no partial file may exist after a failed export")
}

func TestSummarizeScenario(t *testing.T) {
	buf := scenarioBuffer(t)

	stats := export.Summarize(buf)
	require.Len(t, stats, 2)

	rpm := stats[0]
	assert.Equal(t, "RPM", rpm.Parameter)
	assert.Equal(t, 2, rpm.Count)
	assert.InDelta(t, 1200, rpm.Min, 0.001)
	assert.InDelta(t, 1300, rpm.Max, 0.001)
	assert.InDelta(t, 1250, rpm.Mean, 0.001)

	speed := stats[1]
	assert.Equal(t, "SPEED", speed.Parameter)
	assert.Equal(t, 2, speed.Count)
	assert.InDelta(t, 40, speed.Min, 0.001)
	assert.InDelta(t, 42, speed.Max, 0.001)
	assert.InDelta(t, 41, speed.Mean, 0.001)
}

func TestSummarizeAllNull(t *testing.T) {
	buf := runBuffer(t,
		[]string{"RPM"},
		[]session.Value{session.Null(), session.Null()},
		[]bool{true, true},
	)

	stats := export.Summarize(buf)
	require.Len(t, stats, 1)
	assert.Equal(t, 0, stats[0].Count, "a parameter with no numeric samples reports no statistics")
}

func TestWriteSummary(t *testing.T) {
	buf := scenarioBuffer(t)

	var out strings.Builder
	require.NoError(t, export.WriteSummary(&out, buf, export.Summarize(buf)))

	report := out.String()
	assert.Contains(t, report, "3 ticks")
	assert.Contains(t, report, "RPM")
	assert.Contains(t, report, "1250.00")
}

func assertTablesEqual(t *testing.T, want, got *export.Table) {
	t.Helper()

	assert.Equal(t, want.Columns, got.Columns)
	require.Equal(t, len(want.Rows), len(got.Rows), "tick count must survive the round trip")

	for i := range want.Rows {
		assert.True(t, want.Rows[i].Timestamp.Equal(got.Rows[i].Timestamp),
			"row %d timestamp mismatch", i)
		assert.Equal(t, want.Rows[i].Values, got.Rows[i].Values, "row %d values mismatch", i)
	}
}
