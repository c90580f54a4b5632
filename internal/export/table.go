package export

import (
	"encoding/csv"
	"os"
	"sort"
	"time"

	"codeberg.org/mutker/obdctl/internal/errors"
	"codeberg.org/mutker/obdctl/internal/sampler"
	"codeberg.org/mutker/obdctl/internal/session"
	json "github.com/goccy/go-json"
)

// Table is the format-independent view of an export file, used to verify
// that both formats round-trip the same data. Columns are normalized to
// sorted order so CSV and JSON reads compare directly.
type Table struct {
	Columns []string
	Rows    []Row
}

// Row holds one tick, with values aligned to Table.Columns.
type Row struct {
	Timestamp time.Time
	Values    []session.Value
}

// BufferTable builds the normalized table a lossless export of the buffer
// must read back as.
func BufferTable(buf *sampler.Buffer) *Table {
	columns := buf.Names()
	index := sortedIndex(columns)

	table := &Table{Columns: applyIndex(columns, index)}
	for _, tick := range buf.Rows() {
		values := make([]session.Value, len(tick))
		for i, obs := range tick {
			values[i] = obs.Value
		}
		table.Rows = append(table.Rows, Row{
			Timestamp: tick[0].Timestamp,
			Values:    applyIndex(values, index),
		})
	}

	return table
}

// ReadTable parses a CSV export back into a table.
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(ErrReadFailed, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, errors.Wrap(ErrParseFailed, err)
	}
	if len(records) == 0 || len(records[0]) < 2 || records[0][0] != "timestamp" {
		return nil, errors.WithMessage(ErrParseFailed, "missing or malformed header row")
	}

	columns := records[0][1:]
	index := sortedIndex(columns)
	table := &Table{Columns: applyIndex(columns, index)}

	for _, cells := range records[1:] {
		if len(cells) != len(columns)+1 {
			return nil, errors.WithData(ErrParseFailed, cells)
		}

		ts, err := time.Parse(time.RFC3339Nano, cells[0])
		if err != nil {
			return nil, errors.Wrap(ErrParseFailed, err)
		}

		values := make([]session.Value, len(columns))
		for i, cell := range cells[1:] {
			if values[i], err = session.ParseLiteral(cell); err != nil {
				return nil, errors.Wrap(ErrParseFailed, err)
			}
		}

		table.Rows = append(table.Rows, Row{Timestamp: ts, Values: applyIndex(values, index)})
	}

	return table, nil
}

// ReadRecords parses a JSON export back into a table.
func ReadRecords(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(ErrReadFailed, err)
	}

	var records []struct {
		Timestamp time.Time                `json:"timestamp"`
		Data      map[string]session.Value `json:"data"`
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrap(ErrParseFailed, err)
	}

	table := &Table{}
	for i, rec := range records {
		if i == 0 {
			for name := range rec.Data {
				table.Columns = append(table.Columns, name)
			}
			sort.Strings(table.Columns)
		}

		values := make([]session.Value, len(table.Columns))
		for j, name := range table.Columns {
			values[j] = rec.Data[name]
		}
		table.Rows = append(table.Rows, Row{Timestamp: rec.Timestamp, Values: values})
	}

	return table, nil
}

func sortedIndex(columns []string) []int {
	index := make([]int, len(columns))
	for i := range index {
		index[i] = i
	}
	sort.Slice(index, func(a, b int) bool {
		return columns[index[a]] < columns[index[b]]
	})

	return index
}

func applyIndex[T any](items []T, index []int) []T {
	out := make([]T, len(items))
	for i, from := range index {
		out[i] = items[from]
	}

	return out
}
