// Package export serializes a completed sampling buffer. Two formats are
// supported: a CSV table (timestamp column first, one column per parameter)
// and a JSON record list (one record per tick). Both carry an explicit null
// marker for missing values and round-trip losslessly.
package export

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"time"

	"codeberg.org/mutker/obdctl/internal/errors"
	"codeberg.org/mutker/obdctl/internal/sampler"
	"codeberg.org/mutker/obdctl/internal/session"
	json "github.com/goccy/go-json"
)

const (
	defaultDirPerm  = 0o755
	defaultFilePerm = 0o644
)

// WriteTable writes the buffer as a CSV file. Null values become empty
// cells. The write is atomic: the file appears complete or not at all.
func WriteTable(path string, buf *sampler.Buffer) error {
	return writeAtomic(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)

		header := append([]string{"timestamp"}, buf.Names()...)
		if err := cw.Write(header); err != nil {
			return err
		}

		for _, row := range buf.Rows() {
			record := make([]string, 0, len(row)+1)
			record = append(record, row[0].Timestamp.Format(time.RFC3339Nano))
			for _, obs := range row {
				record = append(record, obs.Value.Literal())
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}

		cw.Flush()

		return cw.Error()
	})
}

// recordData keeps JSON record fields in the buffer's parameter order
// instead of map order.
type recordData struct {
	names  []string
	values []session.Value
}

func (d recordData) MarshalJSON() ([]byte, error) {
	var out bytes.Buffer
	out.WriteByte('{')
	for i, name := range d.names {
		if i > 0 {
			out.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		out.Write(key)
		out.WriteByte(':')
		value, err := json.Marshal(d.values[i])
		if err != nil {
			return nil, err
		}
		out.Write(value)
	}
	out.WriteByte('}')

	return out.Bytes(), nil
}

type record struct {
	Timestamp time.Time  `json:"timestamp"`
	Data      recordData `json:"data"`
}

// WriteRecords writes the buffer as a JSON record list, one record per
// tick. Null values are serialized as JSON null. Atomic like WriteTable.
func WriteRecords(path string, buf *sampler.Buffer) error {
	names := buf.Names()
	records := make([]record, 0, buf.Ticks())
	for _, row := range buf.Rows() {
		values := make([]session.Value, len(row))
		for i, obs := range row {
			values[i] = obs.Value
		}
		records = append(records, record{
			Timestamp: row[0].Timestamp,
			Data:      recordData{names: names, values: values},
		})
	}

	return writeAtomic(path, func(w io.Writer) error {
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return err
		}
		data = append(data, '\n')
		_, err = w.Write(data)

		return err
	})
}

func writeAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, defaultDirPerm); err != nil {
		return errors.Wrap(ErrCreateDir, err)
	}

	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return errors.Wrap(ErrWriteFailed, err)
	}
	tmpPath := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrap(ErrWriteFailed, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(ErrWriteFailed, err)
	}

	if err := os.Chmod(tmpPath, defaultFilePerm); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(ErrWriteFailed, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(ErrWriteFailed, err)
	}

	return nil
}
