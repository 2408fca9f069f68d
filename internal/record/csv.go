package record

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

var baseHeader = []string{
	"thumb_x", "thumb_y",
	"index_x", "index_y",
	"mid_x", "mid_y",
	"wrist_x", "wrist_y",
}

const opennessColumn = "openness_percentage"

// Header returns the CSV header, with the openness column when withOpenness is set.
func Header(withOpenness bool) []string {
	h := append([]string(nil), baseHeader...)
	if withOpenness {
		h = append(h, opennessColumn)
	}
	return h
}

// CSVRecorder appends one row per sample to a CSV file.
// The header is written only when the file is new or empty.
type CSVRecorder struct {
	mu           sync.Mutex
	file         *os.File
	w            *csv.Writer
	withOpenness bool
}

// NewCSVRecorder opens path for appending, creating it and its directory if needed.
func NewCSVRecorder(path string, withOpenness bool) (*CSVRecorder, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create csv directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv log: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat csv log: %w", err)
	}

	r := &CSVRecorder{file: f, w: csv.NewWriter(f), withOpenness: withOpenness}
	if info.Size() == 0 {
		if err := r.write(Header(withOpenness)); err != nil {
			f.Close()
			return nil, err
		}
	}
	return r, nil
}

// Row formats s as a CSV record.
func (r *CSVRecorder) Row(s Sample) []string {
	m := s.Metrics
	row := []string{
		strconv.Itoa(m.Tips.Thumb.X), strconv.Itoa(m.Tips.Thumb.Y),
		strconv.Itoa(m.Tips.Index.X), strconv.Itoa(m.Tips.Index.Y),
		strconv.Itoa(m.Tips.Middle.X), strconv.Itoa(m.Tips.Middle.Y),
		strconv.Itoa(m.Wrist.X), strconv.Itoa(m.Wrist.Y),
	}
	if r.withOpenness {
		row = append(row, strconv.Itoa(m.OpennessPercent))
	}
	return row
}

func (r *CSVRecorder) Record(s Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.write(r.Row(s))
}

func (r *CSVRecorder) write(record []string) error {
	if err := r.w.Write(record); err != nil {
		return fmt.Errorf("failed to write csv row: %w", err)
	}
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv row: %w", err)
	}
	return nil
}

func (r *CSVRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.w.Flush()
	return r.file.Close()
}
