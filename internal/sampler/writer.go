package sampler

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// TableWriter appends accepted sample rows to the shared buildstock CSV.
//
// It is the one piece of mutable state shared by concurrent sample workers,
// so every append happens under the mutex: rows from different workers are
// never interleaved or lost. Rows land in completion order, not index order;
// the building index embedded in each row is the authoritative ordinal.
type TableWriter struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

// NewTableWriter creates (truncating) the output table at path and writes
// the header row: "Building" followed by the attribute names in sample
// order.
func NewTableWriter(path string, attrOrder []string) (*TableWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create sample table: %w", err)
	}
	header := "Building," + strings.Join(attrOrder, ",") + "\n"
	if _, err := f.WriteString(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write sample table header: %w", err)
	}
	return &TableWriter{f: f, path: path}, nil
}

// Append writes one resolved sample row. building is the 1-based sample
// index; values align with the header's attribute order. Safe for
// concurrent use.
func (w *TableWriter) Append(building int, values []string) error {
	row := strconv.Itoa(building) + "," + strings.Join(values, ",") + "\n"

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.f.WriteString(row); err != nil {
		return fmt.Errorf("append sample row %d: %w", building, err)
	}
	return nil
}

// Path returns the location of the table artifact.
func (w *TableWriter) Path() string {
	return w.path
}

// Close flushes and closes the underlying file.
func (w *TableWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.f.Sync(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
