package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/vitos/fx_margin_trader/internal/domain"
)

// JSONLWriter appends one JSON object per line to the audit file. The
// file is opened append-only and is never truncated or rewritten; the
// trail must survive every restart intact.
type JSONLWriter struct {
	mu sync.Mutex
	f  *os.File
}

func NewJSONLWriter(path string) (*JSONLWriter, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &JSONLWriter{f: f}, nil
}

func (w *JSONLWriter) Append(rec *domain.AuditRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.f.Write(line); err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}

func (w *JSONLWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}
