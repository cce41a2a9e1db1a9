package audit

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileSink appends one comma separated line per record. The header is written
// when the file is first created.
type FileSink struct {
	mu   sync.Mutex
	path string
}

func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}
	return &FileSink{path: path}, nil
}

func (s *FileSink) Path() string {
	return s.path
}

// Emit opens, appends one line and closes, holding the sink lock throughout.
func (s *FileSink) Emit(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := os.Stat(s.path)
	isNew := errors.Is(err, fs.ErrNotExist)

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}

	var b strings.Builder
	if isNew {
		b.WriteString(strings.Join(Header, ","))
		b.WriteByte('\n')
	}
	b.WriteString(strings.Join(rec.Fields(), ","))
	b.WriteByte('\n')

	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		return fmt.Errorf("write audit log: %w", err)
	}
	return f.Close()
}

func (s *FileSink) Close() error {
	return nil
}
