// Package maplog keeps the append-only soil to map unit mapping log.
package maplog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/soilgen/soilgen-fire/internal/pipeline"
)

// File appends "soil,mukey" lines to a text file. It is opened once per run
// and starts empty.
type File struct {
	mu sync.Mutex
	f  *os.File
}

// Open creates or truncates path.
func Open(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open mapping log: %w", err)
	}
	return &File{f: f}, nil
}

// Record appends one line.
func (l *File) Record(_ context.Context, soilName, mukey string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := fmt.Fprintf(l.f, "%s,%s\n", soilName, mukey); err != nil {
		return fmt.Errorf("append mapping log: %w", err)
	}
	return nil
}

func (l *File) Close() error {
	return l.f.Close()
}

// Tee records every entry in each log, in order, and joins their errors.
type Tee []pipeline.MappingLog

func (t Tee) Record(ctx context.Context, soilName, mukey string) error {
	var errs []error
	for _, l := range t {
		if err := l.Record(ctx, soilName, mukey); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
