package pipeline

import (
	"fmt"
	"io"
	"time"
)

// KeyKind says which kind of survey key failed.
type KeyKind string

const (
	KindComponent KeyKind = "cokey"
	KindMapUnit   KeyKind = "mukey"
)

// KeyError records one failed key. The batch continues past it.
type KeyError struct {
	Kind KeyKind
	Key  string
	Err  error
}

func (e KeyError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Key, e.Err)
}

func (e KeyError) Unwrap() error { return e.Err }

// Report summarizes a batch run.
type Report struct {
	Written  []string // soil names with all files written
	Failed   []KeyError
	Duration time.Duration
}

// OK reports whether every key succeeded.
func (r Report) OK() bool { return len(r.Failed) == 0 }

// FailedKeys returns the failed keys of one kind, in failure order.
func (r Report) FailedKeys(kind KeyKind) []string {
	var keys []string
	for _, f := range r.Failed {
		if f.Kind == kind {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// WriteSummary prints a short end-of-run summary.
func (r Report) WriteSummary(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "generated %d soil(s) in %s\n", len(r.Written), r.Duration.Round(time.Millisecond)); err != nil {
		return err
	}
	if r.OK() {
		return nil
	}
	if _, err := fmt.Fprintf(w, "%d key(s) failed:\n", len(r.Failed)); err != nil {
		return err
	}
	for _, f := range r.Failed {
		if _, err := fmt.Fprintf(w, "  %s\n", f.Error()); err != nil {
			return err
		}
	}
	return nil
}
