package driver

import (
	"errors"
	"fmt"
	"strings"

	"javtidy/internal/journal"
)

var (
	// ErrUnrecognized tags a filename with no recognizable catalog ID.
	ErrUnrecognized = errors.New("no catalog id in filename")
	// ErrContended tags a source whose processing lock another process holds.
	ErrContended = errors.New("lock held elsewhere")
	// ErrTemplateMiss tags a single template attempt that yielded nothing.
	ErrTemplateMiss = errors.New("template miss")
	// ErrDataAbsent tags a source every configured template exhausted on.
	ErrDataAbsent = errors.New("no template produced a record")
	// ErrIntegrityLost tags a source that changed underneath the run.
	ErrIntegrityLost = errors.New("source changed during processing")
	// ErrTransient tags recoverable I/O trouble.
	ErrTransient = errors.New("transient failure")
	// ErrFatal tags conditions the worker cannot continue past.
	ErrFatal = errors.New("fatal failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps a run error to the journal status the driver persists.
// Unrecognized, contended, and exhausted sources are skipped so a later scan
// can pick them up again; everything else is a failure.
func Classify(err error) journal.Status {
	switch {
	case err == nil:
		return journal.StatusDone
	case errors.Is(err, ErrUnrecognized),
		errors.Is(err, ErrContended),
		errors.Is(err, ErrTemplateMiss),
		errors.Is(err, ErrDataAbsent):
		return journal.StatusSkipped
	default:
		return journal.StatusFailed
	}
}

// IsFatal reports whether the worker should stop instead of moving on to the
// next item.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
