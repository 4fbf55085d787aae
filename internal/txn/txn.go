// Package txn stages ordered filesystem operations and commits them with
// rollback. Destructive steps park the displaced file under a .backup.<epoch>
// name until the whole batch succeeds, so an abort or crash can always get
// back to the pre-commit state.
package txn

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrAborted wraps the step failure that triggered a rollback.
var ErrAborted = errors.New("txn: aborted")

// State is the lifecycle of one transaction.
type State int

const (
	StateOpen State = iota
	StateCommitted
	StateAborted
)

type operation interface {
	// apply performs the step and returns an undo closure for rollback.
	apply(t *Txn) (undo func() error, err error)
	describe() string
	// finalize runs after every step applied, typically dropping backups.
	finalize(t *Txn)
}

// BackupRecorder is told about every backup file a transaction parks and
// resolves, so leftovers from a crash can be found without a full tree walk.
type BackupRecorder interface {
	BackupCreated(path string)
	BackupResolved(path string)
}

// Txn is an ordered batch of filesystem operations.
type Txn struct {
	ops      []operation
	state    State
	log      *slog.Logger
	now      func() time.Time
	applied  []appliedOp
	linkSubs int
	rec      BackupRecorder
}

type appliedOp struct {
	op   operation
	undo func() error
}

// Begin opens an empty transaction.
func Begin(log *slog.Logger) *Txn {
	return &Txn{log: log, now: time.Now}
}

// State reports the transaction lifecycle state.
func (t *Txn) State() State { return t.state }

// SetBackupRecorder registers a recorder that is notified about parked and
// resolved backup files. Must be called before Commit.
func (t *Txn) SetBackupRecorder(rec BackupRecorder) {
	if t.state != StateOpen {
		panic("txn: recorder set after commit or abort")
	}
	t.rec = rec
}

// LinkSubstitutions counts hardlink steps that fell back to symlinks.
func (t *Txn) LinkSubstitutions() int { return t.linkSubs }

func (t *Txn) add(op operation) {
	if t.state != StateOpen {
		panic("txn: add after commit or abort")
	}
	t.ops = append(t.ops, op)
}

// Commit executes the staged operations in insertion order. On step failure
// every already-applied step is undone and the error is returned wrapped in
// ErrAborted.
func (t *Txn) Commit() error {
	if t.state != StateOpen {
		return fmt.Errorf("txn: commit in state %d", t.state)
	}
	for _, op := range t.ops {
		undo, err := op.apply(t)
		if err != nil {
			t.log.Error("transaction step failed, rolling back",
				slog.String("step", op.describe()), slog.Any("error", err))
			t.rollback()
			return fmt.Errorf("%w: %s: %v", ErrAborted, op.describe(), err)
		}
		t.applied = append(t.applied, appliedOp{op: op, undo: undo})
	}
	for _, a := range t.applied {
		a.op.finalize(t)
	}
	t.state = StateCommitted
	return nil
}

// Abort rolls back every applied step. Safe to call on an open transaction
// that was never committed; a no-op after Commit succeeded.
func (t *Txn) Abort() {
	if t.state != StateOpen {
		return
	}
	t.rollback()
}

func (t *Txn) rollback() {
	for i := len(t.applied) - 1; i >= 0; i-- {
		a := t.applied[i]
		if a.undo == nil {
			continue
		}
		if err := a.undo(); err != nil {
			t.log.Error("rollback step failed, manual reconciliation needed",
				slog.String("step", a.op.describe()), slog.Any("error", err))
		}
	}
	t.applied = nil
	t.state = StateAborted
}

func (t *Txn) backupName(path string) string {
	name := fmt.Sprintf("%s.backup.%d", path, t.now().Unix())
	if t.rec != nil {
		t.rec.BackupCreated(name)
	}
	return name
}

func (t *Txn) resolveBackup(path string) {
	if t.rec != nil && path != "" {
		t.rec.BackupResolved(path)
	}
}
