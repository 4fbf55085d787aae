package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"javtidy/internal/config"
	"javtidy/internal/journal"
	"javtidy/internal/language"
	"javtidy/internal/lockfile"
	"javtidy/internal/logging"
	"javtidy/internal/nameparse"
	"javtidy/internal/naming"
	"javtidy/internal/record"
	"javtidy/internal/script"
	"javtidy/internal/sidecar"
	"javtidy/internal/template"
	"javtidy/internal/txn"
)

// maxConflictSuffix bounds destination conflict probing before the run fails.
const maxConflictSuffix = 999

// Outcome summarizes one finished run.
type Outcome struct {
	RunID             string
	CatalogID         string
	Template          string
	Status            journal.Status
	Destination       string
	LinkSubstitutions int
}

// Driver runs source files through the pipeline. It is safe for concurrent
// use; each Process call owns its own state.
type Driver struct {
	cfg       *config.Config
	templates []*template.Workflow
	fetcher   template.Fetcher
	journal   *journal.Store
	layout    *naming.Layout
	parser    *nameparse.Parser
	log       *slog.Logger
}

// New wires a driver from validated configuration. The journal store may be
// nil, in which case history and the failure budget are not tracked.
func New(cfg *config.Config, templates []*template.Workflow, fetcher template.Fetcher, store *journal.Store, log *slog.Logger) (*Driver, error) {
	if len(templates) == 0 {
		return nil, Wrap(ErrFatal, "setup", "templates", "no workflow templates loaded", nil)
	}
	strategy, err := naming.ParseStrategy(cfg.Naming.MultiActorStrategy)
	if err != nil {
		return nil, Wrap(ErrFatal, "setup", "naming", "", err)
	}
	layout, err := naming.New(cfg.Naming.Template, strategy)
	if err != nil {
		return nil, Wrap(ErrFatal, "setup", "naming", "", err)
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Driver{
		cfg:       cfg,
		templates: templates,
		fetcher:   fetcher,
		journal:   store,
		layout:    layout,
		parser:    nameparse.New(cfg.Process.IgnoredIDPatterns),
		log:       logging.NewComponentLogger(log, "driver"),
	}, nil
}

// Process runs one source file to a terminal state. The returned error is
// already journaled and classified; callers use IsFatal to decide whether the
// worker should stop.
func (d *Driver) Process(ctx context.Context, source string) (*Outcome, error) {
	run := &journal.Run{ID: uuid.NewString(), SourcePath: source}
	out := &Outcome{RunID: run.ID}

	ctx = logging.ContextWithRunID(ctx, run.ID)
	deadline := time.Duration(d.cfg.Process.LockTimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	if d.journal != nil {
		if err := d.journal.StartRun(ctx, run); err != nil {
			d.log.Warn("journal start failed", slog.Any("error", err))
		}
	}

	err := d.run(ctx, source, run, out)
	out.Status = Classify(err)
	run.Status = out.Status
	run.CatalogID = out.CatalogID
	run.Template = out.Template
	run.Destination = out.Destination
	if err != nil {
		run.ErrorMessage = err.Error()
	}
	if d.journal != nil {
		if jerr := d.journal.FinishRun(context.WithoutCancel(ctx), run); jerr != nil {
			d.log.Warn("journal finish failed", slog.Any("error", jerr))
		}
	}

	log := logging.WithContext(ctx, d.log).With(slog.String(logging.FieldPath, source))
	switch {
	case err == nil:
		log.Info("processed",
			slog.String(logging.FieldCatalogID, out.CatalogID),
			slog.String(logging.FieldTemplate, out.Template),
			slog.String("destination", out.Destination))
	case out.Status == journal.StatusSkipped:
		log.Warn("skipped", slog.Any("reason", err))
	default:
		log.Error("run failed", slog.Any("error", err))
	}
	return out, err
}

func (d *Driver) run(ctx context.Context, source string, run *journal.Run, out *Outcome) error {
	if d.journal != nil {
		count, err := d.journal.FailureCount(ctx, source)
		if err != nil {
			return Wrap(ErrTransient, "queued", "failure count", "", err)
		}
		if count >= d.cfg.Process.MaximumFetchCount {
			return Wrap(ErrDataAbsent, "queued", "failure budget",
				fmt.Sprintf("already failed %d times", count), nil)
		}
	}

	staleAfter := time.Duration(d.cfg.Process.LockTimeoutSeconds) * time.Second
	lock, err := lockfile.Acquire(source, staleAfter)
	if err != nil {
		if errors.Is(err, lockfile.ErrContended) {
			return Wrap(ErrContended, "locking", "acquire", "", err)
		}
		return Wrap(ErrTransient, "locking", "acquire", "", err)
	}
	defer func() {
		if rerr := lock.Release(); rerr != nil {
			logging.WithContext(ctx, d.log).Warn("lock release failed", slog.Any("error", rerr))
		}
	}()

	id, ok := d.parser.Extract(source)
	if !ok {
		return Wrap(ErrUnrecognized, "parsing", "extract", filepath.Base(source), nil)
	}
	out.CatalogID = id
	ctx = logging.ContextWithCatalogID(ctx, id)
	log := logging.WithContext(ctx, d.log)

	witness, err := lockfile.Observe(source)
	if err != nil {
		return Wrap(ErrTransient, "parsing", "observe", "", err)
	}

	rec, tmplName, err := d.scrape(ctx, id, witness, log)
	if err != nil {
		return err
	}
	out.Template = tmplName

	return d.commit(ctx, source, rec, witness, out, log)
}

// scrape tries templates in priority order. Misses and incomplete records
// move on to the next template; an integrity mismatch stops the run.
func (d *Driver) scrape(ctx context.Context, id string, witness *lockfile.Witness, log *slog.Logger) (*record.Record, string, error) {
	bindings := script.Env{"crawl_name": {id}}
	for _, wf := range d.templates {
		res, err := wf.Run(ctx, d.fetcher, bindings, log)
		if err != nil {
			if ctx.Err() != nil {
				return nil, "", Wrap(ErrTransient, "scraping", wf.Name, "deadline", ctx.Err())
			}
			if errors.Is(err, template.ErrNoMatch) {
				log.Debug("template missed", slog.String(logging.FieldTemplate, wf.Name))
			} else {
				log.Warn("template attempt failed",
					slog.String(logging.FieldTemplate, wf.Name), slog.Any("error", err))
			}
			continue
		}
		if err := witness.Verify(); err != nil {
			return nil, "", Wrap(ErrIntegrityLost, "scraping", wf.Name, "", err)
		}
		rec, err := record.FromResult(id, res)
		if err != nil {
			log.Debug("template record incomplete",
				slog.String(logging.FieldTemplate, wf.Name), slog.Any("error", err))
			continue
		}
		return rec, wf.Name, nil
	}
	return nil, "", Wrap(ErrDataAbsent, "scraping", "", fmt.Sprintf("%d templates exhausted", len(d.templates)), nil)
}

func (d *Driver) commit(ctx context.Context, source string, rec *record.Record, witness *lockfile.Witness, out *Outcome, log *slog.Logger) error {
	ext := filepath.Ext(source)

	plan := d.layout.Plan(rec)
	stem, err := d.resolveConflict(plan, ext)
	if err != nil {
		return err
	}
	destDir := filepath.Join(d.cfg.Paths.OutputDir, filepath.FromSlash(plan.Dir))
	videoDst := filepath.Join(destDir, stem+ext)

	tx := txn.Begin(log)
	defer tx.Abort()
	if d.journal != nil {
		tx.SetBackupRecorder(d.journal)
	}

	tx.MkdirAll(destDir)
	nfo, err := renderSidecar(rec)
	if err != nil {
		return Wrap(ErrFatal, "staging", "sidecar", "", err)
	}
	tx.WriteFile(filepath.Join(destDir, stem+".nfo"), nfo, false)
	tx.Move(source, videoDst)

	if d.cfg.Subtitles.Migrate {
		subs, err := d.findSubtitles(rec.ID, source)
		if err != nil {
			log.Warn("subtitle scan failed", slog.Any("error", err))
		}
		for i, sub := range subs {
			lang := language.FromFileName(sub)
			if lang == "" {
				lang = d.cfg.Subtitles.Language
			}
			name := stem + "." + lang + filepath.Ext(sub)
			if i > 0 {
				name = fmt.Sprintf("%s.%s.%d%s", stem, lang, i, filepath.Ext(sub))
			}
			tx.Move(sub, filepath.Join(destDir, name))
		}
	}

	d.stageLinks(tx, plan, videoDst, ext, log)

	if err := witness.Verify(); err != nil {
		return Wrap(ErrIntegrityLost, "staging", "pre-commit check", "", err)
	}
	if err := tx.Commit(); err != nil {
		return Wrap(ErrTransient, "committing", "", "", err)
	}
	out.LinkSubstitutions = tx.LinkSubstitutions()
	out.Destination = videoDst

	info, err := os.Stat(videoDst)
	if err != nil {
		return Wrap(ErrFatal, "committing", "post-commit check", "destination missing", err)
	}
	if info.Size() != witness.Size() {
		return Wrap(ErrFatal, "committing", "post-commit check",
			fmt.Sprintf("destination size %d, expected %d", info.Size(), witness.Size()), nil)
	}
	return nil
}

// resolveConflict returns a destination stem that does not collide with an
// existing video or sidecar, appending " (1)" through " (999)" when needed.
func (d *Driver) resolveConflict(plan naming.Plan, ext string) (string, error) {
	dir := filepath.Join(d.cfg.Paths.OutputDir, filepath.FromSlash(plan.Dir))
	free := func(stem string) bool {
		for _, name := range []string{stem + ext, stem + ".nfo"} {
			if _, err := os.Lstat(filepath.Join(dir, name)); err == nil {
				return false
			}
		}
		return true
	}
	if free(plan.Stem) {
		return plan.Stem, nil
	}
	for i := 1; i <= maxConflictSuffix; i++ {
		stem := fmt.Sprintf("%s (%d)", plan.Stem, i)
		if free(stem) {
			return stem, nil
		}
	}
	return "", Wrap(ErrFatal, "staging", "destination",
		fmt.Sprintf("%s: %d conflict suffixes exhausted", plan.Stem, maxConflictSuffix), nil)
}

// stageLinks adds one link per alternative actor path. An occupied link
// destination is skipped rather than failing the whole transaction.
func (d *Driver) stageLinks(tx *txn.Txn, plan naming.Plan, videoDst, ext string, log *slog.Logger) {
	hard := d.cfg.Naming.MultiActorStrategy == string(naming.Hardlink)
	for _, link := range plan.Links {
		linkDir := filepath.Join(d.cfg.Paths.OutputDir, filepath.FromSlash(link.Dir))
		linkPath := filepath.Join(linkDir, link.Stem+ext)
		if _, err := os.Lstat(linkPath); err == nil {
			log.Warn("actor link destination occupied", slog.String(logging.FieldPath, linkPath))
			continue
		}
		tx.MkdirAll(linkDir)
		if hard {
			tx.Hardlink(videoDst, linkPath)
		} else {
			tx.Symlink(videoDst, linkPath)
		}
	}
}

func renderSidecar(rec *record.Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := sidecar.Write(&buf, rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
