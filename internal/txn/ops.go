package txn

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"javtidy/internal/fileutil"
)

// MkdirAll stages creation of dir and any missing parents.
func (t *Txn) MkdirAll(dir string) {
	t.add(&mkdirOp{dir: dir})
}

// WriteFile stages an atomic write of data to path (temp file, fsync,
// rename). Refuses to replace an existing file unless clobber is set.
func (t *Txn) WriteFile(path string, data []byte, clobber bool) {
	t.add(&writeOp{path: path, data: data, clobber: clobber})
}

// Move stages a move of src to dst. An existing dst is parked under a backup
// name and restored if the transaction aborts.
func (t *Txn) Move(src, dst string) {
	t.add(&moveOp{src: src, dst: dst})
}

// Hardlink stages a hard link to target at linkPath, falling back to a
// symlink when the filesystem refuses.
func (t *Txn) Hardlink(target, linkPath string) {
	t.add(&linkOp{target: target, linkPath: linkPath, hard: true})
}

// Symlink stages a symbolic link to target at linkPath.
func (t *Txn) Symlink(target, linkPath string) {
	t.add(&linkOp{target: target, linkPath: linkPath})
}

type mkdirOp struct {
	dir string
}

func (o *mkdirOp) describe() string { return "mkdir " + o.dir }
func (o *mkdirOp) finalize(*Txn)    {}

func (o *mkdirOp) apply(*Txn) (func() error, error) {
	created, err := missingAncestors(o.dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		return nil, err
	}
	undo := func() error {
		for i := len(created) - 1; i >= 0; i-- {
			if err := os.Remove(created[i]); err != nil && !os.IsNotExist(err) {
				// a sibling arrived meanwhile, leave the directory
				return nil
			}
		}
		return nil
	}
	return undo, nil
}

// missingAncestors lists the directories MkdirAll would create, shallowest
// first.
func missingAncestors(dir string) ([]string, error) {
	var missing []string
	for cur := dir; ; cur = filepath.Dir(cur) {
		_, err := os.Stat(cur)
		if err == nil {
			break
		}
		if !os.IsNotExist(err) {
			return nil, err
		}
		missing = append(missing, cur)
		if parent := filepath.Dir(cur); parent == cur {
			break
		}
	}
	for i, j := 0, len(missing)-1; i < j; i, j = i+1, j-1 {
		missing[i], missing[j] = missing[j], missing[i]
	}
	return missing, nil
}

type writeOp struct {
	path    string
	data    []byte
	clobber bool
	backup  string
}

func (o *writeOp) describe() string { return "write " + o.path }

func (o *writeOp) apply(t *Txn) (func() error, error) {
	if _, err := os.Stat(o.path); err == nil {
		if !o.clobber {
			return nil, fmt.Errorf("destination exists: %s", o.path)
		}
		o.backup = t.backupName(o.path)
		if err := os.Rename(o.path, o.backup); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	tmp := o.path + ".tmp"
	if err := writeSync(tmp, o.data); err != nil {
		os.Remove(tmp)
		return nil, err
	}
	if err := os.Rename(tmp, o.path); err != nil {
		os.Remove(tmp)
		return nil, err
	}
	undo := func() error {
		if err := os.Remove(o.path); err != nil && !os.IsNotExist(err) {
			return err
		}
		if o.backup != "" {
			if err := os.Rename(o.backup, o.path); err != nil {
				return err
			}
			t.resolveBackup(o.backup)
		}
		return nil
	}
	return undo, nil
}

func (o *writeOp) finalize(t *Txn) {
	if o.backup != "" {
		if err := os.Remove(o.backup); err != nil && !os.IsNotExist(err) {
			t.log.Warn("leftover backup not removed", slog.String("path", o.backup), slog.Any("error", err))
			return
		}
		t.resolveBackup(o.backup)
	}
}

func writeSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type moveOp struct {
	src    string
	dst    string
	backup string
}

func (o *moveOp) describe() string { return fmt.Sprintf("move %s -> %s", o.src, o.dst) }

func (o *moveOp) apply(t *Txn) (func() error, error) {
	if _, err := os.Stat(o.dst); err == nil {
		o.backup = t.backupName(o.dst)
		if err := os.Rename(o.dst, o.backup); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if err := fileutil.Move(o.src, o.dst); err != nil {
		if o.backup != "" {
			if restoreErr := os.Rename(o.backup, o.dst); restoreErr != nil {
				t.log.Error("backup restore failed",
					slog.String("backup", o.backup), slog.Any("error", restoreErr))
			} else {
				t.resolveBackup(o.backup)
			}
			o.backup = ""
		}
		return nil, err
	}
	undo := func() error {
		if err := fileutil.Move(o.dst, o.src); err != nil {
			return err
		}
		if o.backup != "" {
			if err := os.Rename(o.backup, o.dst); err != nil {
				return err
			}
			t.resolveBackup(o.backup)
		}
		return nil
	}
	return undo, nil
}

func (o *moveOp) finalize(t *Txn) {
	if o.backup != "" {
		if err := os.Remove(o.backup); err != nil && !os.IsNotExist(err) {
			t.log.Warn("leftover backup not removed", slog.String("path", o.backup), slog.Any("error", err))
			return
		}
		t.resolveBackup(o.backup)
	}
}

type linkOp struct {
	target   string
	linkPath string
	hard     bool
}

func (o *linkOp) describe() string {
	kind := "symlink"
	if o.hard {
		kind = "hardlink"
	}
	return fmt.Sprintf("%s %s -> %s", kind, o.linkPath, o.target)
}
func (o *linkOp) finalize(*Txn) {}

func (o *linkOp) apply(t *Txn) (func() error, error) {
	if _, err := os.Lstat(o.linkPath); err == nil {
		return nil, fmt.Errorf("destination exists: %s", o.linkPath)
	}
	if o.hard {
		if err := os.Link(o.target, o.linkPath); err == nil {
			return func() error { return removeIfPresent(o.linkPath) }, nil
		}
		t.linkSubs++
		t.log.Warn("hardlink refused, using symlink",
			slog.String("target", o.target), slog.String("link", o.linkPath))
	}
	if err := os.Symlink(o.target, o.linkPath); err != nil {
		return nil, err
	}
	return func() error { return removeIfPresent(o.linkPath) }, nil
}

func removeIfPresent(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
