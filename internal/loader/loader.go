package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	appLog "orgcal/internal/log"
)

// ErrTooLarge is wrapped by a FileReadError for files over Options.MaxFileBytes.
var ErrTooLarge = errors.New("file exceeds size limit")

// Options controls which files a Loader picks up.
type Options struct {
	// Include and Exclude are doublestar patterns matched against the base
	// name of each entry. A file is loaded when it matches at least one
	// Include pattern and no Exclude pattern.
	Include []string
	Exclude []string
	// MaxFileBytes caps the size of a single file. Zero means no limit.
	MaxFileBytes int64
}

// File is the raw text of one loaded file.
type File struct {
	Filename string
	RawText  string
}

// FileReadError reports a file that was matched but could not be loaded.
type FileReadError struct {
	Filename string
	Err      error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Filename, e.Err)
}

func (e *FileReadError) Unwrap() error { return e.Err }

// Result is the outcome of loading one directory.
type Result struct {
	Files    []File
	Failures []*FileReadError
}

// Loader reads the Org files of a single directory.
type Loader struct {
	opts Options
}

// New creates a Loader. An empty Include list matches every name.
func New(opts Options) *Loader {
	if len(opts.Include) == 0 {
		opts.Include = []string{"*"}
	}
	return &Loader{opts: opts}
}

// Load reads every matching regular file directly inside dir.
//
// Subdirectories and other non-regular entries are skipped. Files that
// cannot be read are reported in Result.Failures and left out; only a
// directory that cannot be listed fails the call. Files are returned in
// name order.
func (l *Loader) Load(ctx context.Context, dir string) (Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Result{}, fmt.Errorf("list %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() && e.Type()&os.ModeSymlink == 0 {
			continue
		}
		if !l.Match(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}

	files := make([]File, len(names))
	errs := make([]error, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := l.readFile(filepath.Join(dir, name))
			files[i] = File{Filename: name, RawText: text}
			errs[i] = err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var res Result
	for i, name := range names {
		if errs[i] == nil {
			res.Files = append(res.Files, files[i])
			continue
		}
		if errors.Is(errs[i], errSkip) {
			continue
		}
		failure := &FileReadError{Filename: name, Err: errs[i]}
		appLog.Warn("org file skipped", "file", name, "error", errs[i].Error())
		res.Failures = append(res.Failures, failure)
	}

	appLog.Debug("org directory loaded", "dir", dir, "files", len(res.Files), "failures", len(res.Failures))
	return res, nil
}

// Match reports whether a base name passes the include and exclude patterns.
func (l *Loader) Match(name string) bool {
	if strings.ContainsRune(name, filepath.Separator) {
		name = filepath.Base(name)
	}
	if !matchAny(l.opts.Include, name) {
		return false
	}
	return !matchAny(l.opts.Exclude, name)
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

// errSkip marks entries that turned out not to be regular files, such as
// symlinks to directories or FIFOs. They are dropped without a failure.
var errSkip = errors.New("not a regular file")

func (l *Loader) readFile(path string) (string, error) {
	// Opening a FIFO or device blocks, so the type is checked before Open.
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", errSkip
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	// The entry may have been replaced since the first Stat.
	info, err = f.Stat()
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", errSkip
	}
	if l.opts.MaxFileBytes > 0 && info.Size() > l.opts.MaxFileBytes {
		return "", fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, info.Size(), l.opts.MaxFileBytes)
	}

	var r io.Reader = f
	if l.opts.MaxFileBytes > 0 {
		// The file may grow between Stat and Read.
		r = io.LimitReader(f, l.opts.MaxFileBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if l.opts.MaxFileBytes > 0 && int64(len(data)) > l.opts.MaxFileBytes {
		return "", fmt.Errorf("%w: more than %d bytes", ErrTooLarge, l.opts.MaxFileBytes)
	}
	return string(data), nil
}
