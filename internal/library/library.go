package library

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"orgcal/internal/agenda"
	"orgcal/internal/loader"
	appLog "orgcal/internal/log"
	"orgcal/internal/model"
	"orgcal/internal/outline"
)

// Snapshot is one consistent view of the document directory. Snapshots are
// never modified after they are published.
type Snapshot struct {
	Dir         string
	Documents   []model.Document
	Agenda      agenda.Agenda
	Failures    []*loader.FileReadError
	ParseErrors []*outline.ParseError
	LoadedAt    time.Time
}

// Document returns the loaded document named filename.
func (s *Snapshot) Document(filename string) (model.Document, bool) {
	for _, d := range s.Documents {
		if d.Filename == filename {
			return d, true
		}
	}
	return model.Document{}, false
}

// Library owns the current Snapshot of one directory and replaces it on
// Reload. Readers call Snapshot and keep using the returned value; they never
// see a reload in progress.
type Library struct {
	dir    string
	loader *loader.Loader
	parser *outline.Parser
	now    func() time.Time
	log    zerolog.Logger

	mu      sync.Mutex // serializes Reload
	current atomic.Pointer[Snapshot]

	subMu sync.Mutex
	subs  map[chan *Snapshot]struct{}
}

// New creates a Library for dir. Nothing is read until the first Reload.
func New(dir string, ld *loader.Loader, parser *outline.Parser) *Library {
	l := &Library{
		dir:    dir,
		loader: ld,
		parser: parser,
		now:    time.Now,
		log:    appLog.Logger("library"),
		subs:   make(map[chan *Snapshot]struct{}),
	}
	l.current.Store(&Snapshot{Dir: dir})
	return l
}

// Snapshot returns the most recently published snapshot. Before the first
// successful Reload it is empty.
func (l *Library) Snapshot() *Snapshot {
	return l.current.Load()
}

// Reload reads and parses the directory, builds the agenda and publishes
// the result. Concurrent calls run one after another.
//
// Unreadable files and documents that fail to parse are recorded in the
// snapshot. Only a directory that cannot be listed fails the reload, and the
// previous snapshot then stays current.
func (l *Library) Reload(ctx context.Context) (*Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := time.Now()

	res, err := l.loader.Load(ctx, l.dir)
	if err != nil {
		l.log.Error().Err(err).Str("dir", l.dir).Msg("reload failed; keeping previous snapshot")
		return l.current.Load(), err
	}

	snap := &Snapshot{
		Dir:       l.dir,
		Documents: make([]model.Document, 0, len(res.Files)),
		Failures:  res.Failures,
		LoadedAt:  l.now(),
	}

	for _, f := range res.Files {
		doc, err := l.parser.Parse(f.Filename, f.RawText)
		if err != nil {
			var perr *outline.ParseError
			if !errors.As(err, &perr) {
				perr = &outline.ParseError{Filename: f.Filename, Reason: err.Error()}
			}
			l.log.Warn().Err(err).Str("file", f.Filename).Msg("document kept without headlines")
			snap.ParseErrors = append(snap.ParseErrors, perr)
			doc = model.Document{Filename: f.Filename, RawText: f.RawText}
		}
		snap.Documents = append(snap.Documents, doc)
	}

	snap.Agenda = agenda.Build(snap.Documents)

	l.current.Store(snap)
	l.publish(snap)

	l.log.Info().
		Int("documents", len(snap.Documents)).
		Int("entries", len(snap.Agenda.Entries)).
		Int("skipped", snap.Agenda.SkippedCount()).
		Int("failures", len(snap.Failures)+len(snap.ParseErrors)).
		Dur("took", time.Since(start)).
		Msg("library reloaded")

	for _, s := range snap.Agenda.Skipped {
		l.log.Debug().
			Err(s.Err).
			Str("file", s.Filename).
			Int("line", s.Line).
			Str("slot", s.Slot.String()).
			Msg("annotation skipped")
	}

	return snap, nil
}

// Subscribe returns a channel that receives each newly published snapshot.
// Only the latest snapshot is buffered; a slow reader misses intermediate
// ones. The channel is closed when ctx is done.
func (l *Library) Subscribe(ctx context.Context) <-chan *Snapshot {
	ch := make(chan *Snapshot, 1)

	l.subMu.Lock()
	l.subs[ch] = struct{}{}
	l.subMu.Unlock()

	go func() {
		<-ctx.Done()
		l.subMu.Lock()
		delete(l.subs, ch)
		close(ch)
		l.subMu.Unlock()
	}()

	return ch
}

func (l *Library) publish(snap *Snapshot) {
	l.subMu.Lock()
	defer l.subMu.Unlock()

	for ch := range l.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}
