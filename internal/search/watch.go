package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatchOptions configures a watch session.
type WatchOptions struct {
	// Timeout ends the session after this duration (0 means no timeout).
	Timeout time.Duration

	// Ready, when set, is called once the initial scan is complete and the
	// watches are in place.
	Ready func()
}

// watchSession tracks one Watch call. Events are handled one at a time on
// the goroutine that called Watch.
type watchSession struct {
	opts     Options
	watcher  *fsnotify.Watcher
	detector *Detector
	policy   *SymlinkPolicy // Shared by every scan, so follow mode lists each real directory once
	handler  Handler
	logger   *zap.Logger
	depths   map[string]int      // Watched directory -> depth below the session root
	pending  map[string]int      // Watched .git of a rejected directory -> depth of that directory
	reported map[string]struct{} // Repository roots already reported this session
	stats    Stats
}

// Watch scans opts.Root like Walk and then keeps watching every directory the
// scan descended into, reporting repositories that appear afterwards. In
// paranoid mode the .git directory of a rejected candidate is watched too,
// and the candidate is checked again whenever that .git changes. Each
// repository root is reported at most once per session. Watch returns when
// ctx is done, the timeout elapses or handler fails.
func Watch(ctx context.Context, opts Options, wopts WatchOptions, handler Handler) (Stats, error) {
	if handler == nil {
		return Stats{}, errors.New("search: nil handler")
	}

	if wopts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wopts.Timeout)
		defer cancel()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return Stats{}, fmt.Errorf("error creating watcher: %w", err)
	}
	defer watcher.Close()

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &watchSession{
		opts:     opts,
		watcher:  watcher,
		detector: NewDetector(opts.Paranoid, opts.Validator),
		policy:   NewSymlinkPolicy(opts.Symlinks),
		handler:  handler,
		logger:   logger,
		depths:   make(map[string]int),
		pending:  make(map[string]int),
		reported: make(map[string]struct{}),
	}

	if err := s.scan(ctx, opts.Root, 0); err != nil {
		return s.result(), ignoreDone(err)
	}
	logger.Debug("watching", zap.Int("directories", len(s.depths)))

	if wopts.Ready != nil {
		wopts.Ready()
	}

	for {
		select {
		case <-ctx.Done():
			return s.result(), nil

		case event, ok := <-watcher.Events:
			if !ok {
				return s.result(), nil
			}
			if err := s.handleEvent(ctx, event); err != nil {
				return s.result(), ignoreDone(err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return s.result(), nil
			}
			if err := s.emit(ctx, Event{Kind: EventDiagnostic, Path: opts.Root, Level: LevelWarn, Message: "watcher error", Err: err}); err != nil {
				return s.result(), ignoreDone(err)
			}
		}
	}
}

// scan walks dir, which sits at depth below the session root, and watches
// every directory the walk descends into.
func (s *watchSession) scan(ctx context.Context, dir string, depth int) error {
	sub := s.opts
	sub.Root = dir
	if sub.MaxDepth >= 0 {
		sub.MaxDepth -= depth
	}
	sub.OnDescend = func(c Candidate) {
		s.watch(ctx, c.Path, depth+c.Depth)
	}
	sub.OnReject = func(c Candidate, _ error) {
		s.watchRejected(ctx, c.Path, depth+c.Depth)
	}

	stats, err := walkWith(ctx, sub, s.policy, func(ctx context.Context, ev Event) error {
		ev.Depth += depth
		return s.emit(ctx, ev)
	})
	s.stats.Add(stats)
	return err
}

func (s *watchSession) watch(ctx context.Context, dir string, depth int) {
	if _, ok := s.depths[dir]; ok {
		return
	}
	if err := s.watcher.Add(dir); err != nil {
		s.logger.Debug("watch failed", zap.String("path", dir), zap.Error(err))
		_ = s.emit(ctx, Event{Kind: EventDiagnostic, Path: dir, Depth: depth, Level: LevelWarn, Message: "error watching directory", Err: err})
		return
	}
	s.depths[dir] = depth
}

// watchRejected watches the .git directory of dir, a candidate the
// validator rejected, so that it can be checked again later.
func (s *watchSession) watchRejected(ctx context.Context, dir string, depth int) {
	gitDir := filepath.Join(dir, GitDirName)
	if _, ok := s.pending[gitDir]; ok {
		return
	}
	if err := s.watcher.Add(gitDir); err != nil {
		_ = s.emit(ctx, Event{Kind: EventDiagnostic, Path: gitDir, Depth: depth, Level: LevelWarn, Message: "error watching directory", Err: err})
		return
	}
	s.pending[gitDir] = depth
}

// unwatch drops dir and every watched directory below it.
func (s *watchSession) unwatch(dir string) {
	prefix := dir + string(filepath.Separator)
	below := func(path string) bool {
		return path == dir || strings.HasPrefix(path, prefix)
	}

	for path := range s.depths {
		if below(path) {
			_ = s.watcher.Remove(path)
			delete(s.depths, path)
		}
	}
	for path := range s.pending {
		if below(path) {
			_ = s.watcher.Remove(path)
			delete(s.pending, path)
		}
	}
	if v := s.policy.Visited(); v != nil {
		v.Forget(dir)
	}
}

func (s *watchSession) handleEvent(ctx context.Context, event fsnotify.Event) error {
	gitDir := filepath.Dir(event.Name)
	if depth, ok := s.pending[gitDir]; ok && event.Op != fsnotify.Chmod {
		return s.recheck(ctx, gitDir, depth)
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		s.unwatch(event.Name)
		return nil
	}
	if !event.Has(fsnotify.Create) {
		return nil
	}

	info, err := os.Stat(event.Name)
	if err != nil || !info.IsDir() {
		return nil
	}

	parent := filepath.Dir(event.Name)
	parentDepth, ok := s.depths[parent]
	if !ok {
		return nil
	}

	name := filepath.Base(event.Name)
	if name == GitDirName {
		return s.checkNewRepo(ctx, parent, parentDepth)
	}

	if ShouldSkip(name, s.opts.ShowAll) || !depthAllowed(parentDepth+1, s.opts.MaxDepth) {
		return nil
	}
	return s.scan(ctx, event.Name, parentDepth+1)
}

// checkNewRepo handles a .git directory created inside a watched directory.
func (s *watchSession) checkNewRepo(ctx context.Context, dir string, depth int) error {
	ok, reason := s.detector.Confirm(ctx, dir)
	if !ok {
		s.stats.ParanoidRejected++
		level := LevelInfo
		if errors.Is(reason, ErrValidatorUnavailable) {
			level = LevelError
		}
		// A rejected directory is not recursed into; only its .git stays watched.
		if !s.opts.DescendRejected {
			s.unwatch(dir)
		}
		s.watchRejected(ctx, dir, depth)
		return s.emit(ctx, Event{Kind: EventDiagnostic, Path: dir, Depth: depth, Level: level, Message: "paranoid: not a valid repository", Err: reason})
	}

	// The directory is now a repository, so nothing below it is watched.
	s.unwatch(dir)
	return s.emit(ctx, Event{Kind: EventMatch, Path: dir, Depth: depth})
}

// recheck runs the validator again for the directory owning gitDir after a
// change inside gitDir, reporting it once it is accepted.
func (s *watchSession) recheck(ctx context.Context, gitDir string, depth int) error {
	dir := filepath.Dir(gitDir)
	if ok, _ := s.detector.Confirm(ctx, dir); !ok {
		return nil
	}
	s.logger.Debug("repository accepted on recheck", zap.String("path", dir))
	s.unwatch(dir)
	return s.emit(ctx, Event{Kind: EventMatch, Path: dir, Depth: depth})
}

// emit forwards ev to the handler, dropping repeated matches.
func (s *watchSession) emit(ctx context.Context, ev Event) error {
	if ev.Kind == EventMatch {
		if _, dup := s.reported[ev.Path]; dup {
			return nil
		}
		s.reported[ev.Path] = struct{}{}
	}
	return s.handler(ctx, ev)
}

// result returns the session stats with matches counted once per root.
func (s *watchSession) result() Stats {
	stats := s.stats
	stats.Matches = int64(len(s.reported))
	return stats
}

func ignoreDone(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
