package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/karrick/godirwalk"
	"go.uber.org/zap"
)

// scratchBufferSize is the buffer handed to godirwalk for reading listings.
const scratchBufferSize = 64 * 1024

// Options configures a walk. It is not modified by the walk.
type Options struct {
	Root            string      // Directory the search starts from
	Symlinks        SymlinkMode // Skip (default) or follow links
	ShowAll         bool        // Recurse into hidden directories too
	Paranoid        bool        // Confirm each .git directory with the Validator
	MaxDepth        int         // Deepest directory admitted; UnlimitedDepth for no ceiling
	DescendRejected bool        // Keep scanning below a directory the Validator rejected
	Validator       Validator   // Paranoid check, git rev-parse HEAD when nil
	Logger          *zap.Logger // Debug logging of the walk itself, no-op when nil

	// OnDescend, when set, is called for each directory whose subdirectories
	// were considered for recursion.
	OnDescend func(c Candidate)

	// OnReject, when set, is called for each directory whose .git directory
	// the Validator rejected.
	OnReject func(c Candidate, reason error)
}

// DefaultOptions returns options for walking root with the CLI defaults.
func DefaultOptions(root string) Options {
	return Options{
		Root:     root,
		Symlinks: SymlinkSkip,
		MaxDepth: DefaultMaxDepth,
	}
}

// walker owns the mutable state of exactly one walk.
type walker struct {
	opts     Options
	policy   *SymlinkPolicy
	detector *Detector
	handler  Handler
	logger   *zap.Logger
	stats    Stats
	scratch  []byte
}

// Walk searches opts.Root for repository roots, sending every match and
// diagnostic to handler. Recoverable errors become diagnostics; only
// cancellation of ctx or an error from handler ends the walk early.
func Walk(ctx context.Context, opts Options, handler Handler) (Stats, error) {
	return walkWith(ctx, opts, NewSymlinkPolicy(opts.Symlinks), handler)
}

// walkWith runs a walk with an existing policy, so that several walks can
// share one VisitedSet.
func walkWith(ctx context.Context, opts Options, policy *SymlinkPolicy, handler Handler) (Stats, error) {
	if handler == nil {
		return Stats{}, errors.New("search: nil handler")
	}
	if opts.Root == "" {
		return Stats{}, errors.New("search: empty root")
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &walker{
		opts:     opts,
		policy:   policy,
		detector: NewDetector(opts.Paranoid, opts.Validator),
		handler:  handler,
		logger:   logger,
		scratch:  make([]byte, scratchBufferSize),
	}

	logger.Debug("starting walk",
		zap.String("root", opts.Root),
		zap.Stringer("symlinks", opts.Symlinks),
		zap.Int("max_depth", opts.MaxDepth),
		zap.Bool("show_all", opts.ShowAll),
		zap.Bool("paranoid", opts.Paranoid),
	)

	start := time.Now()
	err := w.run(ctx)
	w.stats.ElapsedTime = time.Since(start)

	logger.Debug("walk finished", zap.Object("stats", w.stats), zap.Error(err))
	return w.stats, err
}

func (w *walker) run(ctx context.Context) error {
	stack := []Candidate{rootCandidate(w.opts.Root)}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		proceed, err := w.resolve(ctx, &c)
		if err != nil {
			return err
		}
		if !proceed {
			continue
		}

		entries, err := godirwalk.ReadDirents(c.Path, w.scratch)
		if err != nil {
			w.stats.ReadErrors++
			if err := w.diagnostic(ctx, c, LevelError, "can't walk directory", err); err != nil {
				return err
			}
			continue
		}
		w.stats.DirsScanned++

		checkpoint := len(stack)
		descend := true

		for _, de := range entries {
			name := de.Name()

			isDir, err := de.IsDirOrSymlinkToDir()
			if err != nil {
				if err := w.diagnostic(ctx, c.child(de), LevelInfo, "can't stat entry", err); err != nil {
					return err
				}
				continue
			}
			if !isDir {
				continue
			}

			if name == GitDirName {
				matched, err := w.confirm(ctx, c)
				if err != nil {
					return err
				}
				if matched {
					descend = false
					break
				}
				if !w.opts.DescendRejected {
					descend = false
					break
				}
				continue
			}

			if ShouldSkip(name, w.opts.ShowAll) {
				continue
			}
			if !depthAllowed(c.Depth+1, w.opts.MaxDepth) {
				continue
			}
			stack = append(stack, c.child(de))
		}

		if !descend {
			// Backtrack: nothing below this directory is visited.
			w.stats.Pruned += int64(len(stack) - checkpoint)
			stack = stack[:checkpoint]
			continue
		}

		if w.opts.OnDescend != nil {
			w.opts.OnDescend(c)
		}
	}

	return nil
}

// resolve applies the symlink policy to c and reports whether to list it.
func (w *walker) resolve(ctx context.Context, c *Candidate) (bool, error) {
	res := w.policy.Resolve(c)

	switch res.Kind {
	case NotSymlink, FollowSymlink:
		return true, nil
	case SkipSymlink:
		w.stats.SymlinksSkipped++
		return false, w.diagnostic(ctx, *c, LevelInfo, "skipping symlink", nil)
	case AlreadyTraversed:
		w.stats.AlreadyTraversed++
		return false, w.diagnostic(ctx, *c, LevelInfo, "skipping already traversed directory", nil)
	case ResolveError:
		w.stats.ResolveErrors++
		return false, w.diagnostic(ctx, *c, LevelWarn, "can't resolve symlink target", res.Err)
	default:
		return false, fmt.Errorf("search: unhandled resolution %s for %s", res.Kind, c.Path)
	}
}

// confirm evaluates the match rule for a directory whose listing contains
// .git and reports the match. A false result means the validator rejected it.
func (w *walker) confirm(ctx context.Context, c Candidate) (bool, error) {
	if w.detector.Paranoid {
		if err := w.diagnostic(ctx, c, LevelInfo, "paranoid: checking", nil); err != nil {
			return false, err
		}
	}

	ok, reason := w.detector.Confirm(ctx, c.Path)
	if !ok {
		w.stats.ParanoidRejected++
		level := LevelInfo
		if errors.Is(reason, ErrValidatorUnavailable) {
			level = LevelError
		}
		if err := w.diagnostic(ctx, c, level, "paranoid: not a valid repository", reason); err != nil {
			return false, err
		}
		if w.opts.OnReject != nil {
			w.opts.OnReject(c, reason)
		}
		return false, nil
	}

	w.stats.Matches++
	return true, w.handler(ctx, Event{Kind: EventMatch, Path: c.Path, Depth: c.Depth})
}

func (w *walker) diagnostic(ctx context.Context, c Candidate, level Level, msg string, err error) error {
	return w.handler(ctx, Event{
		Kind:    EventDiagnostic,
		Path:    c.Path,
		Depth:   c.Depth,
		Level:   level,
		Message: msg,
		Err:     err,
	})
}

// Find walks opts.Root and returns the repository roots in discovery order.
// Diagnostics are dropped except that errors are joined into the result.
func Find(ctx context.Context, opts Options) ([]string, error) {
	var (
		matches []string
		errs    []error
	)
	_, err := Walk(ctx, opts, func(_ context.Context, ev Event) error {
		switch {
		case ev.Kind == EventMatch:
			matches = append(matches, ev.Path)
		case ev.Level == LevelError:
			errs = append(errs, fmt.Errorf("%s %s: %w", ev.Message, ev.Path, ev.Err))
		}
		return nil
	})
	if err != nil {
		errs = append(errs, err)
	}
	return matches, errors.Join(errs...)
}
