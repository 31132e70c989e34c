package walk

import (
	"context"

	internal "github.com/TFMV/fgr/internal/search"
)

// Re-export the types from the internal package
type (
	// Options configures a walk.
	Options = internal.Options

	// Candidate is a directory waiting on the walk stack.
	Candidate = internal.Candidate

	// Event is a match or a diagnostic produced by a walk.
	Event = internal.Event

	// EventKind distinguishes matches from diagnostics.
	EventKind = internal.EventKind

	// Level is the severity of a diagnostic.
	Level = internal.Level

	// Handler receives events in discovery order.
	Handler = internal.Handler

	// Stats holds counters for a single walk.
	Stats = internal.Stats

	// SymlinkMode selects how symbolic links are treated.
	SymlinkMode = internal.SymlinkMode

	// Validator confirms a repository in paranoid mode.
	Validator = internal.Validator

	// ValidatorFunc adapts a function to Validator.
	ValidatorFunc = internal.ValidatorFunc

	// GitValidator runs git rev-parse HEAD.
	GitValidator = internal.GitValidator

	// WatchOptions configures a watch session.
	WatchOptions = internal.WatchOptions

	// MatchMessage describes a reported repository.
	MatchMessage = internal.MatchMessage

	// StartupError is a fatal problem found before walking begins.
	StartupError = internal.StartupError
)

// Re-export the constants
const (
	DefaultMaxDepth = internal.DefaultMaxDepth
	UnlimitedDepth  = internal.UnlimitedDepth

	SymlinkSkip   = internal.SymlinkSkip
	SymlinkFollow = internal.SymlinkFollow

	EventMatch      = internal.EventMatch
	EventDiagnostic = internal.EventDiagnostic

	LevelInfo  = internal.LevelInfo
	LevelWarn  = internal.LevelWarn
	LevelError = internal.LevelError
)

// Re-export the sentinel errors
var (
	ErrInvalidRepository    = internal.ErrInvalidRepository
	ErrValidatorUnavailable = internal.ErrValidatorUnavailable
)

// DefaultOptions returns options for walking root with the CLI defaults.
func DefaultOptions(root string) Options {
	return internal.DefaultOptions(root)
}

// Walk searches opts.Root for repository roots, sending each event to handler.
func Walk(ctx context.Context, opts Options, handler Handler) (Stats, error) {
	return internal.Walk(ctx, opts, handler)
}

// Find walks opts.Root and returns the repository roots in discovery order.
func Find(ctx context.Context, opts Options) ([]string, error) {
	return internal.Find(ctx, opts)
}

// Watch scans opts.Root and keeps reporting repositories created afterwards.
func Watch(ctx context.Context, opts Options, wopts WatchOptions, handler Handler) (Stats, error) {
	return internal.Watch(ctx, opts, wopts, handler)
}

// ResolveRoot turns a user-supplied root into a canonical directory path.
func ResolveRoot(arg string) (string, error) {
	return internal.ResolveRoot(arg)
}

// ParseSymlinkMode parses "skip" or "follow", ignoring case.
func ParseSymlinkMode(s string) (SymlinkMode, error) {
	return internal.ParseSymlinkMode(s)
}

// IsRepo reports whether dir holds a .git directory, running the git
// validator as well when paranoid is set.
func IsRepo(ctx context.Context, dir string, paranoid bool) (bool, error) {
	return internal.NewDetector(paranoid, nil).IsRepo(ctx, dir)
}
