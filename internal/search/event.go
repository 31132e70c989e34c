package search

import (
	"context"
	"fmt"
)

// Level is the severity of a diagnostic event.
type Level int8

const (
	LevelInfo  Level = iota // Shown only when verbose
	LevelWarn               // Shown only when verbose
	LevelError              // Always shown
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// EventKind distinguishes matches from diagnostics.
type EventKind int

const (
	EventMatch EventKind = iota
	EventDiagnostic
)

// Event is emitted by the walk for every match and every diagnostic.
type Event struct {
	Kind    EventKind
	Path    string // Repository root for matches, subject path for diagnostics
	Depth   int    // Depth of Path below the search root
	Level   Level  // Diagnostics only
	Message string // Diagnostics only
	Err     error  // Underlying error, if any
}

func (e Event) String() string {
	if e.Kind == EventMatch {
		return e.Path
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Level, e.Message, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Level, e.Message, e.Path)
}

// Handler receives events in discovery order. A non-nil error stops the walk.
type Handler func(ctx context.Context, ev Event) error

// Collector is a Handler target that records events in memory.
type Collector struct {
	Matches     []string
	Diagnostics []Event
}

// Handle implements Handler.
func (c *Collector) Handle(_ context.Context, ev Event) error {
	if ev.Kind == EventMatch {
		c.Matches = append(c.Matches, ev.Path)
		return nil
	}
	c.Diagnostics = append(c.Diagnostics, ev)
	return nil
}
