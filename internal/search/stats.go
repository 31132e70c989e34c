package search

import (
	"fmt"
	"time"

	"go.uber.org/zap/zapcore"
)

// Stats holds counters for a single walk.
type Stats struct {
	DirsScanned      int64         `json:"dirs_scanned"`      // Directories whose listing was read
	Matches          int64         `json:"matches"`           // Repository roots reported
	SymlinksSkipped  int64         `json:"symlinks_skipped"`  // Candidates classified SkipSymlink
	AlreadyTraversed int64         `json:"already_traversed"` // Candidates whose real path was seen before
	ResolveErrors    int64         `json:"resolve_errors"`    // Links that could not be resolved
	ReadErrors       int64         `json:"read_errors"`       // Directories that could not be listed
	ParanoidRejected int64         `json:"paranoid_rejected"` // .git directories rejected by the validator
	Pruned           int64         `json:"pruned"`            // Queued children discarded on a match
	ElapsedTime      time.Duration `json:"elapsed"`           // Total time elapsed
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.DirsScanned += o.DirsScanned
	s.Matches += o.Matches
	s.SymlinksSkipped += o.SymlinksSkipped
	s.AlreadyTraversed += o.AlreadyTraversed
	s.ResolveErrors += o.ResolveErrors
	s.ReadErrors += o.ReadErrors
	s.ParanoidRejected += o.ParanoidRejected
	s.Pruned += o.Pruned
	s.ElapsedTime += o.ElapsedTime
}

func (s Stats) String() string {
	return fmt.Sprintf("%d repositories, %d directories scanned, %d symlinks skipped, %d already traversed, %d errors in %s",
		s.Matches, s.DirsScanned, s.SymlinksSkipped, s.AlreadyTraversed, s.ResolveErrors+s.ReadErrors, s.ElapsedTime.Round(time.Millisecond))
}

// MarshalLogObject lets Stats be logged with zap.Object.
func (s Stats) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt64("dirs_scanned", s.DirsScanned)
	enc.AddInt64("matches", s.Matches)
	enc.AddInt64("symlinks_skipped", s.SymlinksSkipped)
	enc.AddInt64("already_traversed", s.AlreadyTraversed)
	enc.AddInt64("resolve_errors", s.ResolveErrors)
	enc.AddInt64("read_errors", s.ReadErrors)
	enc.AddInt64("paranoid_rejected", s.ParanoidRejected)
	enc.AddInt64("pruned", s.Pruned)
	enc.AddDuration("elapsed", s.ElapsedTime)
	return nil
}
