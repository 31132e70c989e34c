// Package search locates git repository roots within a directory tree.
//
// The traversal is a single-threaded depth-first walk driven by an explicit
// stack. Once a directory is reported as a repository its subtree is pruned,
// so repositories vendored inside another repository are never reported.
package search

import (
	"path/filepath"

	"github.com/karrick/godirwalk"
)

// DefaultMaxDepth is the depth ceiling used when none is configured.
const DefaultMaxDepth = 10

// UnlimitedDepth removes the depth ceiling.
const UnlimitedDepth = -1

// Candidate is a directory waiting on the walk stack.
type Candidate struct {
	Path  string           // Working path; replaced by the real path when a link is followed
	Depth int              // Distance from the search root, which is at depth 0
	Entry *godirwalk.Dirent // Entry metadata from the parent listing, nil for the root
}

// rootCandidate creates the candidate the walk is seeded with.
func rootCandidate(root string) Candidate {
	return Candidate{Path: root, Depth: 0}
}

// child creates the candidate for a subdirectory entry of c.
func (c Candidate) child(de *godirwalk.Dirent) Candidate {
	return Candidate{
		Path:  filepath.Join(c.Path, de.Name()),
		Depth: c.Depth + 1,
		Entry: de,
	}
}

// Name returns the base name of the candidate.
func (c Candidate) Name() string {
	if c.Entry != nil {
		return c.Entry.Name()
	}
	return filepath.Base(c.Path)
}

// depthAllowed reports whether a candidate at depth may be pushed.
func depthAllowed(depth, maxDepth int) bool {
	return maxDepth < 0 || depth <= maxDepth
}
