package search

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// SymlinkMode selects how symbolic links are treated during a walk.
type SymlinkMode int

const (
	SymlinkSkip   SymlinkMode = iota // Never enter links (default)
	SymlinkFollow                    // Follow links, breaking cycles with a VisitedSet
)

func (m SymlinkMode) String() string {
	switch m {
	case SymlinkSkip:
		return "skip"
	case SymlinkFollow:
		return "follow"
	default:
		return fmt.Sprintf("SymlinkMode(%d)", int(m))
	}
}

// ParseSymlinkMode parses "skip" or "follow", ignoring case.
func ParseSymlinkMode(s string) (SymlinkMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return SymlinkSkip, nil
	case "follow":
		return SymlinkFollow, nil
	default:
		return SymlinkSkip, fmt.Errorf("invalid symlink strategy %q (expected skip or follow)", s)
	}
}

// ResolutionKind tags the outcome of resolving a candidate.
type ResolutionKind int

const (
	NotSymlink       ResolutionKind = iota // Ordinary directory, walk it
	SkipSymlink                            // Link or unknown entry type under skip mode
	FollowSymlink                          // Link followed to RealPath
	AlreadyTraversed                       // Real path was seen earlier in this walk
	ResolveError                           // Link could not be read or canonicalised
)

func (k ResolutionKind) String() string {
	switch k {
	case NotSymlink:
		return "not-symlink"
	case SkipSymlink:
		return "skip-symlink"
	case FollowSymlink:
		return "follow-symlink"
	case AlreadyTraversed:
		return "already-traversed"
	case ResolveError:
		return "resolve-error"
	default:
		return fmt.Sprintf("ResolutionKind(%d)", int(k))
	}
}

// Resolution is the outcome of SymlinkPolicy.Resolve.
type Resolution struct {
	Kind     ResolutionKind
	RealPath string // Set for FollowSymlink and AlreadyTraversed
	Err      error  // Set for ResolveError
}

// VisitedSet records canonical directory paths seen during one walk.
// It only grows while a walk runs.
type VisitedSet struct {
	seen map[string]struct{}
}

// NewVisitedSet returns an empty set.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{seen: make(map[string]struct{})}
}

// CheckAndMark marks path as seen and reports whether it was seen before.
func (v *VisitedSet) CheckAndMark(path string) bool {
	if _, ok := v.seen[path]; ok {
		return true
	}
	v.seen[path] = struct{}{}
	return false
}

// Contains reports whether path has been marked.
func (v *VisitedSet) Contains(path string) bool {
	_, ok := v.seen[path]
	return ok
}

// Forget unmarks path and every path below it. A single walk never calls
// it; a watch session does when a directory is removed.
func (v *VisitedSet) Forget(path string) {
	prefix := path + string(filepath.Separator)
	for p := range v.seen {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(v.seen, p)
		}
	}
}

// Len returns the number of marked paths.
func (v *VisitedSet) Len() int {
	return len(v.seen)
}

// SymlinkPolicy decides whether a candidate is walked and, in follow mode,
// tracks visited real paths so that link cycles terminate.
type SymlinkPolicy struct {
	mode    SymlinkMode
	visited *VisitedSet
}

// NewSymlinkPolicy creates a policy with a fresh VisitedSet.
func NewSymlinkPolicy(mode SymlinkMode) *SymlinkPolicy {
	p := &SymlinkPolicy{mode: mode}
	if mode == SymlinkFollow {
		p.visited = NewVisitedSet()
	}
	return p
}

// Mode returns the policy's mode.
func (p *SymlinkPolicy) Mode() SymlinkMode {
	return p.mode
}

// Visited returns the policy's VisitedSet, nil under skip mode.
func (p *SymlinkPolicy) Visited() *VisitedSet {
	return p.visited
}

// Resolve classifies c. When a link is followed, c.Path is replaced by the
// canonical real path so that listing, detection and reporting all act on
// the link target.
func (p *SymlinkPolicy) Resolve(c *Candidate) Resolution {
	if p.mode == SymlinkFollow {
		return p.follow(c)
	}
	return p.skip(c)
}

func (p *SymlinkPolicy) skip(c *Candidate) Resolution {
	var mode os.FileMode
	if c.Entry != nil {
		mode = c.Entry.ModeType()
	} else {
		info, err := os.Lstat(c.Path)
		if err != nil {
			// Unreadable metadata is treated like a link.
			return Resolution{Kind: SkipSymlink}
		}
		mode = info.Mode()
	}

	// Sockets, pipes and devices are handled like links too.
	if !mode.IsDir() && !mode.IsRegular() {
		return Resolution{Kind: SkipSymlink}
	}
	return Resolution{Kind: NotSymlink}
}

func (p *SymlinkPolicy) follow(c *Candidate) Resolution {
	if _, err := os.Readlink(c.Path); err != nil {
		if !isNotLink(c.Path, err) {
			return Resolution{Kind: ResolveError, Err: fmt.Errorf("read link %s: %w", c.Path, err)}
		}

		real, err := canonicalPath(c.Path)
		if err != nil {
			return Resolution{Kind: ResolveError, Err: err}
		}
		if p.visited.CheckAndMark(real) {
			return Resolution{Kind: AlreadyTraversed, RealPath: real}
		}
		return Resolution{Kind: NotSymlink}
	}

	real, err := canonicalPath(c.Path)
	if err != nil {
		return Resolution{Kind: ResolveError, Err: err}
	}
	c.Path = real
	if p.visited.CheckAndMark(real) {
		return Resolution{Kind: AlreadyTraversed, RealPath: real}
	}
	return Resolution{Kind: FollowSymlink, RealPath: real}
}

// canonicalPath returns the absolute, symlink-free form of path.
func canonicalPath(path string) (string, error) {
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", fmt.Errorf("canonicalize %s: %w", path, err)
	}
	abs, err := filepath.Abs(real)
	if err != nil {
		return "", fmt.Errorf("canonicalize %s: %w", path, err)
	}
	return abs, nil
}

// isNotLink reports whether a failed readlink means path is simply not a link.
func isNotLink(path string, err error) bool {
	if errors.Is(err, syscall.EINVAL) {
		return true
	}
	info, lerr := os.Lstat(path)
	return lerr == nil && info.Mode()&os.ModeSymlink == 0
}
