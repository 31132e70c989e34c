package search

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/karrick/godirwalk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSymlinkMode(t *testing.T) {
	tests := []struct {
		input    string
		expected SymlinkMode
		wantErr  bool
	}{
		{"skip", SymlinkSkip, false},
		{"SKIP", SymlinkSkip, false},
		{"Follow", SymlinkFollow, false},
		{" follow ", SymlinkFollow, false},
		{"", SymlinkSkip, false},
		{"report", SymlinkSkip, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mode, err := ParseSymlinkMode(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, mode)
		})
	}
}

func TestVisitedSet(t *testing.T) {
	v := NewVisitedSet()

	assert.False(t, v.CheckAndMark("/a"))
	assert.True(t, v.CheckAndMark("/a"))
	assert.False(t, v.CheckAndMark("/b"))
	assert.True(t, v.Contains("/b"))
	assert.False(t, v.Contains("/c"))
	assert.Equal(t, 2, v.Len())

	v.CheckAndMark("/a/b")
	v.CheckAndMark("/a/b/c")
	v.CheckAndMark("/ab")
	v.Forget("/a")
	assert.False(t, v.Contains("/a"))
	assert.False(t, v.Contains("/a/b/c"))
	assert.True(t, v.Contains("/ab"))
	assert.True(t, v.Contains("/b"))
}

func TestSkipPolicy(t *testing.T) {
	skipWithoutSymlinks(t)
	root := tempRoot(t)
	makeTree(t, root, "dir")
	require.NoError(t, os.Symlink(filepath.Join(root, "dir"), filepath.Join(root, "link")))

	p := NewSymlinkPolicy(SymlinkSkip)
	assert.Nil(t, p.Visited())

	t.Run("root without entry", func(t *testing.T) {
		c := rootCandidate(filepath.Join(root, "dir"))
		assert.Equal(t, NotSymlink, p.Resolve(&c).Kind)

		c = rootCandidate(filepath.Join(root, "link"))
		assert.Equal(t, SkipSymlink, p.Resolve(&c).Kind)

		c = rootCandidate(filepath.Join(root, "missing"))
		assert.Equal(t, SkipSymlink, p.Resolve(&c).Kind)
	})

	t.Run("cached entries", func(t *testing.T) {
		entries, err := godirwalk.ReadDirents(root, nil)
		require.NoError(t, err)
		require.Len(t, entries, 2)

		parent := rootCandidate(root)
		for _, de := range entries {
			c := parent.child(de)
			res := p.Resolve(&c)
			switch de.Name() {
			case "dir":
				assert.Equal(t, NotSymlink, res.Kind)
			case "link":
				assert.Equal(t, SkipSymlink, res.Kind)
			}
			assert.Equal(t, 1, c.Depth)
			assert.Equal(t, de.Name(), c.Name())
		}
	})
}

func TestFollowPolicy(t *testing.T) {
	skipWithoutSymlinks(t)
	root := tempRoot(t)
	makeTree(t, root, "dir")
	target := filepath.Join(root, "dir")
	require.NoError(t, os.Symlink(target, filepath.Join(root, "link")))
	require.NoError(t, os.Symlink("dir", filepath.Join(root, "relative")))
	require.NoError(t, os.Symlink(filepath.Join(root, "gone"), filepath.Join(root, "broken")))

	t.Run("link rewrites path", func(t *testing.T) {
		p := NewSymlinkPolicy(SymlinkFollow)
		c := Candidate{Path: filepath.Join(root, "link"), Depth: 1}

		res := p.Resolve(&c)
		assert.Equal(t, FollowSymlink, res.Kind)
		assert.Equal(t, target, res.RealPath)
		assert.Equal(t, target, c.Path)
		assert.True(t, p.Visited().Contains(target))
	})

	t.Run("relative link resolves against its directory", func(t *testing.T) {
		p := NewSymlinkPolicy(SymlinkFollow)
		c := Candidate{Path: filepath.Join(root, "relative"), Depth: 1}

		res := p.Resolve(&c)
		assert.Equal(t, FollowSymlink, res.Kind)
		assert.Equal(t, target, c.Path)
	})

	t.Run("second route is already traversed", func(t *testing.T) {
		p := NewSymlinkPolicy(SymlinkFollow)

		c := Candidate{Path: target, Depth: 1}
		assert.Equal(t, NotSymlink, p.Resolve(&c).Kind)
		assert.Equal(t, target, c.Path)

		c = Candidate{Path: filepath.Join(root, "link"), Depth: 1}
		res := p.Resolve(&c)
		assert.Equal(t, AlreadyTraversed, res.Kind)
		assert.Equal(t, target, res.RealPath)

		c = Candidate{Path: target, Depth: 2}
		assert.Equal(t, AlreadyTraversed, p.Resolve(&c).Kind)
	})

	t.Run("broken link", func(t *testing.T) {
		p := NewSymlinkPolicy(SymlinkFollow)
		c := Candidate{Path: filepath.Join(root, "broken"), Depth: 1}

		res := p.Resolve(&c)
		assert.Equal(t, ResolveError, res.Kind)
		assert.Error(t, res.Err)
		assert.Equal(t, filepath.Join(root, "broken"), c.Path)
	})

	t.Run("missing path", func(t *testing.T) {
		p := NewSymlinkPolicy(SymlinkFollow)
		c := Candidate{Path: filepath.Join(root, "nothing-here"), Depth: 1}

		res := p.Resolve(&c)
		assert.Equal(t, ResolveError, res.Kind)
		assert.Zero(t, p.Visited().Len())
	})
}

func TestResolutionKindString(t *testing.T) {
	assert.Equal(t, "follow-symlink", FollowSymlink.String())
	assert.Equal(t, "already-traversed", AlreadyTraversed.String())
	assert.Equal(t, "ResolutionKind(42)", ResolutionKind(42).String())
	assert.Equal(t, "follow", SymlinkFollow.String())
}

func TestDepthAllowed(t *testing.T) {
	assert.True(t, depthAllowed(3, 3))
	assert.False(t, depthAllowed(4, 3))
	assert.True(t, depthAllowed(1000, UnlimitedDepth))
	assert.True(t, depthAllowed(0, 0))
}
