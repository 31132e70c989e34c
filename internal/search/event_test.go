package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestEventString(t *testing.T) {
	assert.Equal(t, "/src/app", Event{Kind: EventMatch, Path: "/src/app"}.String())
	assert.Equal(t, "info: skipping symlink: /src/link",
		Event{Kind: EventDiagnostic, Path: "/src/link", Level: LevelInfo, Message: "skipping symlink"}.String())
	assert.Equal(t, "error: can't walk directory: /src/x: denied",
		Event{Kind: EventDiagnostic, Path: "/src/x", Level: LevelError, Message: "can't walk directory", Err: errors.New("denied")}.String())
	assert.Equal(t, "Level(9)", Level(9).String())
}

func TestCollector(t *testing.T) {
	var c Collector
	ctx := context.Background()

	require.NoError(t, c.Handle(ctx, Event{Kind: EventMatch, Path: "/a"}))
	require.NoError(t, c.Handle(ctx, Event{Kind: EventDiagnostic, Path: "/b", Level: LevelWarn}))
	require.NoError(t, c.Handle(ctx, Event{Kind: EventMatch, Path: "/c"}))

	assert.Equal(t, []string{"/a", "/c"}, c.Matches)
	require.Len(t, c.Diagnostics, 1)
	assert.Equal(t, "/b", c.Diagnostics[0].Path)
}

func TestStats(t *testing.T) {
	a := Stats{DirsScanned: 3, Matches: 1, ReadErrors: 1, ElapsedTime: time.Second}
	a.Add(Stats{DirsScanned: 2, Matches: 2, ResolveErrors: 1, Pruned: 4, ElapsedTime: time.Second})

	assert.Equal(t, Stats{DirsScanned: 5, Matches: 3, ReadErrors: 1, ResolveErrors: 1, Pruned: 4, ElapsedTime: 2 * time.Second}, a)
	assert.Equal(t, "3 repositories, 5 directories scanned, 0 symlinks skipped, 0 already traversed, 2 errors in 2s", a.String())

	core, logs := observer.New(zap.InfoLevel)
	zap.New(core).Info("done", zap.Object("stats", a))
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()["stats"].(map[string]interface{})
	assert.Equal(t, int64(5), fields["dirs_scanned"])
	assert.Equal(t, int64(4), fields["pruned"])
}
