package spacer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/niri-spacer/internal/niri"
	"github.com/bnema/niri-spacer/internal/niri/niritest"
)

func newTestWorkspaceManager(t *testing.T, server *niritest.Server) *WorkspaceManager {
	t.Helper()
	client, err := niri.ConnectTo(server.SocketPath())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return NewWorkspaceManager(client)
}

func strPtr(s string) *string    { return &s }
func uint64Ptr(v uint64) *uint64 { return &v }

func TestSuggestStartingIndexPrefersEmptyRun(t *testing.T) {
	server := niritest.Start(t)
	server.SetWorkspaces([]niri.Workspace{
		{ID: 10, Idx: 1, IsFocused: true},
		{ID: 20, Idx: 2},
		{ID: 30, Idx: 3},
		{ID: 40, Idx: 4},
	})
	server.SetWindows([]niri.Window{
		{ID: 1, WorkspaceID: uint64Ptr(10)},
	})
	manager := newTestWorkspaceManager(t, server)

	// Workspaces 2-4 are empty, enough for three spacers.
	start, err := manager.SuggestStartingIndex(3)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), start)
}

func TestSuggestStartingIndexFallsBackToUnusedIndices(t *testing.T) {
	server := niritest.Start(t)
	server.SetWorkspaces([]niri.Workspace{
		{ID: 10, Idx: 1, IsFocused: true},
		{ID: 20, Idx: 2},
		{ID: 30, Idx: 3},
	})
	server.SetWindows([]niri.Window{
		{ID: 1, WorkspaceID: uint64Ptr(10)},
		{ID: 2, WorkspaceID: uint64Ptr(20)},
	})
	manager := newTestWorkspaceManager(t, server)

	// Only workspace 3 is empty, not enough for two spacers, so the
	// first run of unused indices wins.
	start, err := manager.SuggestStartingIndex(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), start)
}

func TestSuggestStartingIndexNoWorkspaces(t *testing.T) {
	server := niritest.Start(t)
	manager := newTestWorkspaceManager(t, server)

	start, err := manager.SuggestStartingIndex(5)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), start)
}

func TestFocusedWorkspace(t *testing.T) {
	server := niritest.Start(t)
	server.SetWorkspaces([]niri.Workspace{
		{ID: 10, Idx: 1},
		{ID: 20, Idx: 2, IsFocused: true},
	})
	manager := newTestWorkspaceManager(t, server)

	ws, err := manager.FocusedWorkspace()
	require.NoError(t, err)
	assert.Equal(t, uint64(20), ws.ID)
}

func TestWorkspaceByIDNotFound(t *testing.T) {
	server := niritest.Start(t)
	manager := newTestWorkspaceManager(t, server)

	_, err := manager.WorkspaceByID(99)
	var notFound *WorkspaceNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, uint64(99), notFound.ID)
}

func TestStats(t *testing.T) {
	server := niritest.Start(t)
	server.SetWorkspaces([]niri.Workspace{
		{ID: 10, Idx: 1, IsFocused: true},
		{ID: 20, Idx: 2},
		{ID: 30, Idx: 3},
	})
	server.SetWindows([]niri.Window{
		{ID: 1, WorkspaceID: uint64Ptr(10), Title: strPtr("editor")},
		{ID: 2, WorkspaceID: uint64Ptr(10), Title: strPtr("terminal")},
		{ID: 3, WorkspaceID: uint64Ptr(20), Title: strPtr("niri-spacer window 1")},
	})
	manager := newTestWorkspaceManager(t, server)

	stats, err := manager.Stats()
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalWorkspaces)
	assert.Equal(t, 1, stats.EmptyWorkspaces)
	assert.Equal(t, 3, stats.TotalWindows)
	assert.Equal(t, 1, stats.SpacerWindows)
	require.NotNil(t, stats.FocusedWorkspaceID)
	assert.Equal(t, uint64(10), *stats.FocusedWorkspaceID)
	assert.Equal(t, "3 workspaces (1 empty), 3 windows (1 spacers), focused: 10", stats.Summary())
}

func TestGoodTilingLayout(t *testing.T) {
	tests := []struct {
		name  string
		stats WorkspaceStats
		want  bool
	}{
		{
			name: "balanced",
			stats: WorkspaceStats{
				TotalWorkspaces:       4,
				EmptyWorkspaces:       1,
				TotalWindows:          6,
				SpacerWindows:         0,
				WorkspaceWindowCounts: map[uint64]int{1: 2, 2: 2, 3: 2},
			},
			want: true,
		},
		{
			name: "overloaded workspaces",
			stats: WorkspaceStats{
				TotalWorkspaces:       2,
				EmptyWorkspaces:       0,
				TotalWindows:          10,
				SpacerWindows:         0,
				WorkspaceWindowCounts: map[uint64]int{1: 5, 2: 5},
			},
			want: false,
		},
		{
			name: "too many empty workspaces",
			stats: WorkspaceStats{
				TotalWorkspaces:       10,
				EmptyWorkspaces:       8,
				TotalWindows:          4,
				SpacerWindows:         0,
				WorkspaceWindowCounts: map[uint64]int{1: 2, 2: 2},
			},
			want: false,
		},
		{
			name: "spacers excluded from average",
			stats: WorkspaceStats{
				TotalWorkspaces:       4,
				EmptyWorkspaces:       0,
				TotalWindows:          8,
				SpacerWindows:         4,
				WorkspaceWindowCounts: map[uint64]int{1: 2, 2: 2, 3: 2, 4: 2},
			},
			want: true,
		},
		{
			name:  "no windows at all",
			stats: WorkspaceStats{TotalWorkspaces: 1, EmptyWorkspaces: 1},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.stats.GoodTilingLayout())
		})
	}
}

func TestSummaryWithoutFocus(t *testing.T) {
	stats := WorkspaceStats{TotalWorkspaces: 2, EmptyWorkspaces: 2}
	assert.Equal(t, "2 workspaces (2 empty), 0 windows (0 spacers), focused: none", stats.Summary())
}
