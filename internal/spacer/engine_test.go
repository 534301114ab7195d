package spacer

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/niri-spacer/internal/config"
	"github.com/bnema/niri-spacer/internal/niri"
	"github.com/bnema/niri-spacer/internal/niri/niritest"
	"github.com/bnema/niri-spacer/internal/wayland"
)

// fakeBackend stands in for the Wayland event loop. Created windows
// are mirrored into the fake compositor's window list so correlation
// can find them.
type fakeBackend struct {
	server *niritest.Server

	// workspaceFor assigns the niri workspace id the nth created
	// window (1-based) lands on.
	workspaceFor func(n int) uint64

	// failAfter makes CreateWindow fail once this many windows exist.
	failAfter int

	mu      sync.Mutex
	created int
	windows []niri.Window
	events  chan wayland.Event
}

func newFakeBackend(server *niritest.Server, workspaceFor func(n int) uint64) *fakeBackend {
	return &fakeBackend{
		server:       server,
		workspaceFor: workspaceFor,
		failAfter:    -1,
		events:       make(chan wayland.Event, 16),
	}
}

func (b *fakeBackend) CreateWindow(appID, title string, color config.Color) (uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failAfter >= 0 && b.created >= b.failAfter {
		return 0, errors.New("compositor refused the surface")
	}
	b.created++

	localID := uint32(b.created)
	windowID := uint64(1000 + b.created)
	workspaceID := b.workspaceFor(b.created)
	id, t := appID, title
	b.windows = append(b.windows, niri.Window{
		ID:          windowID,
		AppID:       &id,
		Title:       &t,
		WorkspaceID: &workspaceID,
	})
	b.server.SetWindows(append([]niri.Window(nil), b.windows...))
	return localID, nil
}

func (b *fakeBackend) CloseWindow(localID uint32) error {
	return nil
}

func (b *fakeBackend) CloseAllWindows() {}

func (b *fakeBackend) Events() <-chan wayland.Event {
	return b.events
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig
	cfg.Spacer.SpawnDelayMS = 0
	cfg.Spacer.OperationDelayMS = 0
	cfg.Native.CorrelationTimeoutMS = 2000
	return &cfg
}

func testWorkspaces() []niri.Workspace {
	return []niri.Workspace{
		{ID: 10, Idx: 1, IsFocused: true, IsActive: true},
		{ID: 50, Idx: 5},
		{ID: 60, Idx: 6},
	}
}

func newTestManager(t *testing.T, backend *fakeBackend, server *niritest.Server) *Manager {
	t.Helper()
	client, err := niri.ConnectTo(server.SocketPath())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	manager, err := NewManager(client, backend, testConfig())
	require.NoError(t, err)
	return manager
}

func TestCreateSpacerPlacesAndTracks(t *testing.T) {
	server := niritest.Start(t)
	server.SetWorkspaces(testWorkspaces())
	backend := newFakeBackend(server, func(int) uint64 { return 50 })
	manager := newTestManager(t, backend, server)

	spacer, err := manager.CreateSpacer(1, 5)
	require.NoError(t, err)

	assert.Equal(t, 1, spacer.Number)
	assert.Equal(t, uint64(1001), spacer.WindowID)
	assert.Equal(t, uint64(5), spacer.WorkspaceIdx)
	assert.Contains(t, spacer.AppID, "niri-spacer-native-1-")

	names := server.ActionNames()
	// Already on the right workspace, so no move; resize then pin.
	assert.Equal(t, []string{
		"SetWindowWidth",
		"FocusWorkspace",
		"FocusWindow",
		"MoveColumnToFirst",
	}, names)

	require.Len(t, manager.ActiveSpacers(), 1)
	assert.True(t, manager.IsSpacer(1001))
	assert.False(t, manager.IsSpacer(999))
}

func TestCreateSpacerMovesFromWrongWorkspace(t *testing.T) {
	server := niritest.Start(t)
	server.SetWorkspaces(testWorkspaces())
	// The window spawns on workspace idx 1 and must be moved to 5. The
	// fake compositor never applies moves, so the drift check retries
	// its whole budget and gives up with a warning.
	backend := newFakeBackend(server, func(int) uint64 { return 10 })
	manager := newTestManager(t, backend, server)

	spacer, err := manager.CreateSpacer(1, 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), spacer.WorkspaceIdx)

	moves := 0
	for _, name := range server.ActionNames() {
		if name == "MoveWindowToWorkspace" {
			moves++
		}
	}
	// One initial move plus one per drift attempt.
	assert.Equal(t, 1+workspaceDriftAttempts, moves)
}

func TestCreateSpacerCorrelationTimeout(t *testing.T) {
	server := niritest.Start(t)
	server.SetWorkspaces(testWorkspaces())

	client, err := niri.ConnectTo(server.SocketPath())
	require.NoError(t, err)
	defer client.Close()

	cfg := testConfig()
	cfg.Native.CorrelationTimeoutMS = 150
	manager, err := NewManager(client, &timeoutBackend{events: make(chan wayland.Event)}, cfg)
	require.NoError(t, err)

	start := time.Now()
	_, err = manager.CreateSpacer(1, 5)
	require.Error(t, err)

	var timeoutErr *CorrelationTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 150*time.Millisecond, timeoutErr.Timeout)
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
	assert.Empty(t, manager.ActiveSpacers())
}

// timeoutBackend creates windows that never show up in niri.
type timeoutBackend struct {
	events chan wayland.Event
}

func (b *timeoutBackend) CreateWindow(string, string, config.Color) (uint32, error) {
	return 1, nil
}

func (b *timeoutBackend) CloseWindow(uint32) error { return nil }

func (b *timeoutBackend) CloseAllWindows() {}

func (b *timeoutBackend) Events() <-chan wayland.Event { return b.events }

func TestCreateBatch(t *testing.T) {
	server := niritest.Start(t)
	server.SetWorkspaces(testWorkspaces())
	backend := newFakeBackend(server, func(n int) uint64 {
		return []uint64{50, 60}[n-1]
	})
	manager := newTestManager(t, backend, server)

	created, err := manager.CreateBatch(2, 5)
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, uint64(5), created[0].WorkspaceIdx)
	assert.Equal(t, uint64(6), created[1].WorkspaceIdx)

	// The originally focused workspace is restored at the end.
	names := server.ActionNames()
	require.NotEmpty(t, names)
	assert.Equal(t, "FocusWorkspace", names[len(names)-1])
	last := server.Actions()[len(names)-1]
	focus, ok := last.(niri.FocusWorkspace)
	require.True(t, ok)
	assert.Equal(t, niri.WorkspaceIndex(1), focus.Reference)
}

func TestCreateBatchAbortKeepsCreated(t *testing.T) {
	server := niritest.Start(t)
	server.SetWorkspaces(testWorkspaces())
	backend := newFakeBackend(server, func(n int) uint64 {
		return []uint64{50, 60}[n-1]
	})
	backend.failAfter = 1
	manager := newTestManager(t, backend, server)

	created, err := manager.CreateBatch(2, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spacer 2 failed")
	require.Len(t, created, 1)
	assert.Equal(t, uint64(5), created[0].WorkspaceIdx)
	require.Len(t, manager.ActiveSpacers(), 1)
}

func TestCreateBatchRejectsBadCounts(t *testing.T) {
	server := niritest.Start(t)
	backend := newFakeBackend(server, func(int) uint64 { return 50 })
	manager := newTestManager(t, backend, server)

	for _, count := range []int{0, -1, config.MaxWindowCount + 1} {
		_, err := manager.CreateBatch(count, 1)
		assert.Error(t, err, "count %d", count)
	}
	assert.Empty(t, server.Actions())
}

func TestValidateSpacers(t *testing.T) {
	server := niritest.Start(t)
	server.SetWorkspaces(testWorkspaces())
	backend := newFakeBackend(server, func(int) uint64 { return 50 })
	manager := newTestManager(t, backend, server)

	_, err := manager.CreateSpacer(1, 5)
	require.NoError(t, err)
	require.NoError(t, manager.ValidateSpacers())

	// The compositor loses the window.
	server.SetWindows([]niri.Window{})
	err = manager.ValidateSpacers()
	require.Error(t, err)
	var notFound *niri.WindowNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, uint64(1001), notFound.ID)
}

func TestCleanupForgetsSpacers(t *testing.T) {
	server := niritest.Start(t)
	server.SetWorkspaces(testWorkspaces())
	backend := newFakeBackend(server, func(int) uint64 { return 50 })
	manager := newTestManager(t, backend, server)

	_, err := manager.CreateSpacer(1, 5)
	require.NoError(t, err)
	require.Len(t, manager.ActiveSpacers(), 1)

	manager.Cleanup()
	assert.Empty(t, manager.ActiveSpacers())
	assert.NoError(t, manager.ValidateSpacers())
}

func TestGenerateAppIDUnique(t *testing.T) {
	server := niritest.Start(t)
	backend := newFakeBackend(server, func(int) uint64 { return 50 })
	manager := newTestManager(t, backend, server)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		id := manager.generateAppID(1)
		require.False(t, seen[id], "duplicate app id %s", id)
		seen[id] = true
		assert.Contains(t, id, fmt.Sprintf("%s-1-", manager.cfg.Native.AppIDPrefix))
	}
}
