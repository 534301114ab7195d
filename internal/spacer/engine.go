// Package spacer creates and supervises spacer windows: native Wayland
// toplevels that get correlated with their niri window ids, parked on
// target workspaces and pinned to the first column.
package spacer

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bnema/niri-spacer/internal/config"
	"github.com/bnema/niri-spacer/internal/logger"
	"github.com/bnema/niri-spacer/internal/niri"
	"github.com/bnema/niri-spacer/internal/wayland"
)

// Retry budgets for placement verification.
const (
	workspaceDriftAttempts = 3
	columnDriftAttempts    = 5
	correlationPollDelay   = 100 * time.Millisecond
	columnFallbackMoves    = 5
)

// SpacerWindow is one tracked spacer, correlated across both worlds.
type SpacerWindow struct {
	Number       int
	LocalID      uint32
	WindowID     uint64
	AppID        string
	WorkspaceIdx uint64
}

// NativeBackend is the surface subsystem the engine drives. Satisfied
// by *wayland.EventLoop.
type NativeBackend interface {
	CreateWindow(appID, title string, color config.Color) (uint32, error)
	CloseWindow(localID uint32) error
	CloseAllWindows()
	Events() <-chan wayland.Event
}

// Manager is the correlation and placement engine.
type Manager struct {
	client *niri.Client
	native NativeBackend
	cfg    *config.Config
	color  config.Color

	mu      sync.Mutex
	spacers []SpacerWindow
}

// NewManager builds an engine over an existing IPC client and native
// backend.
func NewManager(client *niri.Client, native NativeBackend, cfg *config.Config) (*Manager, error) {
	color, err := config.ParseColor(cfg.Native.BackgroundColor)
	if err != nil {
		return nil, err
	}
	return &Manager{
		client: client,
		native: native,
		cfg:    cfg,
		color:  color,
	}, nil
}

// ActiveSpacers returns a copy of the tracked spacers.
func (m *Manager) ActiveSpacers() []SpacerWindow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SpacerWindow(nil), m.spacers...)
}

// IsSpacer reports whether a niri window id belongs to a tracked
// spacer.
func (m *Manager) IsSpacer(windowID uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, spacer := range m.spacers {
		if spacer.WindowID == windowID {
			return true
		}
	}
	return false
}

func (m *Manager) operationDelay() time.Duration {
	return time.Duration(m.cfg.Spacer.OperationDelayMS) * time.Millisecond
}

func (m *Manager) spawnDelay() time.Duration {
	return time.Duration(m.cfg.Spacer.SpawnDelayMS) * time.Millisecond
}

// generateAppID builds a unique app id so the native window can be
// matched against niri's window list.
func (m *Manager) generateAppID(number int) string {
	return fmt.Sprintf("%s-%d-%d-%s",
		m.cfg.Native.AppIDPrefix,
		number,
		time.Now().UnixMilli(),
		uuid.NewString()[:8])
}

// CreateSpacer creates spacer window `number` on the workspace at the
// given 1-based index and drives it through correlation, placement and
// verification.
func (m *Manager) CreateSpacer(number int, workspaceIdx uint64) (*SpacerWindow, error) {
	appID := m.generateAppID(number)
	title := fmt.Sprintf("niri-spacer window %d", number)

	logger.Debugf("Creating spacer %d with app_id %s", number, appID)

	localID, err := m.native.CreateWindow(appID, title, m.color)
	if err != nil {
		return nil, fmt.Errorf("failed to create native window for spacer %d: %w", number, err)
	}

	windowID, err := m.correlate(appID)
	if err != nil {
		_ = m.native.CloseWindow(localID)
		return nil, err
	}

	if err := m.place(windowID, workspaceIdx); err != nil {
		_ = m.native.CloseWindow(localID)
		return nil, err
	}

	m.verifyPlacement(windowID, workspaceIdx)

	spacer := SpacerWindow{
		Number:       number,
		LocalID:      localID,
		WindowID:     windowID,
		AppID:        appID,
		WorkspaceIdx: workspaceIdx,
	}

	m.mu.Lock()
	m.spacers = append(m.spacers, spacer)
	m.mu.Unlock()

	logger.Infof("Spacer %d ready (niri window %d, workspace %d)", number, windowID, workspaceIdx)
	return &spacer, nil
}

// correlate polls niri's window list until the app id shows up.
func (m *Manager) correlate(appID string) (uint64, error) {
	timeout := time.Duration(m.cfg.Native.CorrelationTimeoutMS) * time.Millisecond
	deadline := time.Now().Add(timeout)

	for {
		m.drainNativeEvents()

		windows, err := m.client.Windows()
		if err != nil {
			logger.Warnf("Window list query failed during correlation: %v", err)
		} else {
			for _, win := range windows {
				if win.AppID != nil && *win.AppID == appID {
					logger.Debugf("Correlated %s with niri window %d", appID, win.ID)
					return win.ID, nil
				}
			}
		}

		if time.Now().After(deadline) {
			return 0, &CorrelationTimeoutError{AppID: appID, Timeout: timeout}
		}
		time.Sleep(correlationPollDelay)
	}
}

// drainNativeEvents consumes pending backend events without blocking.
func (m *Manager) drainNativeEvents() {
	for {
		select {
		case event := <-m.native.Events():
			switch e := event.(type) {
			case wayland.ErrorEvent:
				logger.Errorf("Native window backend error: %v", e.Err)
			case wayland.WindowClosedEvent:
				logger.Debugf("Native window %d closed", e.LocalID)
			case wayland.WindowCreatedEvent:
				logger.Debugf("Native window %d (%s) created", e.LocalID, e.AppID)
			}
		default:
			return
		}
	}
}

// place moves the window to its workspace, shrinks it and pins it to
// the first column.
func (m *Manager) place(windowID, workspaceIdx uint64) error {
	currentIdx, err := m.windowWorkspaceIdx(windowID)
	if err != nil {
		return err
	}
	if currentIdx != workspaceIdx {
		if err := m.client.MoveWindowToWorkspaceIndex(windowID, workspaceIdx); err != nil {
			return fmt.Errorf("failed to move window %d to workspace %d: %w", windowID, workspaceIdx, err)
		}
		time.Sleep(m.operationDelay())
	}

	if err := m.client.ResizeWindowToMinimum(windowID); err != nil {
		return fmt.Errorf("failed to resize window %d: %w", windowID, err)
	}
	time.Sleep(m.operationDelay())

	return m.positionLeftmost(windowID, workspaceIdx)
}

// positionLeftmost focuses the target and moves its column to the
// first position, with a bounded move-left fallback for older niri.
func (m *Manager) positionLeftmost(windowID, workspaceIdx uint64) error {
	if err := m.client.FocusWorkspaceIndex(workspaceIdx); err != nil {
		return fmt.Errorf("failed to focus workspace %d: %w", workspaceIdx, err)
	}
	time.Sleep(m.operationDelay())

	if err := m.client.FocusWindow(windowID); err != nil {
		return fmt.Errorf("failed to focus window %d: %w", windowID, err)
	}
	time.Sleep(m.operationDelay())

	if err := m.client.MoveColumnToFirst(); err != nil {
		logger.Debugf("MoveColumnToFirst unavailable (%v), falling back to repeated MoveColumnLeft", err)
		for i := 0; i < columnFallbackMoves; i++ {
			if err := m.client.MoveColumnLeft(); err != nil {
				// The first refusal means the column hit the left edge.
				logger.Debugf("Column reached leftmost position after %d moves", i)
				break
			}
			time.Sleep(m.operationDelay())
		}
	}
	time.Sleep(m.operationDelay())

	return nil
}

// verifyPlacement re-reads niri state and corrects drift. Verification
// is best-effort: an exhausted budget logs a warning and moves on.
func (m *Manager) verifyPlacement(windowID, workspaceIdx uint64) {
	ok, err := retryUntil(workspaceDriftAttempts, m.operationDelay(), func(attempt int) (bool, error) {
		currentIdx, err := m.windowWorkspaceIdx(windowID)
		if err != nil {
			return false, err
		}
		if currentIdx == workspaceIdx {
			return true, nil
		}
		logger.Debugf("Window %d drifted to workspace %d (attempt %d), moving back", windowID, currentIdx, attempt)
		if err := m.client.MoveWindowToWorkspaceIndex(windowID, workspaceIdx); err != nil {
			return false, err
		}
		return false, nil
	})
	if err != nil {
		logger.Warnf("Workspace verification for window %d failed: %v", windowID, err)
	} else if !ok {
		logger.Warnf("Window %d still off workspace %d after %d attempts", windowID, workspaceIdx, workspaceDriftAttempts)
	}

	ok, err = retryUntil(columnDriftAttempts, m.operationDelay(), func(attempt int) (bool, error) {
		win, err := m.findWindow(windowID)
		if err != nil {
			return false, err
		}
		if win.Layout == nil {
			// Older niri without layout reporting, nothing to verify.
			return true, nil
		}
		if win.Layout.PosInScrollingLayout == nil {
			logger.Debugf("Window %d is floating (attempt %d), repositioning", windowID, attempt)
			return false, m.positionLeftmost(windowID, workspaceIdx)
		}
		if win.Layout.PosInScrollingLayout[0] == 1 {
			return true, nil
		}
		logger.Debugf("Window %d in column %d (attempt %d), repositioning", windowID, win.Layout.PosInScrollingLayout[0], attempt)
		return false, m.positionLeftmost(windowID, workspaceIdx)
	})
	if err != nil {
		logger.Warnf("Column verification for window %d failed: %v", windowID, err)
	} else if !ok {
		logger.Warnf("Window %d not in first column after %d attempts", windowID, columnDriftAttempts)
	}
}

// CreateBatch creates spacers 1..count on consecutive workspaces
// starting at startIdx. A failure aborts the batch but keeps the
// spacers already created. The originally focused workspace is
// restored afterwards.
func (m *Manager) CreateBatch(count int, startIdx uint64) ([]SpacerWindow, error) {
	if err := config.ValidateWindowCount(count); err != nil {
		return nil, err
	}

	originalIdx, err := m.focusedWorkspaceIdx()
	if err != nil {
		logger.Warnf("Could not record focused workspace: %v", err)
	}

	created := make([]SpacerWindow, 0, count)
	for i := 0; i < count; i++ {
		number := i + 1
		workspaceIdx := startIdx + uint64(i)

		spacer, err := m.CreateSpacer(number, workspaceIdx)
		if err != nil {
			m.restoreFocus(originalIdx)
			return created, fmt.Errorf("spacer %d failed: %w", number, err)
		}
		created = append(created, *spacer)

		if i < count-1 {
			time.Sleep(m.spawnDelay())
		}
	}

	m.restoreFocus(originalIdx)
	return created, nil
}

func (m *Manager) restoreFocus(originalIdx uint64) {
	if originalIdx == 0 {
		return
	}
	if err := m.client.FocusWorkspaceIndex(originalIdx); err != nil {
		logger.Warnf("Failed to restore focus to workspace %d: %v", originalIdx, err)
	}
}

// ValidateSpacers re-checks that every tracked spacer still exists and
// sits on its workspace. A missing window is an error, a moved one a
// warning.
func (m *Manager) ValidateSpacers() error {
	spacers := m.ActiveSpacers()
	if len(spacers) == 0 {
		return nil
	}

	windows, err := m.client.Windows()
	if err != nil {
		return err
	}
	workspaceIdxByID := make(map[uint64]uint64)
	workspaces, err := m.client.Workspaces()
	if err != nil {
		return err
	}
	for _, ws := range workspaces {
		workspaceIdxByID[ws.ID] = uint64(ws.Idx)
	}

	byID := make(map[uint64]niri.Window, len(windows))
	for _, win := range windows {
		byID[win.ID] = win
	}

	for _, spacer := range spacers {
		win, ok := byID[spacer.WindowID]
		if !ok {
			return &niri.WindowNotFoundError{ID: spacer.WindowID}
		}
		if win.WorkspaceID != nil {
			if idx, ok := workspaceIdxByID[*win.WorkspaceID]; ok && idx != spacer.WorkspaceIdx {
				logger.Warnf("Spacer %d moved from workspace %d to %d", spacer.Number, spacer.WorkspaceIdx, idx)
			}
		}
	}
	return nil
}

// Cleanup closes all native windows and forgets the tracked spacers.
func (m *Manager) Cleanup() {
	m.native.CloseAllWindows()
	m.mu.Lock()
	m.spacers = nil
	m.mu.Unlock()
}

func (m *Manager) findWindow(windowID uint64) (*niri.Window, error) {
	windows, err := m.client.Windows()
	if err != nil {
		return nil, err
	}
	for i := range windows {
		if windows[i].ID == windowID {
			return &windows[i], nil
		}
	}
	return nil, &niri.WindowNotFoundError{ID: windowID}
}

// windowWorkspaceIdx resolves the 1-based index of the workspace a
// window currently sits on.
func (m *Manager) windowWorkspaceIdx(windowID uint64) (uint64, error) {
	win, err := m.findWindow(windowID)
	if err != nil {
		return 0, err
	}
	if win.WorkspaceID == nil {
		return 0, fmt.Errorf("niri reports no workspace for window %d", windowID)
	}
	workspaces, err := m.client.Workspaces()
	if err != nil {
		return 0, err
	}
	for _, ws := range workspaces {
		if ws.ID == *win.WorkspaceID {
			return uint64(ws.Idx), nil
		}
	}
	return 0, &WorkspaceNotFoundError{ID: *win.WorkspaceID}
}

// focusedWorkspaceIdx returns the index of the focused workspace, 0
// when none is focused.
func (m *Manager) focusedWorkspaceIdx() (uint64, error) {
	workspaces, err := m.client.Workspaces()
	if err != nil {
		return 0, err
	}
	for _, ws := range workspaces {
		if ws.IsFocused {
			return uint64(ws.Idx), nil
		}
	}
	return 0, nil
}
