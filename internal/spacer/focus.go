package spacer

import (
	"context"
	"time"

	"github.com/bnema/niri-spacer/internal/logger"
	"github.com/bnema/niri-spacer/internal/niri"
)

const (
	// reconnectDelay is the backoff after a dropped event stream.
	reconnectDelay = 1 * time.Second

	// focusSettleDelay paces the quick focus bounce used to settle the
	// layout after escaping a spacer.
	focusSettleDelay = 10 * time.Millisecond

	// centerSettleDelay paces the heavier center/maximize fallback.
	centerSettleDelay = 50 * time.Millisecond

	// settleWindowThreshold is the minimum window count on a workspace
	// before the layout needs settling at all.
	settleWindowThreshold = 3
)

// FocusLoop watches the compositor event stream and kicks focus off
// spacer windows. The stream connection is separate from the action
// connection: niri dedicates a subscribed connection to events.
type FocusLoop struct {
	manager *Manager
	actions *niri.Client
	connect func() (*niri.Client, error)
}

// NewFocusLoop builds a focus monitor over an engine and an action
// client. connect dials a fresh IPC connection for the event stream.
func NewFocusLoop(manager *Manager, actions *niri.Client, connect func() (*niri.Client, error)) *FocusLoop {
	return &FocusLoop{
		manager: manager,
		actions: actions,
		connect: connect,
	}
}

// Run subscribes to the event stream and reacts to focus changes until
// the context is cancelled. Dropped streams are reconnected after a
// short backoff.
func (f *FocusLoop) Run(ctx context.Context) error {
	for {
		if err := f.runStream(ctx); err != nil {
			logger.Warnf("Event stream lost: %v, reconnecting in %s", err, reconnectDelay)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

// runStream consumes one event stream connection until it ends.
func (f *FocusLoop) runStream(ctx context.Context) error {
	client, err := f.connect()
	if err != nil {
		return err
	}
	defer client.Close()

	stream, err := client.SubscribeEvents(ctx)
	if err != nil {
		return err
	}

	logger.Info("Focus monitoring started")
	for event := range stream.Events() {
		focus, ok := event.(niri.WindowFocusChangedEvent)
		if !ok || focus.ID == nil {
			continue
		}
		if !f.manager.IsSpacer(*focus.ID) {
			continue
		}
		f.handleSpacerFocused(*focus.ID)
	}
	return stream.Err()
}

// handleSpacerFocused bounces focus away from a spacer and settles the
// workspace layout behind it.
func (f *FocusLoop) handleSpacerFocused(windowID uint64) {
	logger.Debugf("Spacer window %d gained focus, moving away", windowID)

	workspaceIdx, located := f.checkAndFixPosition(windowID)

	if err := f.actions.FocusColumnRight(); err != nil {
		logger.Warnf("Failed to move focus off spacer %d: %v", windowID, err)
		return
	}

	if !located {
		return
	}
	count, err := f.workspaceWindowCount(workspaceIdx)
	if err != nil {
		logger.Debugf("Window count check failed: %v", err)
		return
	}
	if count < settleWindowThreshold {
		return
	}
	f.settleLayout()
}

// checkAndFixPosition puts a drifted spacer back in the first column
// before focus leaves it. Returns the spacer's workspace index and
// whether the window could be located at all; absent layout data only
// skips the column fix, not the settle step.
func (f *FocusLoop) checkAndFixPosition(windowID uint64) (uint64, bool) {
	win, err := f.findWindow(windowID)
	if err != nil {
		logger.Debugf("Position check for spacer %d failed: %v", windowID, err)
		return 0, false
	}
	if win.WorkspaceID == nil {
		return 0, false
	}
	workspaceIdx, err := f.workspaceIdx(*win.WorkspaceID)
	if err != nil {
		logger.Debugf("Position check for spacer %d failed: %v", windowID, err)
		return 0, false
	}
	if win.Layout == nil || win.Layout.PosInScrollingLayout == nil {
		// No layout reporting, or floating; either way the engine owns
		// the fix, not the loop.
		return workspaceIdx, true
	}
	if win.Layout.PosInScrollingLayout[0] == 1 {
		return workspaceIdx, true
	}

	logger.Debugf("Spacer %d drifted to column %d, repositioning", windowID, win.Layout.PosInScrollingLayout[0])
	f.repositionSpacer(windowID, workspaceIdx)
	return workspaceIdx, true
}

// repositionSpacer moves the spacer's column back to first, keeping the
// user's focused workspace intact.
func (f *FocusLoop) repositionSpacer(windowID, workspaceIdx uint64) {
	originalIdx := f.focusedWorkspaceIdx()

	if originalIdx != workspaceIdx {
		if err := f.actions.FocusWorkspaceIndex(workspaceIdx); err != nil {
			logger.Debugf("Failed to focus workspace %d: %v", workspaceIdx, err)
			return
		}
		time.Sleep(focusSettleDelay)
	}
	if err := f.actions.FocusWindow(windowID); err != nil {
		logger.Debugf("Failed to focus spacer %d: %v", windowID, err)
		return
	}
	time.Sleep(focusSettleDelay)

	if err := f.actions.MoveColumnToFirst(); err != nil {
		for i := 0; i < columnFallbackMoves; i++ {
			if err := f.actions.MoveColumnLeft(); err != nil {
				break
			}
			time.Sleep(focusSettleDelay)
		}
	}

	if originalIdx != 0 && originalIdx != workspaceIdx {
		if err := f.actions.FocusWorkspaceIndex(originalIdx); err != nil {
			logger.Debugf("Failed to restore focus to workspace %d: %v", originalIdx, err)
		}
	}
}

// settleLayout nudges the layout so neighbouring columns reflow after
// the focus bounce. The quick path is a right/left focus hop; when that
// fails, center and double-maximize forces a relayout.
func (f *FocusLoop) settleLayout() {
	err := f.actions.FocusColumnRight()
	if err == nil {
		time.Sleep(focusSettleDelay)
		err = f.actions.FocusColumnLeft()
	}
	if err == nil {
		return
	}

	logger.Debugf("Focus bounce failed (%v), using maximize fallback", err)
	if err := f.actions.CenterColumn(); err != nil {
		logger.Debugf("Center fallback failed: %v", err)
		return
	}
	time.Sleep(centerSettleDelay)
	if err := f.actions.MaximizeColumn(); err != nil {
		logger.Debugf("Maximize fallback failed: %v", err)
		return
	}
	time.Sleep(focusSettleDelay)
	if err := f.actions.MaximizeColumn(); err != nil {
		logger.Debugf("Maximize fallback failed: %v", err)
	}
}

func (f *FocusLoop) findWindow(windowID uint64) (*niri.Window, error) {
	windows, err := f.actions.Windows()
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

func (f *FocusLoop) workspaceIdx(workspaceID uint64) (uint64, error) {
	workspaces, err := f.actions.Workspaces()
	if err != nil {
		return 0, err
	}
	for _, ws := range workspaces {
		if ws.ID == workspaceID {
			return uint64(ws.Idx), nil
		}
	}
	return 0, &WorkspaceNotFoundError{ID: workspaceID}
}

func (f *FocusLoop) focusedWorkspaceIdx() uint64 {
	workspaces, err := f.actions.Workspaces()
	if err != nil {
		return 0
	}
	for _, ws := range workspaces {
		if ws.IsFocused {
			return uint64(ws.Idx)
		}
	}
	return 0
}

// workspaceWindowCount counts windows on the workspace at the given
// index.
func (f *FocusLoop) workspaceWindowCount(workspaceIdx uint64) (int, error) {
	workspaces, err := f.actions.Workspaces()
	if err != nil {
		return 0, err
	}
	var workspaceID uint64
	found := false
	for _, ws := range workspaces {
		if uint64(ws.Idx) == workspaceIdx {
			workspaceID = ws.ID
			found = true
			break
		}
	}
	if !found {
		return 0, nil
	}

	windows, err := f.actions.Windows()
	if err != nil {
		return 0, err
	}
	count := 0
	for _, win := range windows {
		if win.WorkspaceID != nil && *win.WorkspaceID == workspaceID {
			count++
		}
	}
	return count, nil
}
