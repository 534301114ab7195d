package spacer

import (
	"fmt"
	"strings"

	"github.com/bnema/niri-spacer/internal/logger"
	"github.com/bnema/niri-spacer/internal/niri"
)

// Workspace indices are scanned up to this bound when searching for a
// free run.
const maxWorkspaceIndexSearch = 1000

// spacerTitleMarker identifies spacer windows in stats, matching the
// titles the engine assigns.
const spacerTitleMarker = "niri-spacer window"

// WorkspaceManager answers workspace-level questions for the engine
// and the CLI reports.
type WorkspaceManager struct {
	client *niri.Client
}

// NewWorkspaceManager wraps an IPC client.
func NewWorkspaceManager(client *niri.Client) *WorkspaceManager {
	return &WorkspaceManager{client: client}
}

// Workspaces lists all workspaces.
func (m *WorkspaceManager) Workspaces() ([]niri.Workspace, error) {
	return m.client.Workspaces()
}

// WorkspaceByID finds one workspace.
func (m *WorkspaceManager) WorkspaceByID(id uint64) (*niri.Workspace, error) {
	workspaces, err := m.client.Workspaces()
	if err != nil {
		return nil, err
	}
	for i := range workspaces {
		if workspaces[i].ID == id {
			return &workspaces[i], nil
		}
	}
	return nil, &WorkspaceNotFoundError{ID: id}
}

// FocusedWorkspace returns the workspace holding focus.
func (m *WorkspaceManager) FocusedWorkspace() (*niri.Workspace, error) {
	workspaces, err := m.client.Workspaces()
	if err != nil {
		return nil, err
	}
	for i := range workspaces {
		if workspaces[i].IsFocused {
			return &workspaces[i], nil
		}
	}
	return nil, fmt.Errorf("no focused workspace found")
}

// SuggestStartingIndex picks a starting workspace index for count
// spacers: the lowest run of empty workspaces when one is long enough,
// otherwise the lowest run of indices with no workspace at all.
func (m *WorkspaceManager) SuggestStartingIndex(count int) (uint64, error) {
	workspaces, err := m.client.Workspaces()
	if err != nil {
		return 0, err
	}
	windows, err := m.client.Windows()
	if err != nil {
		return 0, err
	}

	windowCounts := make(map[uint64]int)
	for _, win := range windows {
		if win.WorkspaceID != nil {
			windowCounts[*win.WorkspaceID]++
		}
	}

	emptyIdx := make(map[uint64]bool)
	var lowestEmpty uint64
	for _, ws := range workspaces {
		if windowCounts[ws.ID] == 0 {
			idx := uint64(ws.Idx)
			emptyIdx[idx] = true
			if lowestEmpty == 0 || idx < lowestEmpty {
				lowestEmpty = idx
			}
		}
	}

	if lowestEmpty != 0 {
		consecutive := 0
		for i := 0; i < count; i++ {
			if emptyIdx[lowestEmpty+uint64(i)] {
				consecutive++
			} else {
				break
			}
		}
		if consecutive >= count {
			logger.Infof("Using empty workspace run starting at index %d", lowestEmpty)
			return lowestEmpty, nil
		}
	}

	return m.findIndexSequence(workspaces, count)
}

// findIndexSequence finds the lowest run of count indices with no
// existing workspace.
func (m *WorkspaceManager) findIndexSequence(workspaces []niri.Workspace, count int) (uint64, error) {
	existing := make(map[uint64]bool, len(workspaces))
	for _, ws := range workspaces {
		existing[uint64(ws.Idx)] = true
	}

	for start := uint64(1); start <= maxWorkspaceIndexSearch; start++ {
		available := true
		for i := 0; i < count; i++ {
			if existing[start+uint64(i)] {
				available = false
				break
			}
		}
		if available {
			logger.Debugf("Found free workspace index run starting at %d", start)
			return start, nil
		}
	}

	return 0, fmt.Errorf("could not find %d consecutive free workspace indices", count)
}

// ValidateAvailability warns about occupied target workspaces. niri
// happily stacks windows, so this never fails the run.
func (m *WorkspaceManager) ValidateAvailability(startIdx uint64, count int) error {
	workspaces, err := m.client.Workspaces()
	if err != nil {
		return err
	}

	existing := make(map[uint64]bool, len(workspaces))
	for _, ws := range workspaces {
		existing[uint64(ws.Idx)] = true
	}

	for i := 0; i < count; i++ {
		idx := startIdx + uint64(i)
		if existing[idx] {
			logger.Warnf("Workspace %d already exists and may contain other windows", idx)
		}
	}
	return nil
}

// WorkspaceStats is a snapshot of the workspace layout for reporting.
type WorkspaceStats struct {
	TotalWorkspaces       int
	EmptyWorkspaces       int
	TotalWindows          int
	SpacerWindows         int
	FocusedWorkspaceID    *uint64
	WorkspaceWindowCounts map[uint64]int
}

// Stats gathers a snapshot.
func (m *WorkspaceManager) Stats() (*WorkspaceStats, error) {
	workspaces, err := m.client.Workspaces()
	if err != nil {
		return nil, err
	}
	windows, err := m.client.Windows()
	if err != nil {
		return nil, err
	}

	stats := &WorkspaceStats{
		TotalWorkspaces:       len(workspaces),
		TotalWindows:          len(windows),
		WorkspaceWindowCounts: make(map[uint64]int),
	}

	for _, win := range windows {
		if win.WorkspaceID != nil {
			stats.WorkspaceWindowCounts[*win.WorkspaceID]++
		}
		if strings.Contains(win.TitleOr(""), spacerTitleMarker) {
			stats.SpacerWindows++
		}
	}

	for _, ws := range workspaces {
		if stats.WorkspaceWindowCounts[ws.ID] == 0 {
			stats.EmptyWorkspaces++
		}
		if ws.IsFocused {
			id := ws.ID
			stats.FocusedWorkspaceID = &id
		}
	}

	return stats, nil
}

// GoodTilingLayout reports whether the window distribution looks like a
// focused tiling setup: one to three real windows per used workspace
// and no flood of empty workspaces.
func (s *WorkspaceStats) GoodTilingLayout() bool {
	used := len(s.WorkspaceWindowCounts)
	var avg float64
	if used > 0 {
		avg = float64(s.TotalWindows-s.SpacerWindows) / float64(used)
	}
	return avg >= 1.0 && avg <= 3.0 && s.EmptyWorkspaces <= s.TotalWorkspaces/2
}

// Summary renders a one-line report.
func (s *WorkspaceStats) Summary() string {
	focused := "none"
	if s.FocusedWorkspaceID != nil {
		focused = fmt.Sprintf("%d", *s.FocusedWorkspaceID)
	}
	return fmt.Sprintf("%d workspaces (%d empty), %d windows (%d spacers), focused: %s",
		s.TotalWorkspaces, s.EmptyWorkspaces, s.TotalWindows, s.SpacerWindows, focused)
}
