// Package niri speaks the niri IPC protocol: newline-delimited JSON
// requests and replies over the compositor's unix socket.
package niri

// Workspace describes one niri workspace.
type Workspace struct {
	ID             uint64  `json:"id"`
	Idx            uint8   `json:"idx"`
	Name           *string `json:"name"`
	Output         *string `json:"output"`
	IsUrgent       bool    `json:"is_urgent"`
	IsActive       bool    `json:"is_active"`
	IsFocused      bool    `json:"is_focused"`
	ActiveWindowID *uint64 `json:"active_window_id"`
}

// WindowLayout carries the scrolling-layout position niri reports for
// tiled windows. PosInScrollingLayout is nil for floating windows and
// holds a 1-based [column, tile] pair otherwise.
type WindowLayout struct {
	PosInScrollingLayout *[2]int `json:"pos_in_scrolling_layout"`
}

// Window describes one toplevel window as niri sees it.
type Window struct {
	ID          uint64        `json:"id"`
	Title       *string       `json:"title"`
	AppID       *string       `json:"app_id"`
	PID         *int32        `json:"pid"`
	WorkspaceID *uint64       `json:"workspace_id"`
	IsFocused   bool          `json:"is_focused"`
	IsFloating  bool          `json:"is_floating"`
	IsUrgent    bool          `json:"is_urgent"`
	Layout      *WindowLayout `json:"layout,omitempty"`
}

// TitleOr returns the window title or a fallback.
func (w *Window) TitleOr(fallback string) string {
	if w.Title != nil && *w.Title != "" {
		return *w.Title
	}
	return fallback
}

// AppIDOr returns the window app id or a fallback.
func (w *Window) AppIDOr(fallback string) string {
	if w.AppID != nil && *w.AppID != "" {
		return *w.AppID
	}
	return fallback
}
