package spacer

import (
	"fmt"
	"time"
)

// CorrelationTimeoutError indicates a native window never showed up in
// niri's window list.
type CorrelationTimeoutError struct {
	AppID   string
	Timeout time.Duration
}

func (e *CorrelationTimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for niri to report window with app_id %s", e.Timeout, e.AppID)
}

// WorkspaceNotFoundError indicates a workspace id niri does not know.
type WorkspaceNotFoundError struct {
	ID uint64
}

func (e *WorkspaceNotFoundError) Error() string {
	return fmt.Sprintf("workspace %d not found", e.ID)
}
