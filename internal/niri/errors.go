package niri

import (
	"errors"
	"fmt"
)

// ErrUnexpectedResponse indicates the compositor replied with a payload
// shape the request does not expect.
var ErrUnexpectedResponse = errors.New("unexpected response format from niri")

// Op classifies what the client was doing when the compositor refused.
type Op string

// Operation kinds used to classify compositor refusals.
const (
	OpAction Op = "action"
	OpResize Op = "resize"
	OpMove   Op = "move"
	OpFocus  Op = "focus"
)

// CompositorError is an Err reply from niri.
type CompositorError struct {
	Op      Op
	Message string
}

func (e *CompositorError) Error() string {
	return fmt.Sprintf("niri %s failed: %s", e.Op, e.Message)
}

// WindowNotFoundError indicates a window id niri no longer knows about.
type WindowNotFoundError struct {
	ID uint64
}

func (e *WindowNotFoundError) Error() string {
	return fmt.Sprintf("window %d not found", e.ID)
}
