package niri

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bnema/niri-spacer/internal/logger"
)

// Event is one compositor event variant.
type Event interface {
	isEvent()
}

// WindowOpenedEvent reports a new or changed window.
type WindowOpenedEvent struct {
	Window Window `json:"window"`
}

// WindowClosedEvent reports a closed window.
type WindowClosedEvent struct {
	WindowID uint64 `json:"window_id"`
}

// WindowFocusChangedEvent reports a focus change. ID is nil when focus
// was cleared entirely.
type WindowFocusChangedEvent struct {
	ID *uint64 `json:"id"`
}

// WorkspaceActiveWindowChangedEvent reports the active window of a
// workspace changing.
type WorkspaceActiveWindowChangedEvent struct {
	WorkspaceID    uint64  `json:"workspace_id"`
	ActiveWindowID *uint64 `json:"active_window_id"`
}

func (WindowOpenedEvent) isEvent()                 {}
func (WindowClosedEvent) isEvent()                 {}
func (WindowFocusChangedEvent) isEvent()           {}
func (WorkspaceActiveWindowChangedEvent) isEvent() {}

// parseEventLine decodes one line from the event stream. Frames whose
// top-level key is Ok or Err are the stream's own acknowledgment and
// are not events; unknown or unparseable lines are skipped too.
func parseEventLine(line []byte) (Event, bool) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(line, &envelope); err != nil {
		return nil, false
	}

	// The handshake ack shares the transport with event frames and is
	// disambiguated purely by shape.
	if _, ok := envelope["Ok"]; ok {
		return nil, false
	}
	if _, ok := envelope["Err"]; ok {
		return nil, false
	}

	for name, raw := range envelope {
		switch name {
		case "WindowOpened":
			var ev WindowOpenedEvent
			if err := json.Unmarshal(raw, &ev); err != nil {
				return nil, false
			}
			return ev, true
		case "WindowClosed":
			var ev WindowClosedEvent
			if err := json.Unmarshal(raw, &ev); err != nil {
				return nil, false
			}
			return ev, true
		case "WindowFocusChanged":
			var ev WindowFocusChangedEvent
			if err := json.Unmarshal(raw, &ev); err != nil {
				return nil, false
			}
			return ev, true
		case "WorkspaceActiveWindowChanged":
			var ev WorkspaceActiveWindowChangedEvent
			if err := json.Unmarshal(raw, &ev); err != nil {
				return nil, false
			}
			return ev, true
		}
	}

	return nil, false
}

// EventStream is a one-way feed of compositor events.
type EventStream struct {
	events chan Event
	done   chan struct{}
	err    error
}

// Events returns the event channel. It closes when the stream ends.
func (s *EventStream) Events() <-chan Event {
	return s.events
}

// Err returns the error that ended the stream, nil for a clean shutdown.
func (s *EventStream) Err() error {
	<-s.done
	return s.err
}

// SubscribeEvents upgrades the connection to an event stream. The
// client must not issue further requests afterwards; closing it or
// cancelling ctx ends the stream.
func (c *Client) SubscribeEvents(ctx context.Context) (*EventStream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writeRequest(EventStreamRequest{}); err != nil {
		return nil, fmt.Errorf("failed to subscribe to events: %w", err)
	}

	stream := &EventStream{
		events: make(chan Event, 16),
		done:   make(chan struct{}),
	}

	// Unblock the reader when the caller gives up.
	go func() {
		select {
		case <-ctx.Done():
			_ = c.conn.Close()
		case <-stream.done:
		}
	}()

	go func() {
		defer close(stream.done)
		defer close(stream.events)
		for {
			line, err := c.reader.ReadBytes('\n')
			if err != nil {
				if ctx.Err() == nil {
					stream.err = fmt.Errorf("event stream ended: %w", err)
				}
				return
			}
			event, ok := parseEventLine(line)
			if !ok {
				logger.Debugf("skipping non-event frame: %s", line)
				continue
			}
			select {
			case stream.events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return stream, nil
}
