package niri

import (
	"reflect"
	"testing"
)

func TestParseEventLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Event
		isEvent bool
	}{
		{
			name:    "handshake ack is not an event",
			line:    `{"Ok":"Handled"}`,
			isEvent: false,
		},
		{
			name:    "error frame is not an event",
			line:    `{"Err":"event stream not supported"}`,
			isEvent: false,
		},
		{
			name:    "garbage line is skipped",
			line:    `this is not json`,
			isEvent: false,
		},
		{
			name:    "unknown event variant is skipped",
			line:    `{"ConfigLoaded":{"failed":false}}`,
			isEvent: false,
		},
		{
			name:    "window opened",
			line:    `{"WindowOpened":{"window":{"id":10,"app_id":"niri-spacer-native-1","workspace_id":2,"is_focused":false,"is_floating":false,"is_urgent":false}}}`,
			want:    WindowOpenedEvent{Window: Window{ID: 10, AppID: strPtr("niri-spacer-native-1"), WorkspaceID: uint64Ptr(2)}},
			isEvent: true,
		},
		{
			name:    "window closed",
			line:    `{"WindowClosed":{"window_id":10}}`,
			want:    WindowClosedEvent{WindowID: 10},
			isEvent: true,
		},
		{
			name:    "window focus changed",
			line:    `{"WindowFocusChanged":{"id":7}}`,
			want:    WindowFocusChangedEvent{ID: uint64Ptr(7)},
			isEvent: true,
		},
		{
			name:    "focus cleared",
			line:    `{"WindowFocusChanged":{"id":null}}`,
			want:    WindowFocusChangedEvent{},
			isEvent: true,
		},
		{
			name:    "workspace active window changed",
			line:    `{"WorkspaceActiveWindowChanged":{"workspace_id":3,"active_window_id":21}}`,
			want:    WorkspaceActiveWindowChangedEvent{WorkspaceID: 3, ActiveWindowID: uint64Ptr(21)},
			isEvent: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseEventLine([]byte(tt.line))
			if ok != tt.isEvent {
				t.Fatalf("parseEventLine(%s) ok = %v, want %v", tt.line, ok, tt.isEvent)
			}
			if tt.isEvent && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseEventLine(%s) = %#v, want %#v", tt.line, got, tt.want)
			}
		})
	}
}

func strPtr(s string) *string { return &s }
