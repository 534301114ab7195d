package wayland

import (
	"testing"

	"github.com/bnema/niri-spacer/internal/config"
)

func TestCommandsBeforeStart(t *testing.T) {
	loop := NewEventLoop(false)

	if _, err := loop.CreateWindow("niri-spacer-native-1", "spacer", config.Color{}); err == nil {
		t.Error("CreateWindow before Start should fail")
	}
	if err := loop.CloseWindow(1); err == nil {
		t.Error("CloseWindow before Start should fail")
	}
	// Must not panic or block without a connection.
	loop.CloseAllWindows()
}

func TestShutdownIsIdempotent(t *testing.T) {
	loop := NewEventLoop(false)
	loop.Shutdown()
	loop.Shutdown()

	if _, err := loop.CreateWindow("niri-spacer-native-1", "spacer", config.Color{}); err == nil {
		t.Error("CreateWindow after Shutdown should fail")
	}
}

func TestCompositorCloseEndsLoop(t *testing.T) {
	loop := NewEventLoop(false)

	loop.exitOnCompositorClose(7)

	select {
	case event := <-loop.Events():
		if _, ok := event.(ErrorEvent); !ok {
			t.Fatalf("expected ErrorEvent, got %#v", event)
		}
	default:
		t.Fatal("expected an ErrorEvent explaining the shutdown")
	}

	if _, err := loop.CreateWindow("niri-spacer-native-1", "spacer", config.Color{}); err == nil {
		t.Error("CreateWindow after a compositor close should fail")
	}
	// Repeat close requests must stay safe after teardown.
	loop.exitOnCompositorClose(7)
}

func TestStartWithoutDisplay(t *testing.T) {
	t.Setenv("WAYLAND_DISPLAY", "niri-spacer-test-no-display")
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	loop := NewEventLoop(false)
	if err := loop.Start(); err == nil {
		loop.Shutdown()
		t.Skip("a Wayland display is available, skipping failure path")
	}
}

func TestFillARGB(t *testing.T) {
	tests := []struct {
		name  string
		color config.Color
	}{
		{"gray", config.Color{R: 128, G: 128, B: 128}},
		{"distinct channels", config.Color{R: 0x11, G: 0x22, B: 0x33}},
		{"black", config.Color{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]byte, 4*4)
			fillARGB(data, tt.color)

			for i := 0; i < len(data); i += 4 {
				if data[i] != tt.color.B || data[i+1] != tt.color.G || data[i+2] != tt.color.R {
					t.Fatalf("pixel %d = %v, want BGR %v %v %v", i/4, data[i:i+4], tt.color.B, tt.color.G, tt.color.R)
				}
				if data[i+3] != 0xFF {
					t.Fatalf("pixel %d alpha = %d, want 255", i/4, data[i+3])
				}
			}
		})
	}

	t.Run("ignores trailing partial pixel", func(t *testing.T) {
		data := make([]byte, 6)
		fillARGB(data, config.Color{R: 1, G: 2, B: 3})
		if data[4] != 0 || data[5] != 0 {
			t.Error("partial pixel should remain untouched")
		}
	})
}
