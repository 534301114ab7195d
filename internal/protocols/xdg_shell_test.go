package protocols

import "testing"

// The xdg_toplevel request opcodes are positional in the protocol XML,
// so a wrong value silently sends a different request (set_max_size
// mis-numbered as move decodes the width as a seat id and gets the
// client disconnected). Pin them to the stable xdg-shell declaration
// order: destroy=0, set_parent=1, set_title=2, set_app_id=3,
// show_window_menu=4, move=5, resize=6, set_max_size=7, set_min_size=8.
func TestToplevelRequestOpcodes(t *testing.T) {
	tests := []struct {
		name string
		got  uint32
		want uint32
	}{
		{"destroy", toplevelDestroyOpcode, 0},
		{"set_title", toplevelSetTitleOpcode, 2},
		{"set_app_id", toplevelSetAppIDOpcode, 3},
		{"set_max_size", toplevelSetMaxSizeOpcode, 7},
		{"set_min_size", toplevelSetMinSizeOpcode, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("xdg_toplevel.%s opcode = %d, want %d", tt.name, tt.got, tt.want)
			}
		})
	}
}
