package ui

import (
	"strings"
	"testing"
)

func TestFormatStatus(t *testing.T) {
	tests := []struct {
		name   string
		ok     bool
		status string
	}{
		{
			name:   "healthy status",
			ok:     true,
			status: "niri socket reachable",
		},
		{
			name:   "broken status",
			ok:     false,
			status: "niri socket missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatStatus(tt.ok, tt.status)

			if !strings.Contains(got, tt.status) {
				t.Errorf("FormatStatus() missing status text %q", tt.status)
			}
			if tt.ok && !strings.Contains(got, "●") {
				t.Errorf("FormatStatus() ok=true should contain filled circle")
			}
			if !tt.ok && !strings.Contains(got, "○") {
				t.Errorf("FormatStatus() ok=false should contain empty circle")
			}
		})
	}
}

func TestFormatCheck(t *testing.T) {
	got := FormatCheck(true, "Wayland display present")
	if !strings.Contains(got, "✓") || !strings.Contains(got, "Wayland display present") {
		t.Errorf("FormatCheck() ok=true rendered %q", got)
	}

	got = FormatCheck(false, "NIRI_SOCKET set")
	if !strings.Contains(got, "✗") || !strings.Contains(got, "NIRI_SOCKET set") {
		t.Errorf("FormatCheck() ok=false rendered %q", got)
	}
}

func TestFormatListItem(t *testing.T) {
	tests := []struct {
		name   string
		item   string
		active bool
	}{
		{
			name:   "inactive item",
			item:   "workspace 3",
			active: false,
		},
		{
			name:   "active item",
			item:   "workspace 5",
			active: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatListItem(tt.item, tt.active)

			if !strings.Contains(got, "•") {
				t.Errorf("FormatListItem() missing bullet point")
			}
			if !strings.Contains(got, tt.item) {
				t.Errorf("FormatListItem() missing item text %q", tt.item)
			}
		})
	}
}

func TestFormatAppHeader(t *testing.T) {
	got := FormatAppHeader("WORKSPACE STATS", "3 workspaces")
	if !strings.Contains(got, "WORKSPACE STATS") {
		t.Errorf("FormatAppHeader() missing title")
	}
	if !strings.Contains(got, "3 workspaces") {
		t.Errorf("FormatAppHeader() missing subtitle")
	}
	if !strings.Contains(got, "─") {
		t.Errorf("FormatAppHeader() missing separator line")
	}
}

func TestCreateSeparator(t *testing.T) {
	got := CreateSeparator(0, "")
	if !strings.Contains(got, strings.Repeat("─", 50)) {
		t.Errorf("CreateSeparator() defaults not applied: %q", got)
	}
}
