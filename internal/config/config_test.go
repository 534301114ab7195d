package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestInit(t *testing.T) {
	t.Run("initializes with defaults when no config exists", func(t *testing.T) {
		// Reset viper
		viper.Reset()
		cfg = nil

		err := Init()
		if err != nil {
			t.Errorf("Init() failed: %v", err)
		}

		config := Get()
		if config == nil {
			t.Fatal("Get() returned nil after Init()")
		}

		// Check some defaults
		if config.Spacer.WindowCount != 9 {
			t.Errorf("Expected default window count 9, got %d", config.Spacer.WindowCount)
		}
		if config.Native.AppIDPrefix != "niri-spacer-native" {
			t.Errorf("Expected default app id prefix niri-spacer-native, got %q", config.Native.AppIDPrefix)
		}
		if config.Native.CorrelationTimeoutMS != 5000 {
			t.Errorf("Expected default correlation timeout 5000, got %d", config.Native.CorrelationTimeoutMS)
		}
	})

	t.Run("reads values from config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "niri-spacer.toml")
		content := `[spacer]
window_count = 4

[native]
background_color = "#112233"
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		viper.Reset()
		cfg = nil
		SetConfigPath(path)
		defer SetConfigPath("")

		if err := Init(); err != nil {
			t.Fatalf("Init() failed: %v", err)
		}

		config := Get()
		if config.Spacer.WindowCount != 4 {
			t.Errorf("Expected window count 4, got %d", config.Spacer.WindowCount)
		}
		if config.Native.BackgroundColor != "#112233" {
			t.Errorf("Expected background color #112233, got %q", config.Native.BackgroundColor)
		}
		// Unset values fall back to defaults
		if config.Spacer.SpawnDelayMS != 50 {
			t.Errorf("Expected default spawn delay 50, got %d", config.Spacer.SpawnDelayMS)
		}
	})
}

func TestValidateWindowCount(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		wantErr bool
	}{
		{"minimum", 1, false},
		{"default", 9, false},
		{"maximum", 50, false},
		{"zero", 0, true},
		{"negative", -3, true},
		{"too large", 51, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWindowCount(tt.count)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateWindowCount(%d) error = %v, wantErr %v", tt.count, err, tt.wantErr)
			}
		})
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Color
		wantErr bool
	}{
		{"gray with hash", "#808080", Color{128, 128, 128}, false},
		{"gray without hash", "808080", Color{128, 128, 128}, false},
		{"mixed channels", "#11AAFF", Color{0x11, 0xAA, 0xFF}, false},
		{"too short", "#FFF", Color{}, true},
		{"not hex", "#GGHHII", Color{}, true},
		{"empty", "", Color{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseColor(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseColor(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseColor(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}
