package tui

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/timelines/internal/config"
)

func TestShowBanner(t *testing.T) {
	// Capture stdout
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		outC <- buf.String()
	}()

	ShowBanner("1.0.0-test")

	w.Close()
	os.Stdout = old
	out := <-outC

	if !strings.Contains(out, "worldbuilding timelines") {
		t.Errorf("Expected banner to contain the tagline, got: %s", out)
	}
	if !strings.Contains(out, "╔") || !strings.Contains(out, "╝") {
		t.Errorf("Expected banner to contain border characters, got: %s", out)
	}
	if !strings.Contains(out, "v1.0.0-test") {
		t.Errorf("Expected banner to contain version 'v1.0.0-test', got: %s", out)
	}
}

func TestBannerVersion(t *testing.T) {
	tests := []struct {
		version string
		want    string
		absent  string
	}{
		{version: "dev", absent: "vdev"},
		{version: "", absent: " v"},
		{version: "v2.1.0", want: "v2.1.0", absent: "vv2.1.0"},
		{version: "0.3.0", want: "v0.3.0"},
	}
	for _, tt := range tests {
		out := Banner(tt.version)
		if tt.want != "" && !strings.Contains(out, tt.want) {
			t.Errorf("Banner(%q) missing %q: %s", tt.version, tt.want, out)
		}
		if tt.absent != "" && strings.Contains(out, tt.absent) {
			t.Errorf("Banner(%q) should not contain %q: %s", tt.version, tt.absent, out)
		}
	}
}

func TestGetCompactBanner(t *testing.T) {
	message := "Test message"
	result := GetCompactBanner(message)

	if !strings.Contains(result, message) {
		t.Errorf("Expected compact banner to contain '%s', got: %s", message, result)
	}
	if !strings.Contains(result, "▀█▀") {
		t.Errorf("Expected compact banner to contain logo elements, got: %s", result)
	}
}

func TestGetWelcomeMessage(t *testing.T) {
	result := GetWelcomeMessage("n")

	if !strings.Contains(result, "Press n to create your first world") {
		t.Errorf("Expected welcome message to name the key, got: %s", result)
	}
}

func TestLogoConstants(t *testing.T) {
	if len(LogoLines) != 3 {
		t.Errorf("Expected 3 logo lines, got %d", len(LogoLines))
	}
	if len(BannerColors) < len(LogoLines) {
		t.Errorf("Expected at least %d banner colors, got %d", len(LogoLines), len(BannerColors))
	}
	if AppName != "timelines" {
		t.Errorf("Expected AppName 'timelines', got '%s'", AppName)
	}
}

func TestApplyTheme(t *testing.T) {
	saved := []lipgloss.Color{PrimaryColor, SecondaryColor, ErrorColor, MutedColor}
	t.Cleanup(func() {
		PrimaryColor, SecondaryColor, ErrorColor, MutedColor = saved[0], saved[1], saved[2], saved[3]
		buildStyles()
	})

	ApplyTheme(config.UIColors{
		Primary: "#00ff00",
		Error:   "not-a-colour",
		Muted:   "",
	})

	if !strings.EqualFold(string(PrimaryColor), "#00ff00") {
		t.Errorf("Expected primary colour to be replaced, got %s", PrimaryColor)
	}
	if ErrorColor != saved[2] {
		t.Errorf("Invalid colour should keep the default, got %s", ErrorColor)
	}
	if MutedColor != saved[3] {
		t.Errorf("Empty colour should keep the default, got %s", MutedColor)
	}
	if SecondaryColor != saved[1] {
		t.Errorf("Unset colour changed to %s", SecondaryColor)
	}
}
