package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/pders01/timelines/internal/config"
	"github.com/pders01/timelines/internal/palette"
)

const AppName = "timelines"

// LogoLines is the block logo shown on the welcome screen and by `version`.
var LogoLines = []string{
	"▀█▀ █ █▀▄▀█ █▀▀ █   █ █▄ █ █▀▀ █▀▀",
	" █  █ █ ▀ █ █▀▀ █   █ █ ▀█ █▀▀ ▀▀█",
	" ▀  ▀ ▀   ▀ ▀▀▀ ▀▀▀ ▀ ▀  ▀ ▀▀▀ ▀▀▀",
}

var BannerColors = []lipgloss.Color{
	lipgloss.Color("#FF6B6B"),
	lipgloss.Color("#FFA86B"),
	lipgloss.Color("#95E1D3"),
	lipgloss.Color("#4ECDC4"),
}

var (
	PrimaryColor   = lipgloss.Color("#FF6B6B")
	SecondaryColor = lipgloss.Color("#4ECDC4")
	AccentColor    = lipgloss.Color("#95E1D3")

	BackgroundColor = lipgloss.Color("#1A1A2E")
	SurfaceColor    = lipgloss.Color("#16213E")
	TextColor       = lipgloss.Color("#EAEAEA")
	MutedColor      = lipgloss.Color("#94A3B8")

	HighlightColor = lipgloss.Color("#FFE66D")
	ErrorColor     = lipgloss.Color("#F87171")
	SuccessColor   = lipgloss.Color("#4ADE80")
)

var (
	LogoStyle          lipgloss.Style
	TitleStyle         lipgloss.Style
	HeaderStyle        lipgloss.Style
	HelpStyle          lipgloss.Style
	TimeStyle          lipgloss.Style
	RulerStyle         lipgloss.Style
	TickLabelStyle     lipgloss.Style
	CursorStyle        lipgloss.Style
	InactiveStyle      lipgloss.Style
	ModalTextStyle     lipgloss.Style
	ModalHilightStyle  lipgloss.Style
	SeparatorStyle     lipgloss.Style
	StatusInfoStyle    lipgloss.Style
	StatusSuccessStyle lipgloss.Style
	StatusWarnStyle    lipgloss.Style
	StatusErrorStyle   lipgloss.Style
	EmptyStyle         = lipgloss.NewStyle()
)

func init() {
	buildStyles()
}

func buildStyles() {
	LogoStyle = lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Bold(true)

	TitleStyle = lipgloss.NewStyle().
		Foreground(TextColor).
		Background(SurfaceColor).
		Bold(true).
		Padding(0, 2)

	HeaderStyle = lipgloss.NewStyle().
		Foreground(SecondaryColor).
		Bold(true)

	HelpStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Italic(true)

	TimeStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Faint(true)

	RulerStyle = lipgloss.NewStyle().
		Foreground(MutedColor)

	TickLabelStyle = lipgloss.NewStyle().
		Foreground(AccentColor)

	CursorStyle = lipgloss.NewStyle().
		Foreground(HighlightColor).
		Bold(true)

	InactiveStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Faint(true)

	ModalTextStyle = lipgloss.NewStyle().
		Foreground(TextColor)

	ModalHilightStyle = lipgloss.NewStyle().
		Foreground(HighlightColor).
		Bold(true)

	SeparatorStyle = lipgloss.NewStyle().
		Foreground(MutedColor)

	StatusInfoStyle = lipgloss.NewStyle().
		Foreground(MutedColor)

	StatusSuccessStyle = lipgloss.NewStyle().
		Foreground(SuccessColor)

	StatusWarnStyle = lipgloss.NewStyle().
		Foreground(HighlightColor)

	StatusErrorStyle = lipgloss.NewStyle().
		Foreground(ErrorColor).
		Bold(true)
}

// ApplyTheme replaces the brand colours with the configured ones. Entries
// that are empty or not valid hex colours keep their defaults.
func ApplyTheme(c config.UIColors) {
	set := func(dst *lipgloss.Color, hex string) {
		if hex == "" {
			return
		}
		if norm, err := palette.Normalize(hex); err == nil {
			*dst = lipgloss.Color(norm)
		}
	}
	set(&PrimaryColor, c.Primary)
	set(&SecondaryColor, c.Secondary)
	set(&AccentColor, c.Accent)
	set(&BackgroundColor, c.Background)
	set(&SurfaceColor, c.Surface)
	set(&TextColor, c.Text)
	set(&MutedColor, c.Muted)
	set(&ErrorColor, c.Error)
	set(&SuccessColor, c.Success)
	buildStyles()
}

func statusStyle(kind StatusKind) lipgloss.Style {
	switch kind {
	case StatusSuccess:
		return StatusSuccessStyle
	case StatusWarn:
		return StatusWarnStyle
	case StatusError:
		return StatusErrorStyle
	}
	return StatusInfoStyle
}

// ContentWrapper returns a style for wrapping content with width and height constraints
func ContentWrapper(width, height int) lipgloss.Style {
	return EmptyStyle.Width(width).Height(height).MaxHeight(height)
}

func GetWelcomeMessage(newWorldKey string) string {
	return GetCompactBanner(fmt.Sprintf("Press %s to create your first world", newWorldKey))
}

func GetCompactBanner(message string) string {
	var coloredLines []string
	for _, line := range LogoLines {
		coloredLines = append(coloredLines, LogoStyle.Render(line))
	}

	logo := lipgloss.JoinVertical(lipgloss.Center, coloredLines...)

	return lipgloss.JoinVertical(
		lipgloss.Center,
		logo,
		"",
		HelpStyle.Render(message),
	)
}

// Banner renders the boxed logo with a version tagline.
func Banner(version string) string {
	lines := make([]string, len(LogoLines)+1)
	copy(lines, LogoLines)

	tagline := "    worldbuilding timelines"
	if version != "" && version != "dev" {
		if version[0] != 'v' && version[0] != 'V' {
			version = "v" + version
		}
		tagline += " " + version
	}
	lines = append(lines, tagline)

	var coloredLines []string
	for i, line := range lines {
		if line == "" {
			coloredLines = append(coloredLines, line)
			continue
		}
		style := lipgloss.NewStyle().
			Foreground(BannerColors[i%len(BannerColors)]).
			Bold(i < len(LogoLines))
		coloredLines = append(coloredLines, style.Render(line))
	}

	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(SecondaryColor).
		Padding(1, 3).
		MarginTop(1)

	return lipgloss.NewStyle().
		Width(70).
		Align(lipgloss.Center).
		Render(borderStyle.Render(lipgloss.JoinVertical(lipgloss.Center, coloredLines...)))
}

func ShowBanner(version string) {
	fmt.Println(Banner(version))
}
