package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/timmy/querydesk/internal/domain"
)

// palette holds the ANSI 256 colors of one theme.
type palette struct {
	text    lipgloss.Color
	faint   lipgloss.Color
	accent  lipgloss.Color
	success lipgloss.Color
	danger  lipgloss.Color
	info    lipgloss.Color
	border  lipgloss.Color
}

var palettes = map[string]palette{
	domain.ThemeLight: {
		text:    "235",
		faint:   "245",
		accent:  "25",
		success: "28",
		danger:  "160",
		info:    "31",
		border:  "250",
	},
	domain.ThemeDark: {
		text:    "252",
		faint:   "243",
		accent:  "111",
		success: "114",
		danger:  "203",
		info:    "80",
		border:  "238",
	},
}

// Styles are the lipgloss styles every command renders with.
type Styles struct {
	Theme   string
	Title   lipgloss.Style
	Header  lipgloss.Style
	Text    lipgloss.Style
	Faint   lipgloss.Style
	Success lipgloss.Style
	Danger  lipgloss.Style
	Info    lipgloss.Style
	Border  lipgloss.Style
}

// NewStyles builds the styles of theme, falling back to light.
func NewStyles(theme string) Styles {
	p, ok := palettes[theme]
	if !ok {
		theme = domain.ThemeLight
		p = palettes[theme]
	}
	return Styles{
		Theme:   theme,
		Title:   lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		Header:  lipgloss.NewStyle().Bold(true).Foreground(p.text).Padding(0, 1),
		Text:    lipgloss.NewStyle().Foreground(p.text),
		Faint:   lipgloss.NewStyle().Foreground(p.faint),
		Success: lipgloss.NewStyle().Foreground(p.success),
		Danger:  lipgloss.NewStyle().Bold(true).Foreground(p.danger),
		Info:    lipgloss.NewStyle().Foreground(p.info),
		Border:  lipgloss.NewStyle().Foreground(p.border),
	}
}

// Severity returns the style for a notification severity.
func (s Styles) Severity(sev domain.Severity) lipgloss.Style {
	switch sev {
	case domain.SeveritySuccess:
		return s.Success
	case domain.SeverityDanger:
		return s.Danger
	default:
		return s.Info
	}
}

// Notice renders a notification as "Title: body".
func (s Styles) Notice(n domain.Notice) string {
	title := n.Title
	if title == "" {
		title = "Notice"
	}
	return s.Severity(n.Severity).Render(title+":") + " " + s.Text.Render(n.Body)
}
