package ui

import (
	"charm.land/lipgloss/v2"

	"github.com/oakwood-commons/jvx/internal/config"
	"github.com/oakwood-commons/jvx/internal/formatter"
)

// Styles holds the lipgloss styles of the formatter screen.
type Styles struct {
	Key         lipgloss.Style
	String      lipgloss.Style
	Number      lipgloss.Style
	Boolean     lipgloss.Style
	Null        lipgloss.Style
	Punct       lipgloss.Style
	Placeholder lipgloss.Style
	Toggle      lipgloss.Style

	Gutter       lipgloss.Style
	GutterCursor lipgloss.Style
	Error        lipgloss.Style

	Status          lipgloss.Style
	StatusError     lipgloss.Style
	StatusTransient lipgloss.Style
	FooterKey       lipgloss.Style
	FooterLabel     lipgloss.Style
	Separator       lipgloss.Style
	PaneTitle       lipgloss.Style
	PaneTitleActive lipgloss.Style
}

// NewStyles builds styles from a configured theme. With noColor every style
// keeps only its text attributes.
func NewStyles(t config.ThemeConfig, noColor bool) Styles {
	fg := func(hex string) lipgloss.Style {
		s := lipgloss.NewStyle()
		if hex != "" && !noColor {
			s = s.Foreground(lipgloss.Color(hex))
		}
		return s
	}

	s := Styles{
		Key:         fg(t.Key),
		String:      fg(t.String),
		Number:      fg(t.Number),
		Boolean:     fg(t.Boolean),
		Null:        fg(t.Null),
		Punct:       fg(t.Text),
		Placeholder: fg(t.Placeholder).Italic(true),
		Toggle:      fg(t.Gutter),

		Gutter:       fg(t.Gutter),
		GutterCursor: fg(t.Text).Bold(true).Reverse(true),
		Error:        fg("#d70000"),

		Status:          fg(t.Text),
		StatusError:     fg("#d70000").Bold(true),
		StatusTransient: fg(t.String).Bold(true),
		FooterKey:       fg(t.Key).Bold(true),
		FooterLabel:     fg(t.Gutter),
		Separator:       fg(t.Guide),
		PaneTitle:       fg(t.Gutter),
		PaneTitleActive: fg(t.Text).Bold(true).Underline(true),
	}
	if noColor {
		s.Error = lipgloss.NewStyle()
		s.StatusError = lipgloss.NewStyle().Bold(true)
	}
	return s
}

func (s Styles) forClass(c formatter.Class) lipgloss.Style {
	switch c {
	case formatter.ClassKey:
		return s.Key
	case formatter.ClassString:
		return s.String
	case formatter.ClassNumber:
		return s.Number
	case formatter.ClassBoolean:
		return s.Boolean
	case formatter.ClassNull:
		return s.Null
	case formatter.ClassPunct:
		return s.Punct
	case formatter.ClassPlaceholder:
		return s.Placeholder
	default:
		return lipgloss.NewStyle()
	}
}
