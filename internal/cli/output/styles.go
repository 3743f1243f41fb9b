package output

import "github.com/charmbracelet/lipgloss"

// Styles groups the lipgloss styles used for terminal output.
type Styles struct {
	Header1       lipgloss.Style
	Header2       lipgloss.Style
	Bold          lipgloss.Style
	Muted         lipgloss.Style
	Warning       lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style
	StatusPending lipgloss.Style
	StatusRunning lipgloss.Style
}

// DefaultStyles returns colored styles for terminals.
func DefaultStyles() Styles {
	return Styles{
		Header1:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header2:       lipgloss.NewStyle().Bold(true),
		Bold:          lipgloss.NewStyle().Bold(true),
		Muted:         lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Warning:       lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		StatusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("10")).SetString("✓"),
		StatusFailed:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")).SetString("✗"),
		StatusPending: lipgloss.NewStyle().Foreground(lipgloss.Color("8")).SetString("○"),
		StatusRunning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")).SetString("…"),
	}
}

// PlainStyles returns styles that add no escape codes.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Header1:       plain,
		Header2:       plain,
		Bold:          plain,
		Muted:         plain,
		Warning:       plain,
		StatusSuccess: plain.SetString("✓"),
		StatusFailed:  plain.SetString("✗"),
		StatusPending: plain.SetString("○"),
		StatusRunning: plain.SetString("…"),
	}
}
