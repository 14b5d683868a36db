package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	taglineStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("147")).Italic(true)
	statusBarStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	keyStyle           = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	keyDescStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4"))
	legendBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(1, 2)
	helpBoxStyle       = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("#7f5af0")).Padding(1, 2)
	currentLineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6"))
	keywordStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#e9ecef")).Padding(0, 1)

	connectivityOKStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#a3be8c"))
	connectivityBadStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	connectivityWaitStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

func connectivityStyleFor(status connectivityStatus) lipgloss.Style {
	switch status {
	case connectivityOK:
		return connectivityOKStyle
	case connectivityUnreachable, connectivityServerError:
		return connectivityBadStyle
	default:
		return connectivityWaitStyle
	}
}
