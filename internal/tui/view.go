package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/k-tsurumaki/quilldeck-cli/internal/workflow"
)

func (m *model) View() string {
	switch m.stage {
	case stageAuth:
		return m.viewAuth()
	case stageDashboard:
		return m.viewDashboard()
	default:
		return ""
	}
}

func (m *model) heroView() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render("QuillDeck"),
		taglineStyle.Render(heroTagline),
	)
}

func (m *model) connectivityLine() string {
	label := m.connectivity.String()
	if m.probeInFlight {
		label = fmt.Sprintf("%s %s", m.spinner.View(), label)
	}
	return connectivityStyleFor(m.connectivity).Render("server: " + label)
}

func (m *model) viewAuth() string {
	form := strings.Builder{}
	if m.authMode == authModeRegister {
		form.WriteString(sectionHeaderStyle.Render("Create your account"))
	} else {
		form.WriteString(sectionHeaderStyle.Render("Sign in"))
	}
	form.WriteRune('\n')
	form.WriteString("Email     " + m.emailInput.View())
	form.WriteRune('\n')
	form.WriteString("Password  " + m.passwordInput.View())
	if m.authMode == authModeRegister {
		form.WriteRune('\n')
		form.WriteString("Name      " + m.nameInput.View())
	}
	form.WriteRune('\n')
	if m.session.AuthPending() {
		form.WriteString(helperStyle.Render(fmt.Sprintf("%s Waiting for the server…", m.spinner.View())))
	} else {
		form.WriteString(helperStyle.Render("Enter to submit • Tab to move • Ctrl+R to switch sign-in/register • Esc to quit"))
	}

	parts := []string{m.heroView(), form.String(), m.connectivityLine()}
	if m.errorMessage != "" {
		parts = append(parts, errorStyle.Render(m.errorMessage))
	}
	if m.infoMessage != "" {
		parts = append(parts, helperStyle.Render(m.infoMessage))
	}
	return joinNonEmpty(parts)
}

func (m *model) viewDashboard() string {
	m.refreshViewportIfDirty()

	parts := []string{m.heroView(), m.statusBarView(), m.uploadPanelView(), m.viewport.View()}
	if m.errorMessage != "" {
		parts = append(parts, errorStyle.Render(m.errorMessage))
	}
	if m.infoMessage != "" {
		message := m.infoMessage
		if m.busy() {
			message = fmt.Sprintf("%s %s", m.spinner.View(), message)
		}
		parts = append(parts, helperStyle.Render(message))
	}
	if m.helpVisible {
		parts = append(parts, m.helpView())
	} else {
		parts = append(parts, m.keyLegendView())
	}
	return joinNonEmpty(parts)
}

func (m *model) statusBarView() string {
	stats := []string{
		fmt.Sprintf("User %s", m.session.Session().UserID),
		fmt.Sprintf("Documents %d", len(m.session.Documents())),
		fmt.Sprintf("Server %s", m.connectivity),
	}
	if m.upload.Phase == workflow.UploadTransferring {
		stats = append(stats, fmt.Sprintf("Uploading %d%%", m.upload.Progress))
	}
	return statusBarStyle.Render(strings.Join(stats, "  •  "))
}

func (m *model) uploadPanelView() string {
	b := strings.Builder{}
	b.WriteString(sectionHeaderStyle.Render("Upload"))
	b.WriteRune('\n')
	switch {
	case m.pathEntry:
		b.WriteString(m.pathInput.View())
		b.WriteRune('\n')
		b.WriteString(helperStyle.Render("Enter to select, Esc to cancel. Supported: .txt, .md (max 10 MB)."))
	case m.upload.Phase == workflow.UploadTransferring:
		b.WriteString(fmt.Sprintf("%s %s", m.spinner.View(), m.upload.File.Name))
		b.WriteRune('\n')
		b.WriteString(m.progressBar.ViewAs(float64(m.upload.Progress) / 100))
	case m.upload.File != nil:
		b.WriteString(fmt.Sprintf("Selected: %s (%.1f KB)", m.upload.File.Name, float64(m.upload.File.Size)/1024))
		b.WriteRune('\n')
		b.WriteString(helperStyle.Render("Press Enter to upload, or u to pick another file."))
	default:
		b.WriteString(helperStyle.Render("Press u to choose a .txt or .md file."))
	}
	return b.String()
}

func (m *model) refreshViewportIfDirty() {
	if !m.viewportDirty {
		return
	}
	m.viewport.SetContent(m.documentsContent())
	m.viewportDirty = false
}

func (m *model) documentsContent() string {
	docs := m.session.Documents()
	if len(docs) == 0 {
		return helperStyle.Render("No documents yet. Uploads appear here with their summaries.")
	}

	wrap := m.viewport.Width - 4
	if wrap < 20 {
		wrap = 20
	}

	sections := make([]string, 0, len(docs))
	for idx, doc := range docs {
		b := strings.Builder{}
		header := doc.FileName
		if idx == m.cursor {
			header = currentLineStyle.Render("▸ " + header)
		} else {
			header = "  " + header
		}
		b.WriteString(sectionHeaderStyle.Render(header))
		b.WriteRune('\n')

		s := m.summaries[doc.ID]
		if s == nil {
			b.WriteString(helperStyle.Render("  press g to generate a summary"))
			sections = append(sections, b.String())
			continue
		}
		b.WriteString(helperStyle.Render(fmt.Sprintf("  length: %s", s.Length)))
		b.WriteRune('\n')
		switch s.Phase {
		case workflow.SummaryGenerating:
			b.WriteString(helperStyle.Render("  generating…"))
		case workflow.SummaryDone:
			b.WriteString(wordwrap.String(s.Content, wrap))
			if len(s.Keywords) > 0 {
				b.WriteRune('\n')
				chips := make([]string, 0, len(s.Keywords))
				for _, kw := range s.Keywords {
					chips = append(chips, keywordStyle.Render(kw))
				}
				b.WriteString(strings.Join(chips, " "))
			}
		case workflow.SummaryFailed:
			if s.Err != nil {
				b.WriteString(errorStyle.Render("  " + s.Err.Message))
			} else {
				b.WriteString(errorStyle.Render("  summary failed"))
			}
		default:
			b.WriteString(helperStyle.Render("  press g to generate a summary"))
		}
		sections = append(sections, b.String())
	}
	return strings.Join(sections, "\n\n")
}

type keyHint struct {
	Key         string
	Description string
}

func (m *model) keyLegendView() string {
	hints := []keyHint{
		{"u", "Choose file"},
		{"enter", "Upload"},
		{"↑/↓", "Select document"},
		{"l", "Cycle summary length"},
		{"g", "Generate summary"},
		{"e", "Export summary"},
		{"c", "Re-check server"},
		{"q", "Sign out"},
		{"?", "Help"},
	}
	var cells []string
	for _, hint := range hints {
		key := keyStyle.Render(hint.Key)
		desc := keyDescStyle.Render(" " + hint.Description)
		cells = append(cells, lipgloss.JoinHorizontal(lipgloss.Top, key, desc))
	}
	return legendBoxStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
}

func (m *model) helpView() string {
	lines := []string{
		sectionHeaderStyle.Render("Help"),
		helperStyle.Render("• u opens file selection; only .txt and .md up to 10 MB are accepted, everything else is rejected before any network call."),
		helperStyle.Render("• Enter uploads the selected file; failures are not retried automatically, press Enter again to retry."),
		helperStyle.Render("• g generates a summary for the highlighted document at the current length; l cycles short, medium, long."),
		helperStyle.Render("• Summaries of different documents run independently; one per document at a time."),
		helperStyle.Render("• The server indicator re-checks an unreachable backend every 5 seconds; press c to re-check manually."),
		helperStyle.Render("• q signs out and discards every uploaded document and summary; Esc quits."),
	}
	return helpBoxStyle.Render(strings.Join(lines, "\n"))
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}
