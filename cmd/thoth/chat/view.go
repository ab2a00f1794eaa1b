package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"thoth/internal/api"
	corechat "thoth/internal/chat"
)

// =============================================================================
// VIEW RENDERING
// =============================================================================

func (m Model) renderHistory() string {
	var sb strings.Builder

	for _, msg := range m.orch.Messages() {
		switch msg.Sender {
		case corechat.SenderUser:
			sb.WriteString(m.styles.UserLabel.Render("You") + "\n")
			sb.WriteString(m.styles.UserInput.Render(msg.Text))
			sb.WriteString("\n\n")

		default: // assistant
			sb.WriteString(m.styles.Assistant.Render("THOTH") + "\n")
			sb.WriteString(m.safeRenderMarkdown(msg.Text))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// safeRenderMarkdown renders markdown with panic recovery.
func (m Model) safeRenderMarkdown(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			// If glamour panics, fall back to plain text.
			result = content
		}
	}()

	if m.renderer != nil && content != "" {
		rendered, err := m.renderer.Render(content)
		if err == nil {
			return rendered
		}
	}
	return content
}

func (m Model) renderFileList(records []api.FileRecord) string {
	if len(records) == 0 {
		return m.styles.Muted.Render("No files uploaded yet.")
	}
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, "  "+rec.Filename)
	}
	return m.styles.Muted.Render("Your files:\n" + strings.Join(lines, "\n"))
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := m.styles.Header.Render("THOTH")
	if m.displayName != "" {
		header += m.styles.Muted.Render("  " + m.displayName)
	}

	status := ""
	if m.isLoading {
		status = m.spinner.View() + " thinking..."
	} else if m.notice != "" {
		status = m.notice
	}

	footer := m.styles.Footer.Width(m.width - 2).
		Render("enter send · /help commands · esc quit")

	sections := []string{
		header,
		m.viewport.View(),
	}
	if status != "" {
		sections = append(sections, status)
	}
	sections = append(sections,
		m.styles.InputBox.Width(m.width-4).Render(m.textarea.View()),
		footer,
	)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
