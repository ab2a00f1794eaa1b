package chat

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleCommand dispatches /commands typed at the chat prompt.
func (m Model) handleCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "/help":
		m.notice = m.helpText()
		return m, nil

	case "/new":
		m.orch.NewSession()
		m.orch.Greet(m.displayName)
		m.notice = m.styles.Muted.Render("Started a new conversation.")
		m.refreshViewport()
		return m, nil

	case "/files":
		m.isLoading = true
		return m, tea.Batch(m.listFilesCmd(), m.spinner.Tick)

	case "/sessions":
		if m.history == nil {
			m.notice = m.styles.Error.Render("Chat history is not available.")
			return m, nil
		}
		m.isLoading = true
		return m, tea.Batch(m.listSessionsCmd(), m.spinner.Tick)

	case "/upload":
		if len(args) != 1 {
			m.notice = m.styles.Error.Render("usage: /upload <path>")
			return m, nil
		}
		m.isLoading = true
		return m, tea.Batch(m.uploadCmd(args[0]), m.spinner.Tick)

	case "/quit", "/exit":
		return m, tea.Quit

	default:
		m.notice = m.styles.Error.Render("Unknown command " + cmd + " (try /help)")
		return m, nil
	}
}

func (m Model) helpText() string {
	return m.styles.Muted.Render(strings.Join([]string{
		"/new            start a new conversation",
		"/sessions       list recorded conversations",
		"/files          list your uploaded files",
		"/upload <path>  upload a file",
		"/quit           exit",
	}, "\n"))
}
