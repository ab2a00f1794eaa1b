package chat

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"thoth/internal/store"
)

// =============================================================================
// SESSION LIST
// =============================================================================

// History is the slice of the history store the session list needs.
type History interface {
	Sessions(limit int) ([]store.SessionInfo, error)
}

// sessionListLimit caps how many recorded sessions /sessions shows.
const sessionListLimit = 10

type sessionsListedMsg struct {
	sessions []store.SessionInfo
	err      error
}

func (m Model) listSessionsCmd() tea.Cmd {
	hist := m.history
	return func() tea.Msg {
		sessions, err := hist.Sessions(sessionListLimit)
		return sessionsListedMsg{sessions: sessions, err: err}
	}
}

// renderSessions formats the recorded session list, marking the active one.
func (m Model) renderSessions(sessions []store.SessionInfo) string {
	if len(sessions) == 0 {
		return m.styles.Muted.Render("No recorded sessions yet.")
	}
	current := m.orch.SessionID()
	lines := make([]string, 0, len(sessions)+1)
	lines = append(lines, "Recent sessions:")
	for _, s := range sessions {
		marker := "  "
		if s.SessionID == current {
			marker = "* "
		}
		lines = append(lines, fmt.Sprintf("%s%-36s  %d turns  %s",
			marker, s.SessionID, s.Turns, s.LastAt.Format("2006-01-02 15:04")))
	}
	return m.styles.Muted.Render(strings.Join(lines, "\n"))
}
