package chat

import (
	"context"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"thoth/internal/api"
	"thoth/internal/logging"
)

// =============================================================================
// ASYNC MESSAGES
// =============================================================================

type sendDoneMsg struct {
	err error
}

type filesListedMsg struct {
	records []api.FileRecord
	err     error
}

type uploadDoneMsg struct {
	filename string
	records  []api.FileRecord
	err      error
}

// =============================================================================
// INPUT PROCESSING
// =============================================================================

// sendCmd submits chat input in the background. The orchestrator owns the
// conversation timeline, so the message only reports completion; the
// rendered transcript is re-read from the orchestrator on receipt.
func (m Model) sendCmd(input string) tea.Cmd {
	orch := m.orch
	return func() tea.Msg {
		err := orch.Send(context.Background(), input)
		if err != nil {
			logging.Chat("send rejected: %v", err)
		}
		return sendDoneMsg{err: err}
	}
}

func (m Model) listFilesCmd() tea.Cmd {
	ctrl := m.files
	return func() tea.Msg {
		records, err := ctrl.List(context.Background())
		return filesListedMsg{records: records, err: err}
	}
}

func (m Model) uploadCmd(path string) tea.Cmd {
	ctrl := m.files
	return func() tea.Msg {
		name := filepath.Base(path)
		f, err := os.Open(path)
		if err != nil {
			return uploadDoneMsg{filename: name, err: err}
		}
		defer f.Close()

		records, err := ctrl.Upload(context.Background(), name, f)
		return uploadDoneMsg{filename: name, records: records, err: err}
	}
}
