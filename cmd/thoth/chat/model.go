// Package chat provides the interactive TUI chat interface for thoth.
// The functionality is split across a few files:
//   - model.go: Types, Init, Update loop (this file)
//   - commands.go: /command handling
//   - process.go: Chat input processing and file operations
//   - view.go: Rendering functions
package chat

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"thoth/cmd/thoth/ui"
	corechat "thoth/internal/chat"
	"thoth/internal/files"
)

// Deps holds the wired components the chat interface drives. History is
// optional; without it /sessions reports that history is unavailable.
type Deps struct {
	Orchestrator *corechat.Orchestrator
	Files        *files.Controller
	History      History
	DisplayName  string
}

// Model is the main model for the interactive chat interface.
type Model struct {
	// UI components
	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	styles   ui.Styles
	renderer *glamour.TermRenderer

	// Backend
	orch        *corechat.Orchestrator
	files       *files.Controller
	history     History
	displayName string

	// State
	isLoading bool
	notice    string
	width     int
	height    int
	ready     bool
}

// NewModel constructs the chat interface around an already-wired stack.
func NewModel(deps Deps) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask THOTH anything... (/help for commands)"
	ta.Focus()
	ta.Prompt = "> "
	ta.CharLimit = 4000
	ta.SetHeight(1)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		textarea:    ta,
		spinner:     sp,
		styles:      ui.DefaultStyles(),
		orch:        deps.Orchestrator,
		files:       deps.Files,
		history:     deps.History,
		displayName: deps.DisplayName,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		taCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyEnter:
			// One request in flight at a time; the orchestrator enforces
			// the same rule, this just keeps the input from queueing.
			if m.isLoading {
				return m, nil
			}
			input := strings.TrimSpace(m.textarea.Value())
			m.textarea.Reset()
			m.notice = ""
			if input == "" {
				return m, nil
			}
			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}
			m.isLoading = true
			m.refreshViewport()
			return m, tea.Batch(m.sendCmd(input), m.spinner.Tick)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 2
		footerHeight := 2
		inputHeight := 3

		chatWidth := msg.Width - 4
		if chatWidth < 1 {
			chatWidth = 1
		}
		chatHeight := msg.Height - headerHeight - footerHeight - inputHeight
		if chatHeight < 1 {
			chatHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(chatWidth, chatHeight)
			m.ready = true
		} else {
			m.viewport.Width = chatWidth
			m.viewport.Height = chatHeight
		}
		m.textarea.SetWidth(chatWidth)

		// Rebuild the markdown renderer at the new wrap width.
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(chatWidth-2),
		)
		if err == nil {
			m.renderer = renderer
		}

		m.refreshViewport()
		return m, nil

	case sendDoneMsg:
		m.isLoading = false
		if msg.err != nil {
			m.notice = m.styles.Error.Render(msg.err.Error())
		}
		m.refreshViewport()
		return m, nil

	case sessionsListedMsg:
		m.isLoading = false
		if msg.err != nil {
			m.notice = m.styles.Error.Render("sessions: " + msg.err.Error())
		} else {
			m.notice = m.renderSessions(msg.sessions)
		}
		return m, nil

	case filesListedMsg:
		m.isLoading = false
		if msg.err != nil {
			m.notice = m.styles.Error.Render("files: " + msg.err.Error())
		} else {
			m.notice = m.renderFileList(msg.records)
		}
		return m, nil

	case uploadDoneMsg:
		m.isLoading = false
		switch {
		case errors.Is(msg.err, files.ErrRefreshFailed):
			// Upload landed; only the list refresh failed.
			m.notice = m.styles.Muted.Render("Uploaded "+msg.filename+" (list may be stale).") + "\n" + m.renderFileList(msg.records)
		case msg.err != nil:
			m.notice = m.styles.Error.Render("upload: " + msg.err.Error())
		default:
			m.notice = m.styles.Muted.Render("Uploaded "+msg.filename+".") + "\n" + m.renderFileList(msg.records)
		}
		return m, nil

	case spinner.TickMsg:
		if m.isLoading {
			// The in-flight send appends the user turn asynchronously;
			// re-render so it shows up before the reply lands.
			m.refreshViewport()
			m.spinner, spCmd = m.spinner.Update(msg)
			return m, spCmd
		}
		return m, nil
	}

	m.textarea, taCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(taCmd, vpCmd)
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}
