// Package chat implements the session orchestration core: an append-only
// message timeline, the per-send state machine, and the rule that every
// accepted send produces exactly one assistant turn, success or failure.
// The TUI renders this state; it never owns it.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"thoth/internal/api"
	"thoth/internal/auth"
	"thoth/internal/logging"
)

// DefaultChatID is the conversation context used until a new session is
// explicitly started.
const DefaultChatID = "default-chat"

// Fixed assistant texts. These match the web client word for word so the
// backend sees identical user-facing behavior across clients.
const (
	loginPromptText    = "Please login to continue chatting"
	sessionExpiredText = "Error: Session expired. Please login again."
	genericFailureText = "Error: Something went wrong"
)

// ErrBusy rejects a send issued while a previous one is still in flight.
// Overlapping queries are serialized by rejection rather than queued or
// cancelled.
var ErrBusy = errors.New("a message is already in flight")

// Sender identifies which side of the conversation produced a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is a single timeline entry. Position in the timeline is its
// implicit sequence number; entries are never mutated or removed.
type Message struct {
	Text   string
	Sender Sender
}

// SendState is the per-send state machine. Delivered and Failed are both
// terminal; a new send starts the machine over.
type SendState int

const (
	StateIdle SendState = iota
	StateSubmitting
	StateDelivered
	StateFailed
)

func (s SendState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateDelivered:
		return "delivered"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Querier issues one chat query against the backend.
type Querier interface {
	Query(ctx context.Context, token string, qr api.QueryRequest) (string, error)
}

// Recorder mirrors appended turns to a persistent history store. Optional;
// recorder failures are logged and never interrupt the chat flow.
type Recorder interface {
	StoreTurn(sessionID string, turn int, sender, text string) error
}

// ModelParams is the fixed model configuration sent with every query.
type ModelParams struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// DefaultModelParams matches the parameters the web client hardcoded.
func DefaultModelParams() ModelParams {
	return ModelParams{
		Model:       "gpt-3.5-turbo",
		MaxTokens:   1024,
		Temperature: 0.7,
	}
}

// Orchestrator owns one chat session's timeline and drives the
// request/response protocol for each turn through the session gate.
type Orchestrator struct {
	gate    *auth.Gate
	querier Querier
	params  ModelParams

	recorder Recorder

	mu        sync.Mutex
	sessionID string
	messages  []Message
	state     SendState
	busy      bool
	turnCount int
}

// New creates an orchestrator using the default session id.
func New(gate *auth.Gate, querier Querier, params ModelParams) *Orchestrator {
	return &Orchestrator{
		gate:      gate,
		querier:   querier,
		params:    params,
		sessionID: DefaultChatID,
		state:     StateIdle,
	}
}

// SetRecorder attaches a history recorder. Call before the first send.
func (o *Orchestrator) SetRecorder(r Recorder) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.recorder = r
}

// SessionID returns the id sent as chat_id with every query.
func (o *Orchestrator) SessionID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessionID
}

// NewSession switches to a fresh conversation context. The timeline is
// reset; the old session's turns stay in the history store.
func (o *Orchestrator) NewSession() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sessionID = uuid.NewString()
	o.messages = nil
	o.turnCount = 0
	o.state = StateIdle
	logging.Chat("started session %s", o.sessionID)
	return o.sessionID
}

// Messages returns a copy of the timeline.
func (o *Orchestrator) Messages() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Message, len(o.messages))
	copy(out, o.messages)
	return out
}

// State returns the state of the most recent send.
func (o *Orchestrator) State() SendState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Busy reports whether a send is currently in flight. The UI disables
// submission while true.
func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busy
}

// Greet seeds the timeline with the welcome turn shown on chat start.
func (o *Orchestrator) Greet(name string) {
	o.appendMessage(Message{
		Text:   fmt.Sprintf("Hello, %s! How can I help you?", name),
		Sender: SenderAssistant,
	})
}

// Send submits one chat turn.
//
// Empty or whitespace-only text is a no-op. When no token is present the
// only timeline change is the fixed login prompt and no network call is
// made. Otherwise the user turn is appended optimistically and exactly one
// assistant turn follows: the reply on success, a synthesized diagnostic
// on any failure. The busy flag is cleared on every exit path.
func (o *Orchestrator) Send(ctx context.Context, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	o.mu.Lock()
	if o.busy {
		o.mu.Unlock()
		return ErrBusy
	}

	if !o.gate.Credential().Authenticated() {
		o.appendLocked(Message{Text: loginPromptText, Sender: SenderAssistant})
		o.mu.Unlock()
		return nil
	}

	// Optimistic append: the timeline never loses what the user typed,
	// even if the query later fails.
	o.appendLocked(Message{Text: trimmed, Sender: SenderUser})
	o.busy = true
	o.state = StateSubmitting
	qr := api.QueryRequest{
		Query:       trimmed,
		ChatID:      o.sessionID,
		Model:       o.params.Model,
		MaxTokens:   o.params.MaxTokens,
		Temperature: o.params.Temperature,
	}
	o.mu.Unlock()

	var reply string
	err := o.gate.WithAuth(ctx, func(ctx context.Context, token string) error {
		var qerr error
		reply, qerr = o.querier.Query(ctx, token, qr)
		return qerr
	})

	o.mu.Lock()
	defer o.mu.Unlock()
	o.busy = false

	switch {
	case err == nil:
		o.appendLocked(Message{Text: reply, Sender: SenderAssistant})
		o.state = StateDelivered
	case errors.Is(err, api.ErrSessionExpired), errors.Is(err, api.ErrUnauthenticated):
		// The gate already cleared the credential on expiry; the token
		// vanishing mid-flight lands here too.
		o.appendLocked(Message{Text: sessionExpiredText, Sender: SenderAssistant})
		o.state = StateFailed
	default:
		o.appendLocked(Message{Text: diagnosticText(err), Sender: SenderAssistant})
		o.state = StateFailed
	}
	return nil
}

// diagnosticText derives a human-readable assistant bubble from a failure.
func diagnosticText(err error) string {
	msg := ""
	if err != nil {
		msg = strings.TrimSpace(err.Error())
	}
	if msg == "" {
		return genericFailureText
	}
	return "Error: " + msg
}

func (o *Orchestrator) appendMessage(m Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.appendLocked(m)
}

// appendLocked appends a timeline entry and mirrors it to the recorder.
// Caller holds o.mu.
func (o *Orchestrator) appendLocked(m Message) {
	o.messages = append(o.messages, m)
	o.turnCount++
	if o.recorder != nil {
		if err := o.recorder.StoreTurn(o.sessionID, o.turnCount, string(m.Sender), m.Text); err != nil {
			logging.ChatDebug("history record failed: %v", err)
		}
	}
}
