// Package heartbeat runs the periodic device liveness loop. Each beat is
// fire-and-forget: failures are logged at debug level and never retried,
// queued, or surfaced to the user.
package heartbeat

import (
	"context"
	"sync"
	"time"

	"thoth/internal/logging"
)

// DefaultInterval is the period between liveness reports.
const DefaultInterval = 30 * time.Second

// Sender posts one liveness report.
type Sender interface {
	Heartbeat(ctx context.Context, token string) error
}

// Loop fires a liveness report immediately on Start and then on a fixed
// period until Stop. The token is captured at Start time; the loop never
// polls for a token to appear.
type Loop struct {
	sender   Sender
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewLoop creates a stopped loop. A non-positive interval falls back to
// DefaultInterval.
func NewLoop(sender Sender, interval time.Duration) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Loop{sender: sender, interval: interval}
}

// Start begins the loop with the given token. A no-op when the token is
// empty or the loop is already running.
func (l *Loop) Start(token string) {
	if token == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.done = make(chan struct{})

	go l.run(ctx, token, l.done)
}

func (l *Loop) run(ctx context.Context, token string, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.beat(ctx, token)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.beat(ctx, token)
		}
	}
}

// beat sends one report. At-most-once per tick: errors are swallowed.
func (l *Loop) beat(ctx context.Context, token string) {
	if err := l.sender.Heartbeat(ctx, token); err != nil {
		logging.Heartbeat("liveness report dropped: %v", err)
	}
}

// Stop cancels the loop and waits for the goroutine to exit. Idempotent:
// stopping a stopped loop is a no-op.
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel = nil
	l.done = nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the loop is active.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancel != nil
}
