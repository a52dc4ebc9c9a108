package session

import (
	"context"
	"log"
	"sync"
	"time"
)

// ExpireFunc is called when the monitored token is found expired or undecodable.
// token is the value that was checked so the receiver can ignore a token that has since been replaced.
type ExpireFunc func(ctx context.Context, token string, reason error)

// Monitor periodically checks the access token expiry. At most one check loop runs at a time.
type Monitor struct {
	interval time.Duration
	onExpire ExpireFunc
	nowF     func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewMonitor returns a stopped Monitor that checks every interval.
func NewMonitor(interval time.Duration, onExpire ExpireFunc) *Monitor {
	return &Monitor{
		interval: interval,
		onExpire: onExpire,
		nowF:     time.Now,
	}
}

// Start checks token immediately and, if it is still valid, keeps checking it every interval
// until Stop or the next Start. It reports whether the token was valid on the first check.
func (m *Monitor) Start(token string) bool {
	m.Stop()
	if token == "" {
		return false
	}
	if expired, reason := m.check(token); expired {
		m.onExpire(context.Background(), token, reason)
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
	}
	m.cancel = cancel
	m.done = done
	m.mu.Unlock()

	go m.run(ctx, done, token)
	return true
}

// Stop ends the check loop, if any, and waits for it to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether a check loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

func (m *Monitor) run(ctx context.Context, done chan struct{}, token string) {
	defer close(done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, reason := m.check(token)
			if !expired {
				continue
			}
			if m.detach(done) {
				m.onExpire(context.Background(), token, reason)
			}
			return
		}
	}
}

// detach forgets the loop identified by done so that the expiry callback may call Stop.
// It returns false when the loop was already stopped or replaced.
func (m *Monitor) detach(done chan struct{}) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done != done {
		return false
	}
	m.cancel()
	m.cancel, m.done = nil, nil
	return true
}

// check reports whether token should end the session; reason is set when it could not be decoded.
func (m *Monitor) check(token string) (expired bool, reason error) {
	expired, err := Expired(token, m.nowF())
	if err != nil {
		log.Printf("session: token check failed: %v", err)
		return true, err
	}
	if expired {
		log.Printf("session: token expired")
	}
	return expired, nil
}
