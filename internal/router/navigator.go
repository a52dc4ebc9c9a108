package router

import (
	"context"
	"log"
	"sync"
)

// Navigator resolves paths, applies the guard and records where the client ends up.
type Navigator struct {
	table   *Table
	guard   *Guard
	session SessionState

	mu      sync.Mutex
	history []Match
}

// NewNavigator returns a Navigator positioned nowhere. session may be nil until SetSession is called.
func NewNavigator(table *Table, guard *Guard, session SessionState) *Navigator {
	return &Navigator{table: table, guard: guard, session: session}
}

// SetSession attaches the session the guard consults.
func (n *Navigator) SetSession(session SessionState) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.session = session
}

// Go navigates to path. A protected view without a session redirects to the login view.
// It returns the view actually shown.
func (n *Navigator) Go(ctx context.Context, path string) Match {
	m := n.table.Resolve(path)
	n.mu.Lock()
	session := n.session
	n.mu.Unlock()

	authenticated := session != nil && session.IsAuthenticated()
	if !n.guard.Allow(ctx, m.View, authenticated) {
		log.Printf("router: %s requires a session; redirecting to %s", m.Path, LoginPath)
		m = n.table.Resolve(LoginPath)
	}
	n.mu.Lock()
	n.history = append(n.history, m)
	n.mu.Unlock()
	return m
}

// Navigate implements the session package's redirect hook.
func (n *Navigator) Navigate(path string) {
	n.Go(context.Background(), path)
}

// Current returns the view last navigated to.
func (n *Navigator) Current() (Match, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.history) == 0 {
		return Match{}, false
	}
	return n.history[len(n.history)-1], true
}

// History returns every view navigated to, oldest first.
func (n *Navigator) History() []Match {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Match(nil), n.history...)
}
