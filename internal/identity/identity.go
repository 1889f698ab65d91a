// Package identity tracks the signed-in user and notifies subscribers when
// it changes, so per-user state (catalog, plan, history, active session) can
// reset. The user is resolved elsewhere: from the Tailscale whois result in
// tsnet mode, or from the configured dev login otherwise.
package identity

import (
	"log/slog"
	"sync"
)

// User is a signed-in account. ID is the database row id; Login is the
// human-readable identity the transport authenticated.
type User struct {
	ID    int
	Login string
}

// Listener is called after the signed-in user changes. A nil user means
// signed out.
type Listener func(u *User)

// Provider holds the current identity and its change subscribers.
type Provider struct {
	log *slog.Logger

	mu        sync.Mutex
	current   *User
	listeners []Listener
}

func New(log *slog.Logger) *Provider {
	return &Provider{log: log}
}

// Current returns the signed-in user, or nil.
func (p *Provider) Current() *User {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	u := *p.current
	return &u
}

// SignIn sets the current user. Setting the same user again is a no-op;
// switching users notifies listeners so stale per-user state is dropped.
func (p *Provider) SignIn(u User) {
	p.mu.Lock()
	if p.current != nil && p.current.ID == u.ID {
		p.mu.Unlock()
		return
	}
	p.current = &u
	listeners := append([]Listener(nil), p.listeners...)
	p.mu.Unlock()

	p.log.Info("user signed in", "user", u.Login, "id", u.ID)
	notify(listeners, &u)
}

// SignOut clears the current user and notifies listeners.
func (p *Provider) SignOut() {
	p.mu.Lock()
	if p.current == nil {
		p.mu.Unlock()
		return
	}
	old := p.current
	p.current = nil
	listeners := append([]Listener(nil), p.listeners...)
	p.mu.Unlock()

	p.log.Info("user signed out", "user", old.Login)
	notify(listeners, nil)
}

// OnChange registers a listener for identity changes.
func (p *Provider) OnChange(fn Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// notify runs outside the provider lock so listeners may call back in.
func notify(listeners []Listener, u *User) {
	for _, fn := range listeners {
		fn(u)
	}
}
