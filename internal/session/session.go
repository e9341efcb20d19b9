// Package session holds the explicit session context shared by every client
// module and view. It is constructed once at start-up from durable storage.
package session

import (
	"context"
	"fmt"
	"sync"

	"bookshelf/pkg/domain"
	"bookshelf/pkg/store"
)

// EventType identifies a session change.
type EventType string

const (
	EventTokens EventType = "tokens"
	EventLogin  EventType = "login"
	EventLogout EventType = "logout"
)

// Event is delivered to subscribers after the change is persisted.
type Event struct {
	Type    EventType
	Session domain.Session
}

// Manager is the session context.
type Manager struct {
	store store.Store

	mu      sync.RWMutex
	current domain.Session
	nextSub int
	subs    map[int]func(Event)
}

// NewManager reads the persisted session once.
func NewManager(ctx context.Context, st store.Store) (*Manager, error) {
	m := &Manager{store: st, subs: make(map[int]func(Event))}
	values := make(map[string]string, len(store.SessionKeys))
	for _, key := range store.SessionKeys {
		v, ok, err := st.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("load session %s: %w", key, err)
		}
		if ok {
			values[key] = v
		}
	}
	m.current = domain.Session{
		UserID:       values[store.KeyCurrentUserID],
		UserName:     values[store.KeyCurrentUserName],
		AccessToken:  values[store.KeyAccessToken],
		RefreshToken: values[store.KeyRefreshToken],
	}
	return m, nil
}

// Current returns the session and whether a user is logged in.
func (m *Manager) Current() (domain.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, m.current.LoggedIn()
}

// UserID returns the current user id, empty when logged out.
func (m *Manager) UserID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.UserID
}

// AccessToken implements apiclient.TokenSource.
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.AccessToken
}

// RequireUser returns the current user id or domain.ErrLoginRequired.
func (m *Manager) RequireUser() (string, error) {
	s, ok := m.Current()
	if !ok {
		return "", domain.ErrLoginRequired
	}
	return s.UserID, nil
}

// SaveTokens persists the token pair ahead of identity resolution, so the
// profile request already carries the bearer. Empty tokens are not written.
func (m *Manager) SaveTokens(ctx context.Context, accessToken, refreshToken string) error {
	m.mu.Lock()
	if accessToken != "" {
		if err := m.store.Set(ctx, store.KeyAccessToken, accessToken); err != nil {
			m.mu.Unlock()
			return fmt.Errorf("save access token: %w", err)
		}
		m.current.AccessToken = accessToken
	}
	if refreshToken != "" {
		if err := m.store.Set(ctx, store.KeyRefreshToken, refreshToken); err != nil {
			m.mu.Unlock()
			return fmt.Errorf("save refresh token: %w", err)
		}
		m.current.RefreshToken = refreshToken
	}
	snapshot := m.current
	m.mu.Unlock()
	m.notify(Event{Type: EventTokens, Session: snapshot})
	return nil
}

// Save persists a complete session.
func (m *Manager) Save(ctx context.Context, s domain.Session) error {
	if s.UserName == "" {
		s.UserName = s.UserID
	}
	m.mu.Lock()
	pairs := [][2]string{
		{store.KeyAccessToken, s.AccessToken},
		{store.KeyRefreshToken, s.RefreshToken},
		{store.KeyCurrentUserID, s.UserID},
		{store.KeyCurrentUserName, s.UserName},
	}
	for _, kv := range pairs {
		var err error
		if kv[1] == "" {
			err = m.store.Delete(ctx, kv[0])
		} else {
			err = m.store.Set(ctx, kv[0], kv[1])
		}
		if err != nil {
			m.mu.Unlock()
			return fmt.Errorf("save session %s: %w", kv[0], err)
		}
	}
	m.current = s
	m.mu.Unlock()
	m.notify(Event{Type: EventLogin, Session: s})
	return nil
}

// Logout removes every session key and clears the in-memory session even if
// storage fails, returning the storage error.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	err := m.store.Delete(ctx, store.SessionKeys...)
	m.current = domain.Session{}
	m.mu.Unlock()
	m.notify(Event{Type: EventLogout})
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Subscribe registers fn for session changes and returns its cancel func.
func (m *Manager) Subscribe(fn func(Event)) (cancel func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Manager) notify(ev Event) {
	m.mu.RLock()
	fns := make([]func(Event), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.RUnlock()
	for _, fn := range fns {
		fn(ev)
	}
}
