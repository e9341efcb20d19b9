// Package view holds the page-level view-models driven by the terminal
// front-end. Each view is bound to a liveness context: Close cancels its
// in-flight calls and any result that arrives afterwards is dropped.
package view

import (
	"context"
	"errors"
	"sync"

	"bookshelf/pkg/domain"
)

var (
	// ErrBusy is returned when the same action is already running.
	ErrBusy = &domain.Error{Kind: domain.KindValidation, Message: "request already in progress"}
	// ErrClosed is returned for calls on, or results for, a closed view.
	ErrClosed = errors.New("view closed")
)

// AuthService is the auth module as the views use it.
type AuthService interface {
	Login(ctx context.Context, id, password string) (domain.Session, error)
	Signup(ctx context.Context, id, password, name string) error
}

// BookService is the book module as the views use it.
type BookService interface {
	List(ctx context.Context, ownerID string) ([]domain.Book, error)
	GetFields(ctx context.Context, id string) (domain.BookFields, error)
	Create(ctx context.Context, draft domain.BookDraft, ownerID string) (domain.Book, error)
	UpdateFields(ctx context.Context, id string, f domain.BookFields) (domain.BookFields, error)
	Delete(ctx context.Context, id string) error
}

// Sessions is the session context as the views use it.
type Sessions interface {
	Current() (domain.Session, bool)
	RequireUser() (string, error)
	Logout(ctx context.Context) error
}

type liveness struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	inflight map[string]bool
}

func (l *liveness) init(parent context.Context) {
	if parent == nil {
		parent = context.Background()
	}
	l.ctx, l.cancel = context.WithCancel(parent)
	l.inflight = make(map[string]bool)
}

// Close cancels in-flight calls. Later results are dropped.
func (l *liveness) Close() {
	l.cancel()
}

func (l *liveness) alive() bool {
	return l.ctx.Err() == nil
}

// start marks action as in flight and returns the view context and the
// function that clears the mark.
func (l *liveness) start(action string) (context.Context, func(), error) {
	if !l.alive() {
		return nil, nil, ErrClosed
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inflight[action] {
		return nil, nil, ErrBusy
	}
	l.inflight[action] = true
	return l.ctx, func() {
		l.mu.Lock()
		delete(l.inflight, action)
		l.mu.Unlock()
	}, nil
}

// finish maps a late or cancelled result to ErrClosed.
func (l *liveness) finish(err error) error {
	if !l.alive() {
		return ErrClosed
	}
	return err
}
