package view

import (
	"context"
	"sync"

	"bookshelf/pkg/domain"
)

type fakeSessions struct {
	mu      sync.Mutex
	session domain.Session
	logouts int
}

func (f *fakeSessions) Current() (domain.Session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session, f.session.LoggedIn()
}

func (f *fakeSessions) RequireUser() (string, error) {
	s, ok := f.Current()
	if !ok {
		return "", domain.ErrLoginRequired
	}
	return s.UserID, nil
}

func (f *fakeSessions) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = domain.Session{}
	f.logouts++
	return nil
}

type fakeBooks struct {
	mu       sync.Mutex
	books    []domain.Book
	fields   domain.BookFields
	err      error
	block    chan struct{}
	calls    int
	created  []domain.BookDraft
	updated  []domain.BookFields
	deleted  []string
	listedBy []string
}

func (f *fakeBooks) wait(ctx context.Context) error {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()
	if block == nil {
		return nil
	}
	select {
	case <-block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeBooks) List(ctx context.Context, ownerID string) ([]domain.Book, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listedBy = append(f.listedBy, ownerID)
	return append([]domain.Book(nil), f.books...), f.err
}

func (f *fakeBooks) GetFields(ctx context.Context, id string) (domain.BookFields, error) {
	if err := f.wait(ctx); err != nil {
		return domain.BookFields{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields, f.err
}

func (f *fakeBooks) Create(ctx context.Context, d domain.BookDraft, ownerID string) (domain.Book, error) {
	if err := f.wait(ctx); err != nil {
		return domain.Book{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, d)
	return domain.Book{ID: "new-1", OwnerID: ownerID, Title: d.Title, Author: d.Author, Genre: d.Genre, Summary: d.Summary, CoverURL: d.CoverURL}, f.err
}

func (f *fakeBooks) UpdateFields(ctx context.Context, id string, fields domain.BookFields) (domain.BookFields, error) {
	if err := f.wait(ctx); err != nil {
		return domain.BookFields{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, fields)
	return fields, f.err
}

func (f *fakeBooks) Delete(ctx context.Context, id string) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.err
}

type fakeAuth struct {
	session domain.Session
	err     error
	logins  [][2]string
	signups [][3]string
}

func (f *fakeAuth) Login(_ context.Context, id, password string) (domain.Session, error) {
	f.logins = append(f.logins, [2]string{id, password})
	return f.session, f.err
}

func (f *fakeAuth) Signup(_ context.Context, id, password, name string) error {
	f.signups = append(f.signups, [3]string{id, password, name})
	return f.err
}
