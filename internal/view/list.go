package view

import (
	"context"
	"strings"
	"sync"

	"bookshelf/pkg/domain"
)

// List is the main page: the current user's books with a keyword filter.
type List struct {
	liveness
	books    BookService
	sessions Sessions

	mu      sync.Mutex
	items   []domain.Book
	keyword string
	loaded  bool
}

// NewList builds the list view.
func NewList(parent context.Context, books BookService, sessions Sessions) *List {
	v := &List{books: books, sessions: sessions}
	v.init(parent)
	return v
}

// Load fetches the current user's books. It fails with
// domain.ErrLoginRequired before any request when nobody is logged in.
func (v *List) Load() error {
	uid, err := v.sessions.RequireUser()
	if err != nil {
		return err
	}
	ctx, done, err := v.start("load")
	if err != nil {
		return err
	}
	defer done()
	items, err := v.books.List(ctx, uid)
	if err = v.finish(err); err != nil {
		return err
	}
	v.mu.Lock()
	v.items = items
	v.loaded = true
	v.mu.Unlock()
	return nil
}

// Greeting names the logged-in user.
func (v *List) Greeting() string {
	s, ok := v.sessions.Current()
	if !ok {
		return ""
	}
	return s.DisplayName()
}

// SetKeyword changes the filter.
func (v *List) SetKeyword(keyword string) {
	v.mu.Lock()
	v.keyword = keyword
	v.mu.Unlock()
}

// Books returns every loaded book.
func (v *List) Books() []domain.Book {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]domain.Book(nil), v.items...)
}

// Visible returns the loaded books that match the keyword.
func (v *List) Visible() []domain.Book {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Filter(v.items, v.keyword)
}

// Loaded reports whether a load has completed.
func (v *List) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded
}

// Logout clears the session and the loaded books.
func (v *List) Logout() error {
	ctx, done, err := v.start("logout")
	if err != nil {
		return err
	}
	defer done()
	v.mu.Lock()
	v.items = nil
	v.loaded = false
	v.mu.Unlock()
	return v.sessions.Logout(ctx)
}

// Filter keeps books whose title, author or genre contains keyword.
// A blank keyword keeps everything. Matching is case-sensitive.
func Filter(books []domain.Book, keyword string) []domain.Book {
	key := strings.TrimSpace(keyword)
	out := make([]domain.Book, 0, len(books))
	for _, b := range books {
		if key == "" || strings.Contains(b.Title, key) || strings.Contains(b.Author, key) || strings.Contains(b.Genre, key) {
			out = append(out, b)
		}
	}
	return out
}
