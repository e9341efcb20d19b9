package view

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"bookshelf/pkg/domain"
)

// DetailState is the hydration stage of the detail view.
type DetailState int

const (
	DetailInitial DetailState = iota
	DetailFromNav
	DetailFromServer
	DetailError
)

func (s DetailState) String() string {
	switch s {
	case DetailFromNav:
		return "hydrated_from_nav"
	case DetailFromServer:
		return "hydrated_from_server"
	case DetailError:
		return "error"
	default:
		return "initial"
	}
}

const invalidAccess = "invalid access"

// Detail shows one book. It starts from the book carried by navigation, if
// any, and overlays whatever fields the server returns.
type Detail struct {
	liveness
	books    BookService
	sessions Sessions
	id       string

	mu      sync.Mutex
	state   DetailState
	book    domain.Book
	message string
}

// DetailSnapshot is what the front-end renders.
type DetailSnapshot struct {
	State   DetailState
	Book    domain.Book
	Message string
	// CoverURL is empty when the placeholder should be drawn.
	CoverURL string
	Body     string
}

// NewDetail builds the detail view for route id. nav is the book carried
// from the list, or nil.
func NewDetail(parent context.Context, books BookService, sessions Sessions, id string, nav *domain.Book) *Detail {
	v := &Detail{books: books, sessions: sessions, id: strings.TrimSpace(id)}
	v.init(parent)
	switch {
	case v.id == "":
		v.state = DetailError
		v.message = invalidAccess
	case nav != nil:
		v.state = DetailFromNav
		v.book = *nav
	}
	return v
}

// Load fetches the book and merges it over the current state.
func (v *Detail) Load() error {
	if _, err := v.sessions.RequireUser(); err != nil {
		return err
	}
	if v.id == "" {
		return domain.Validation(invalidAccess)
	}
	ctx, done, err := v.start("load")
	if err != nil {
		return err
	}
	defer done()
	fields, err := v.books.GetFields(ctx, v.id)
	if err = v.finish(err); err != nil {
		if err == ErrClosed {
			return err
		}
		v.mu.Lock()
		v.message = domain.UserMessage(err, "could not load the book")
		if v.state != DetailFromNav {
			v.state = DetailError
		}
		v.mu.Unlock()
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if fields.Empty() {
		v.state = DetailError
		v.message = "book not found"
		return &domain.Error{Kind: domain.KindServer, Status: http.StatusNotFound, Message: v.message}
	}
	v.book = fields.Apply(v.book)
	v.state = DetailFromServer
	v.message = ""
	return nil
}

// Snapshot returns the current state.
func (v *Detail) Snapshot() DetailSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	cover, _ := v.book.CoverSource()
	return DetailSnapshot{
		State:    v.state,
		Book:     v.book,
		Message:  v.message,
		CoverURL: cover,
		Body:     PlainText(v.book.SummaryText()),
	}
}

// EditTarget returns the book to hand to the editor.
func (v *Detail) EditTarget() (domain.Book, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state != DetailFromNav && v.state != DetailFromServer {
		return domain.Book{}, false
	}
	b := v.book
	if b.ID == "" {
		b.ID = v.id
	}
	return b, true
}

// Delete removes the book. The caller returns to the list on success.
func (v *Detail) Delete() error {
	if _, err := v.sessions.RequireUser(); err != nil {
		return err
	}
	target, ok := v.EditTarget()
	if !ok {
		return domain.Validation("no book to delete")
	}
	ctx, done, err := v.start("delete")
	if err != nil {
		return err
	}
	defer done()
	return v.finish(v.books.Delete(ctx, target.ID))
}
