package app

import (
	"context"
	"errors"
	"testing"

	"bookshelf/internal/usertoken"
	"bookshelf/pkg/domain"
	"bookshelf/services/library/internal/store"
)

const testPassword = "Str0ng#Password!"

func newTestApp(t *testing.T) *App {
	t.Helper()
	tokens, err := usertoken.NewManager(usertoken.Config{Secret: "library-test-secret"})
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	a, err := New(Config{Store: store.NewMemoryStore(), Tokens: tokens})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return a
}

func TestSignUpLoginAndRefresh(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	user, err := a.SignUp(ctx, "  alice ", testPassword, "")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if user.LoginID != "alice" || user.Name != "alice" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if _, err := a.SignUp(ctx, "alice", testPassword, "Again"); !errors.Is(err, ErrLoginIDAlreadyExists) {
		t.Fatalf("expected duplicate login id, got %v", err)
	}
	if _, _, err := a.Login(ctx, "alice", "Wr0ng#Password!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	_, tokens, err := a.Login(ctx, "alice", testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	sub, err := a.Authenticate(tokens.AccessToken)
	if err != nil || sub != user.ID {
		t.Fatalf("authenticate: %q %v", sub, err)
	}
	_, rotated, err := a.Refresh(ctx, tokens.RefreshToken)
	if err != nil || rotated.RefreshToken == tokens.RefreshToken {
		t.Fatalf("refresh: %+v %v", rotated, err)
	}
	if _, _, err := a.Refresh(ctx, tokens.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("old refresh token must be rejected, got %v", err)
	}
}

func TestSignUpEnforcesPasswordPolicy(t *testing.T) {
	a := newTestApp(t)
	_, err := a.SignUp(context.Background(), "bob", "short", "")
	var inputErr *InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected input error, got %v", err)
	}
}

func TestBookLifecycleIsOwnerScoped(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	book, err := a.CreateBook(ctx, "u1", domain.BookDraft{Title: " 1984 ", Author: "Orwell", Genre: "Dystopia"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if book.ID == "" || book.Title != "1984" || book.OwnerID != "u1" {
		t.Fatalf("unexpected book: %+v", book)
	}
	if _, err := a.CreateBook(ctx, "u1", domain.BookDraft{Title: "  "}); !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("expected title required, got %v", err)
	}
	if _, err := a.GetBook(ctx, "u2", book.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	updated, err := a.UpdateBook(ctx, "u1", book.ID, domain.BookFields{
		Title:   domain.String("Nineteen Eighty-Four"),
		OwnerID: domain.String("u2"),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Nineteen Eighty-Four" || updated.Author != "Orwell" || updated.OwnerID != "u1" {
		t.Fatalf("update must touch only present fields: %+v", updated)
	}

	if err := a.DeleteBook(ctx, "u1", book.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := a.GetBook(ctx, "u1", book.ID); !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
