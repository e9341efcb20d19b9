// Package app is the library backend core: accounts, tokens and books.
package app

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"bookshelf/internal/usertoken"
	"bookshelf/pkg/auth"
	"bookshelf/pkg/domain"
	"bookshelf/services/library/internal/store"
)

// Config holds runtime configuration for the core application.
type Config struct {
	Store      store.Store
	Tokens     *usertoken.Manager
	RefreshTTL time.Duration
}

// Tokens is the pair issued on login and refresh.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// App wires storage and auth logic.
type App struct {
	store      store.Store
	tokens     *usertoken.Manager
	refreshTTL time.Duration
	now        func() time.Time
}

// New constructs the application.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, errors.New("store required")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("token manager required")
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &App{
		store:      cfg.Store,
		tokens:     cfg.Tokens,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}, nil
}

// SignUp registers a user. An empty name defaults to the login id.
func (a *App) SignUp(ctx context.Context, loginID, password, name string) (store.User, error) {
	loginID = strings.TrimSpace(loginID)
	if loginID == "" || password == "" {
		return store.User{}, ErrLoginIDAndPasswordRequired
	}
	if err := auth.ValidatePassword(password); err != nil {
		return store.User{}, &InputError{Err: err}
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return store.User{}, fmt.Errorf("hash password: %w", err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = loginID
	}
	user := store.User{
		ID:           uuid.NewString(),
		LoginID:      loginID,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    a.now().UTC(),
	}
	if err := a.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrLoginIDTaken) {
			return store.User{}, ErrLoginIDAlreadyExists
		}
		return store.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login checks credentials and issues a token pair.
func (a *App) Login(ctx context.Context, loginID, password string) (store.User, Tokens, error) {
	loginID = strings.TrimSpace(loginID)
	if loginID == "" || password == "" {
		return store.User{}, Tokens{}, ErrLoginIDAndPasswordRequired
	}
	user, ok, err := a.store.GetUserByLoginID(ctx, loginID)
	if err != nil {
		return store.User{}, Tokens{}, fmt.Errorf("get user: %w", err)
	}
	if !ok || !auth.CheckPassword(password, user.PasswordHash) {
		return store.User{}, Tokens{}, ErrInvalidCredentials
	}
	tokens, err := a.issueTokens(ctx, user)
	if err != nil {
		return store.User{}, Tokens{}, err
	}
	return user, tokens, nil
}

// Refresh rotates a refresh token into a new pair.
func (a *App) Refresh(ctx context.Context, refreshToken string) (store.User, Tokens, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return store.User{}, Tokens{}, ErrRefreshTokenRequired
	}
	userID, ok, err := a.store.ConsumeRefreshToken(ctx, hashToken(refreshToken), a.now())
	if err != nil {
		return store.User{}, Tokens{}, fmt.Errorf("consume refresh token: %w", err)
	}
	if !ok {
		return store.User{}, Tokens{}, ErrInvalidRefreshToken
	}
	user, err := a.Me(ctx, userID)
	if err != nil {
		return store.User{}, Tokens{}, ErrInvalidRefreshToken
	}
	tokens, err := a.issueTokens(ctx, user)
	if err != nil {
		return store.User{}, Tokens{}, err
	}
	return user, tokens, nil
}

// Authenticate validates an access token and returns its user id.
func (a *App) Authenticate(token string) (string, error) {
	return a.tokens.VerifySubject(token)
}

// Me returns the user behind userID.
func (a *App) Me(ctx context.Context, userID string) (store.User, error) {
	user, ok, err := a.store.GetUserByID(ctx, userID)
	if err != nil {
		return store.User{}, fmt.Errorf("get user: %w", err)
	}
	if !ok {
		return store.User{}, ErrUserNotFound
	}
	return user, nil
}

func (a *App) issueTokens(ctx context.Context, user store.User) (Tokens, error) {
	access, err := a.tokens.Issue(user.ID, user.Name)
	if err != nil {
		return Tokens{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := randomToken()
	if err != nil {
		return Tokens{}, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := a.store.SaveRefreshToken(ctx, hashToken(refresh), user.ID, a.now().Add(a.refreshTTL)); err != nil {
		return Tokens{}, fmt.Errorf("save refresh token: %w", err)
	}
	return Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

// ListBooks returns the owner's books in creation order.
func (a *App) ListBooks(ctx context.Context, ownerID string) ([]domain.Book, error) {
	return a.store.ListBooksByOwner(ctx, ownerID)
}

// GetBook returns a book owned by ownerID.
func (a *App) GetBook(ctx context.Context, ownerID, id string) (domain.Book, error) {
	book, ok, err := a.store.GetBook(ctx, id)
	if err != nil {
		return domain.Book{}, fmt.Errorf("get book: %w", err)
	}
	if !ok {
		return domain.Book{}, ErrBookNotFound
	}
	if book.OwnerID != ownerID {
		return domain.Book{}, ErrForbidden
	}
	return book, nil
}

// CreateBook stores a new book with a fresh id.
func (a *App) CreateBook(ctx context.Context, ownerID string, draft domain.BookDraft) (domain.Book, error) {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return domain.Book{}, ErrTitleRequired
	}
	book := domain.Book{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       title,
		Author:      draft.Author,
		Genre:       draft.Genre,
		Summary:     draft.Summary,
		CoverURL:    draft.CoverURL,
		CoverPrompt: draft.CoverPrompt,
	}
	if err := a.store.SaveBook(ctx, book); err != nil {
		return domain.Book{}, fmt.Errorf("save book: %w", err)
	}
	return book, nil
}

// UpdateBook changes only the fields present in f. ID and owner never change.
func (a *App) UpdateBook(ctx context.Context, ownerID, id string, f domain.BookFields) (domain.Book, error) {
	book, err := a.GetBook(ctx, ownerID, id)
	if err != nil {
		return domain.Book{}, err
	}
	if f.Title != nil && strings.TrimSpace(*f.Title) == "" {
		return domain.Book{}, ErrTitleRequired
	}
	f.ID, f.OwnerID = nil, nil
	book = f.Apply(book)
	if err := a.store.SaveBook(ctx, book); err != nil {
		return domain.Book{}, fmt.Errorf("save book: %w", err)
	}
	return book, nil
}

// DeleteBook removes a book owned by ownerID.
func (a *App) DeleteBook(ctx context.Context, ownerID, id string) error {
	if _, err := a.GetBook(ctx, ownerID, id); err != nil {
		return err
	}
	if err := a.store.DeleteBook(ctx, id); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	return nil
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
