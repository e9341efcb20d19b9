// Package store persists library users, refresh tokens and books.
package store

import (
	"context"
	"errors"
	"time"

	"bookshelf/pkg/domain"
)

// ErrLoginIDTaken is returned when a user with the same login id exists.
var ErrLoginIDTaken = errors.New("login id already exists")

// User is a registered library account.
type User struct {
	ID           string
	LoginID      string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// Store abstracts persistence for users and books.
type Store interface {
	CreateUser(ctx context.Context, u User) error
	GetUserByLoginID(ctx context.Context, loginID string) (User, bool, error)
	GetUserByID(ctx context.Context, id string) (User, bool, error)

	SaveRefreshToken(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	// ConsumeRefreshToken removes the token and returns its user when it
	// exists and has not expired.
	ConsumeRefreshToken(ctx context.Context, tokenHash string, now time.Time) (string, bool, error)

	ListBooksByOwner(ctx context.Context, ownerID string) ([]domain.Book, error)
	GetBook(ctx context.Context, id string) (domain.Book, bool, error)
	SaveBook(ctx context.Context, b domain.Book) error
	DeleteBook(ctx context.Context, id string) error
}
