package store

import (
	"time"

	"bookshelf/pkg/domain"
)

// GORM models used for persistence.
type UserModel struct {
	ID           string    `gorm:"primaryKey"`
	LoginID      string    `gorm:"uniqueIndex;not null"`
	Name         string    `gorm:"not null"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

type RefreshTokenModel struct {
	TokenHash string    `gorm:"primaryKey"`
	UserID    string    `gorm:"not null;index"`
	ExpiresAt time.Time `gorm:"not null"`
}

type BookModel struct {
	ID          string `gorm:"primaryKey"`
	OwnerID     string `gorm:"not null;index"`
	Title       string `gorm:"not null"`
	Author      string
	Genre       string
	Summary     string    `gorm:"type:text"`
	CoverURL    string    `gorm:"type:text"`
	CoverPrompt string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func userToModel(u User) UserModel {
	return UserModel{
		ID:           u.ID,
		LoginID:      u.LoginID,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

func userFromModel(m UserModel) User {
	return User{
		ID:           m.ID,
		LoginID:      m.LoginID,
		Name:         m.Name,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
	}
}

func bookToModel(b domain.Book) BookModel {
	return BookModel{
		ID:          b.ID,
		OwnerID:     b.OwnerID,
		Title:       b.Title,
		Author:      b.Author,
		Genre:       b.Genre,
		Summary:     b.Summary,
		CoverURL:    b.CoverURL,
		CoverPrompt: b.CoverPrompt,
	}
}

func bookFromModel(m BookModel) domain.Book {
	return domain.Book{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Title:       m.Title,
		Author:      m.Author,
		Genre:       m.Genre,
		Summary:     m.Summary,
		CoverURL:    m.CoverURL,
		CoverPrompt: m.CoverPrompt,
	}
}
