package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bookshelf/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&UserModel{}, &RefreshTokenModel{}, &BookModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) CreateUser(ctx context.Context, u User) error {
	model := userToModel(u)
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "login_id"}}, DoNothing: true}).
		Create(&model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrLoginIDTaken
	}
	return nil
}

func (s *GormStore) GetUserByLoginID(ctx context.Context, loginID string) (User, bool, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).Where("login_id = ?", loginID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, false, nil
		}
		return User{}, false, err
	}
	return userFromModel(model), true, nil
}

func (s *GormStore) GetUserByID(ctx context.Context, id string) (User, bool, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, false, nil
		}
		return User{}, false, err
	}
	return userFromModel(model), true, nil
}

func (s *GormStore) SaveRefreshToken(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	model := RefreshTokenModel{TokenHash: tokenHash, UserID: userID, ExpiresAt: expiresAt.UTC()}
	return s.db.WithContext(ctx).Create(&model).Error
}

func (s *GormStore) ConsumeRefreshToken(ctx context.Context, tokenHash string, now time.Time) (string, bool, error) {
	var models []RefreshTokenModel
	res := s.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("token_hash = ?", tokenHash).
		Delete(&models)
	if res.Error != nil {
		return "", false, res.Error
	}
	if len(models) == 0 || !now.Before(models[0].ExpiresAt) {
		return "", false, nil
	}
	return models[0].UserID, true, nil
}

func (s *GormStore) ListBooksByOwner(ctx context.Context, ownerID string) ([]domain.Book, error) {
	var models []BookModel
	if err := s.db.WithContext(ctx).Order("created_at ASC").Where("owner_id = ?", ownerID).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Book, 0, len(models))
	for _, m := range models {
		res = append(res, bookFromModel(m))
	}
	return res, nil
}

func (s *GormStore) GetBook(ctx context.Context, id string) (domain.Book, bool, error) {
	var model BookModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Book{}, false, nil
		}
		return domain.Book{}, false, err
	}
	return bookFromModel(model), true, nil
}

// SaveBook stores or updates a book.
func (s *GormStore) SaveBook(ctx context.Context, b domain.Book) error {
	model := bookToModel(b)
	now := time.Now().UTC()
	model.CreatedAt = now
	model.UpdatedAt = now
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "author", "genre", "summary", "cover_url", "cover_prompt", "updated_at"}),
	}).Create(&model).Error
}

func (s *GormStore) DeleteBook(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&BookModel{}, "id = ?", id).Error
}
