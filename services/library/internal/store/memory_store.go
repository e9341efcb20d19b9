package store

import (
	"context"
	"sync"
	"time"

	"bookshelf/pkg/domain"
)

type refreshEntry struct {
	userID    string
	expiresAt time.Time
}

// MemoryStore keeps everything in process memory. Books list in insertion order.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]User
	byLoginID map[string]string
	refresh   map[string]refreshEntry
	books     map[string]domain.Book
	order     []string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]User),
		byLoginID: make(map[string]string),
		refresh:   make(map[string]refreshEntry),
		books:     make(map[string]domain.Book),
	}
}

func (s *MemoryStore) CreateUser(_ context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byLoginID[u.LoginID]; ok {
		return ErrLoginIDTaken
	}
	s.users[u.ID] = u
	s.byLoginID[u.LoginID] = u.ID
	return nil
}

func (s *MemoryStore) GetUserByLoginID(_ context.Context, loginID string) (User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byLoginID[loginID]
	if !ok {
		return User{}, false, nil
	}
	return s.users[id], true, nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id string) (User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok, nil
}

func (s *MemoryStore) SaveRefreshToken(_ context.Context, tokenHash, userID string, expiresAt time.Time) error {
	s.mu.Lock()
	s.refresh[tokenHash] = refreshEntry{userID: userID, expiresAt: expiresAt}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ConsumeRefreshToken(_ context.Context, tokenHash string, now time.Time) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.refresh[tokenHash]
	if !ok {
		return "", false, nil
	}
	delete(s.refresh, tokenHash)
	if !now.Before(entry.expiresAt) {
		return "", false, nil
	}
	return entry.userID, true, nil
}

func (s *MemoryStore) ListBooksByOwner(_ context.Context, ownerID string) ([]domain.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Book, 0)
	for _, id := range s.order {
		if b := s.books[id]; b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *MemoryStore) GetBook(_ context.Context, id string) (domain.Book, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.books[id]
	return b, ok, nil
}

func (s *MemoryStore) SaveBook(_ context.Context, b domain.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[b.ID]; !ok {
		s.order = append(s.order, b.ID)
	}
	s.books[b.ID] = b
	return nil
}

func (s *MemoryStore) DeleteBook(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[id]; !ok {
		return nil
	}
	delete(s.books, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
