package session

import (
	"context"
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"bookshelf/pkg/domain"
	"bookshelf/pkg/store"
)

func TestManagerLoadsPersistedSession(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	_ = st.Set(ctx, store.KeyCurrentUserID, "u-1")
	_ = st.Set(ctx, store.KeyCurrentUserName, "Alice")
	_ = st.Set(ctx, store.KeyAccessToken, "at")

	m, err := NewManager(ctx, st)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	s, ok := m.Current()
	if !ok || s.UserID != "u-1" || s.UserName != "Alice" || m.AccessToken() != "at" {
		t.Fatalf("unexpected session %+v ok=%v", s, ok)
	}
	if id, err := m.RequireUser(); err != nil || id != "u-1" {
		t.Fatalf("require user: %q %v", id, err)
	}
}

func TestRequireUserWithoutUserID(t *testing.T) {
	m, err := NewManager(context.Background(), store.NewMemoryStore())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := m.RequireUser(); !errors.Is(err, domain.ErrLoginRequired) {
		t.Fatalf("expected ErrLoginRequired, got %v", err)
	}
}

func TestLogoutClearsStorageAndNotifies(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	m, err := NewManager(ctx, st)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	var events []EventType
	cancel := m.Subscribe(func(ev Event) { events = append(events, ev.Type) })

	if err := m.SaveTokens(ctx, "at", "rt"); err != nil {
		t.Fatalf("save tokens: %v", err)
	}
	if err := m.Save(ctx, domain.Session{UserID: "u-1", AccessToken: "at", RefreshToken: "rt"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if name, _, _ := st.Get(ctx, store.KeyCurrentUserName); name != "u-1" {
		t.Fatalf("user name should fall back to id, got %q", name)
	}
	if err := m.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	for _, key := range store.SessionKeys {
		if _, ok, _ := st.Get(ctx, key); ok {
			t.Fatalf("key %s should be removed", key)
		}
	}
	if _, ok := m.Current(); ok {
		t.Fatal("session should be cleared")
	}

	cancel()
	_ = m.SaveTokens(ctx, "at2", "")

	want := []EventType{EventTokens, EventLogin, EventLogout}
	if len(events) != len(want) {
		t.Fatalf("unexpected events %v", events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("unexpected events %v", events)
		}
	}
}

func TestInspectToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u-1",
		Issuer:    "bookshelf-library",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	info, err := InspectToken(signed)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if info.Subject != "u-1" || info.Issuer != "bookshelf-library" || !info.ExpiresAt.Equal(exp) {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := InspectToken("not-a-jwt"); err == nil {
		t.Fatal("expected parse error")
	}
}
