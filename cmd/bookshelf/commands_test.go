package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"bookshelf/internal/apiclient"
	"bookshelf/internal/bookclient"
	"bookshelf/internal/session"
	"bookshelf/pkg/domain"
	"bookshelf/pkg/store"
)

func TestBookCommandsRequireLogin(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"data":{"id":"b1","title":"Secret"}}`)
	}))
	defer ts.Close()

	ctx := context.Background()
	mgr, err := session.NewManager(ctx, store.NewMemoryStore())
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a := &app{
		logger:  logger,
		session: mgr,
		books:   bookclient.NewClient(apiclient.NewClient(ts.URL, mgr), logger),
	}

	cases := map[string]func() error{
		"show one":  func() error { return a.cmdShow(ctx, []string{"b1"}) },
		"show many": func() error { return a.cmdShow(ctx, []string{"b1", "b2"}) },
		"delete":    func() error { return a.cmdDelete(ctx, []string{"b1"}) },
		"edit":      func() error { return a.cmdEdit(ctx, []string{"b1", "-title", "x"}) },
	}
	for name, run := range cases {
		if err := run(); !domain.IsLoginRequired(err) {
			t.Fatalf("%s: expected login required, got %v", name, err)
		}
	}
	if n := hits.Load(); n != 0 {
		t.Fatalf("logged-out commands sent %d requests", n)
	}
}
