package bookclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"bookshelf/internal/apiclient"
	"bookshelf/pkg/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(apiclient.NewClient(srv.URL, nil), nil)
}

func TestListEmptyOwnerMakesNoRequest(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})
	_, err := c.List(context.Background(), " ")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("expected zero requests")
	}
}

func TestListDecodesEnvelopeAndAliases(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("userId")
		_, _ = w.Write([]byte(`{"success":true,"data":[
			{"id":1,"userId":"u1","title":"A","coverUrl":"http://c/a.png","description":"desc"},
			{"bookId":"b2","userId":"u1","title":"B","imageUrl":"http://i/b.png","coverUrl":"http://c/b.png","content":"body"},
			{"id":"b3","title":"C","thumbnailUrl":"http://t/c.png"}
		]}`))
	})
	books, err := c.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if gotQuery != "u1" {
		t.Fatalf("userId query = %q", gotQuery)
	}
	if len(books) != 3 {
		t.Fatalf("expected 3 books, got %d", len(books))
	}
	if books[0].ID != "1" || books[0].CoverURL != "http://c/a.png" || books[0].Summary != "desc" {
		t.Fatalf("only coverUrl should resolve to coverUrl: %+v", books[0])
	}
	if books[1].ID != "b2" || books[1].CoverURL != "http://i/b.png" || books[1].Summary != "body" {
		t.Fatalf("imageUrl should beat coverUrl: %+v", books[1])
	}
	if books[2].CoverURL != "http://t/c.png" {
		t.Fatalf("legacy alias not resolved: %+v", books[2])
	}
}

func TestListNullData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":null}`))
	})
	books, err := c.List(context.Background(), "u1")
	if err != nil || len(books) != 0 {
		t.Fatalf("expected empty list, got %v %v", books, err)
	}
}

func TestCreateSendsBothAliases(t *testing.T) {
	var body map[string]string
	var gotOwner string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		gotOwner = r.URL.Query().Get("userId")
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"srv-1","userId":"u1","title":"Dune","author":"Herbert","imageUrl":"http://x/c.png"}`))
	})
	b, err := c.Create(context.Background(), domain.BookDraft{
		Title:    " Dune ",
		Author:   "Herbert",
		Summary:  "Spice",
		CoverURL: "http://x/c.png",
	}, "u1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.ID != "srv-1" || b.OwnerID != "u1" {
		t.Fatalf("server id not used: %+v", b)
	}
	if gotOwner != "u1" {
		t.Fatalf("owner query = %q", gotOwner)
	}
	if body["imageUrl"] != "http://x/c.png" || body["imageUrl"] != body["coverUrl"] {
		t.Fatalf("cover aliases differ: %+v", body)
	}
	if body["content"] != "Spice" || body["content"] != body["description"] {
		t.Fatalf("text aliases differ: %+v", body)
	}
	if body["title"] != "Dune" {
		t.Fatalf("title not trimmed: %q", body["title"])
	}
	if v, ok := body["genre"]; !ok || v != "" {
		t.Fatalf("unset fields should be sent empty: %+v", body)
	}
}

func TestCreateRequiresTitle(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request")
	})
	if _, err := c.Create(context.Background(), domain.BookDraft{Author: "x"}, "u1"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := c.Create(context.Background(), domain.BookDraft{Title: "x"}, ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateSendsOnlySetFields(t *testing.T) {
	var raw map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/books/b1" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&raw)
		_, _ = w.Write([]byte(`{"id":"b1","title":"New"}`))
	})
	b, err := c.Update(context.Background(), "b1", domain.BookFields{Title: domain.String("New")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(raw) != 1 || raw["title"] != "New" {
		t.Fatalf("expected only title in payload, got %+v", raw)
	}
	if b.Title != "New" || b.ID != "b1" {
		t.Fatalf("unexpected book: %+v", b)
	}
}

func TestUpdateFieldsOnSparseReply(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"message":"updated"}`))
	})
	f, err := c.UpdateFields(context.Background(), "b1", domain.BookFields{Title: domain.String("New")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if f.ID == nil || *f.ID != "b1" || f.Title == nil || *f.Title != "New" {
		t.Fatalf("sent fields must be known: %+v", f)
	}
	if f.Author != nil || f.CoverURL != nil {
		t.Fatalf("unsent fields must stay absent: %+v", f)
	}
}

func TestGetFailureSurfacesServerMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"message":"book not found"}`))
	})
	_, err := c.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrServer) || domain.UserMessage(err, "") != "book not found" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGetAllKeepsOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/books/"):]
		_, _ = w.Write([]byte(`{"data":{"id":"` + id + `","title":"T-` + id + `"}}`))
	})
	books, err := c.GetAll(context.Background(), []string{"3", "1", "2"})
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	for i, want := range []string{"3", "1", "2"} {
		if books[i].ID != want || books[i].Title != "T-"+want {
			t.Fatalf("position %d: %+v", i, books[i])
		}
	}
}

func TestDelete(t *testing.T) {
	var method string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.WriteHeader(http.StatusNoContent)
	})
	if err := c.Delete(context.Background(), "b1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if method != http.MethodDelete {
		t.Fatalf("method = %s", method)
	}
}

func TestIsDuplicate(t *testing.T) {
	existing := []domain.Book{{ID: "1", OwnerID: "u1", Title: "Dune", Author: "Herbert"}}
	cases := []struct {
		name                 string
		owner, title, author string
		want                 bool
	}{
		{"same owner and title without author", "u1", " Dune ", "", true},
		{"same author", "u1", "Dune", "Herbert", true},
		{"different author", "u1", "Dune", "Someone", false},
		{"different owner", "u2", "Dune", "", false},
		{"empty owner", "", "Dune", "", false},
		{"empty title", "u1", "  ", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsDuplicate(existing, tc.owner, tc.title, tc.author); got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}
