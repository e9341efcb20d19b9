package view

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookshelf/internal/apiclient"
	"bookshelf/internal/bookclient"
	"bookshelf/internal/cover"
	"bookshelf/pkg/ai"
	"bookshelf/pkg/domain"
)

type stubImages string

func (s stubImages) GenerateImage(context.Context, ai.ImageRequest) (string, error) {
	return string(s), nil
}

func stubCovers(url string) *cover.Generator {
	return cover.NewGenerator(func(string) ai.ImageGenerator { return stubImages(url) }, nil, nil)
}

type stubArchiver struct {
	url string
	err error
	got string
}

func (s *stubArchiver) Archive(_ context.Context, userID, imageURL string) (string, error) {
	s.got = userID + "|" + imageURL
	return s.url, s.err
}

func loggedIn() *fakeSessions {
	return &fakeSessions{session: domain.Session{UserID: "u1"}}
}

func TestEditorCreateWithGeneratedCover(t *testing.T) {
	books := &fakeBooks{}
	v := NewEditor(context.Background(), EditorConfig{Books: books, Sessions: loggedIn(), Covers: stubCovers("https://img/gen.png")}, nil)
	if v.Mode() != ModeCreate {
		t.Fatalf("expected create mode")
	}
	f := v.Form()
	f.Title, f.Summary, f.APIKey = " Dune ", "Spice", "sk"
	v.SetForm(f)

	url, err := v.GenerateCover()
	if err != nil || url != "https://img/gen.png" {
		t.Fatalf("generate: %q %v", url, err)
	}
	saved, err := v.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ID != "new-1" || books.created[0].Title != "Dune" || books.created[0].CoverURL != "https://img/gen.png" {
		t.Fatalf("unexpected create: %+v %+v", saved, books.created)
	}
	if v.Preview() != "" {
		t.Fatalf("preview should be cleared after save")
	}
}

func TestEditorRequiresTitleAndLogin(t *testing.T) {
	books := &fakeBooks{}
	v := NewEditor(context.Background(), EditorConfig{Books: books, Sessions: &fakeSessions{}}, nil)
	if _, err := v.Save(); !errors.Is(err, domain.ErrValidation) || domain.IsLoginRequired(err) {
		t.Fatalf("expected title validation, got %v", err)
	}
	v.SetForm(Form{Title: "Dune"})
	if _, err := v.Save(); !domain.IsLoginRequired(err) {
		t.Fatalf("expected login required, got %v", err)
	}
	if books.calls != 0 {
		t.Fatalf("expected no book calls")
	}
}

func TestEditorDuplicateWarnsOrRejects(t *testing.T) {
	existing := []domain.Book{{ID: "1", Title: "Dune", Author: "Herbert"}}

	books := &fakeBooks{books: existing}
	v := NewEditor(context.Background(), EditorConfig{Books: books, Sessions: loggedIn()}, nil)
	v.SetForm(Form{Title: "Dune"})
	if _, err := v.Save(); err != nil {
		t.Fatalf("warn mode should save: %v", err)
	}
	if v.Warning() == "" || len(books.created) != 1 {
		t.Fatalf("expected warning and a create")
	}

	books = &fakeBooks{books: existing}
	v = NewEditor(context.Background(), EditorConfig{Books: books, Sessions: loggedIn(), RejectDuplicates: true}, nil)
	v.SetForm(Form{Title: "Dune", Author: "Herbert"})
	if _, err := v.Save(); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
	if len(books.created) != 0 {
		t.Fatalf("rejected duplicate must not be created")
	}
	v.SetForm(Form{Title: "Dune", Author: "Someone Else"})
	if _, err := v.Save(); err != nil {
		t.Fatalf("different author is not a duplicate: %v", err)
	}
}

func TestEditorEditSendsOnlyChangedFields(t *testing.T) {
	orig := domain.Book{ID: "b1", OwnerID: "u1", Title: "Old", Author: "Orwell", CoverURL: "https://old.png"}
	books := &fakeBooks{books: []domain.Book{orig}}
	v := NewEditor(context.Background(), EditorConfig{Books: books, Sessions: loggedIn()}, &orig)
	f := v.Form()
	if f.Title != "Old" || f.Author != "Orwell" {
		t.Fatalf("edit form not hydrated: %+v", f)
	}
	f.Title = "New"
	v.SetForm(f)
	saved, err := v.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	got := books.updated[0]
	if got.Title == nil || *got.Title != "New" || got.Author != nil || got.CoverURL != nil || got.Summary != nil {
		t.Fatalf("only title should be sent: %+v", got)
	}
	if saved.CoverURL != "https://old.png" {
		t.Fatalf("existing cover must be kept: %+v", saved)
	}

	if _, err := v.Save(); err != nil {
		t.Fatalf("no-op save: %v", err)
	}
	if len(books.updated) != 1 {
		t.Fatalf("unchanged form should not send an update")
	}
}

func TestEditorEditKeepsUnsentFieldsOnSparseReply(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"message":"updated"}`)
	}))
	defer ts.Close()
	books := bookclient.NewClient(apiclient.NewClient(ts.URL, nil), nil)

	orig := domain.Book{ID: "b1", OwnerID: "u1", Title: "Old", Author: "Orwell", Genre: "Dystopia", CoverURL: "https://old.png"}
	v := NewEditor(context.Background(), EditorConfig{Books: books, Sessions: loggedIn()}, &orig)
	f := v.Form()
	f.Title = "New"
	v.SetForm(f)
	saved, err := v.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ID != "b1" || saved.Title != "New" || saved.Author != "Orwell" || saved.Genre != "Dystopia" || saved.CoverURL != "https://old.png" {
		t.Fatalf("unsent fields lost: %+v", saved)
	}
	v.Reset()
	if got := v.Form(); got.Title != "New" || got.Author != "Orwell" || got.Genre != "Dystopia" {
		t.Fatalf("reset should restore the saved book: %+v", got)
	}
	if v.CoverURL() != "https://old.png" {
		t.Fatalf("cover = %q", v.CoverURL())
	}
}

func TestEditorResetModes(t *testing.T) {
	v := NewEditor(context.Background(), EditorConfig{Sessions: loggedIn()}, nil)
	v.SetForm(Form{Title: "x", APIKey: "sk", Options: cover.Options{Model: "dall-e-2"}})
	v.Reset()
	f := v.Form()
	if f.Title != "" || f.APIKey != "sk" || f.Options != cover.DefaultOptions() {
		t.Fatalf("create reset: %+v", f)
	}

	orig := domain.Book{ID: "b1", Title: "Orig", Genre: "SF"}
	v = NewEditor(context.Background(), EditorConfig{Sessions: loggedIn()}, &orig)
	v.SetForm(Form{Title: "changed"})
	v.Reset()
	if f := v.Form(); f.Title != "Orig" || f.Genre != "SF" {
		t.Fatalf("edit reset: %+v", f)
	}
}

func TestEditorArchivesPreview(t *testing.T) {
	books := &fakeBooks{}
	arch := &stubArchiver{url: "https://minio/covers/u1/x.png"}
	v := NewEditor(context.Background(), EditorConfig{Books: books, Sessions: loggedIn(), Covers: stubCovers("https://provider/tmp.png"), Archiver: arch}, nil)
	v.SetForm(Form{Title: "Dune", APIKey: "sk"})
	if _, err := v.GenerateCover(); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := v.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	if arch.got != "u1|https://provider/tmp.png" || books.created[0].CoverURL != "https://minio/covers/u1/x.png" {
		t.Fatalf("archive not used: %q %+v", arch.got, books.created[0])
	}

	arch = &stubArchiver{err: errors.New("minio down")}
	books = &fakeBooks{}
	v = NewEditor(context.Background(), EditorConfig{Books: books, Sessions: loggedIn(), Covers: stubCovers("https://provider/tmp.png"), Archiver: arch}, nil)
	v.SetForm(Form{Title: "Dune", APIKey: "sk"})
	_, _ = v.GenerateCover()
	if _, err := v.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	if books.created[0].CoverURL != "https://provider/tmp.png" || v.Warning() == "" {
		t.Fatalf("archive failure should fall back with a warning")
	}
}

func TestEditorCloseDiscardsPreview(t *testing.T) {
	v := NewEditor(context.Background(), EditorConfig{Sessions: loggedIn(), Covers: stubCovers("https://img/p.png")}, nil)
	v.SetForm(Form{Title: "Dune", APIKey: "sk"})
	if _, err := v.GenerateCover(); err != nil {
		t.Fatalf("generate: %v", err)
	}
	v.Close()
	if v.Preview() != "" {
		t.Fatalf("preview must not survive close")
	}
	if _, err := v.GenerateCover(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected closed, got %v", err)
	}
}
