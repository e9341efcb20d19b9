package cover

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"bookshelf/pkg/ai"
	"bookshelf/pkg/domain"
)

type fakeImages struct {
	mu     sync.Mutex
	url    string
	err    error
	block  chan struct{}
	gotKey string
	gotReq ai.ImageRequest
	calls  int
}

func (f *fakeImages) factory() ImageFactory {
	return func(apiKey string) ai.ImageGenerator {
		f.mu.Lock()
		f.gotKey = apiKey
		f.mu.Unlock()
		return f
	}
}

func (f *fakeImages) GenerateImage(ctx context.Context, req ai.ImageRequest) (string, error) {
	f.mu.Lock()
	f.calls++
	f.gotReq = req
	block := f.block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.url, f.err
}

type fakeRefiner struct {
	text string
	err  error
}

func (f fakeRefiner) GenerateText(context.Context, string, string) (string, error) {
	return f.text, f.err
}

func TestBuildPromptDefaults(t *testing.T) {
	got := BuildPrompt("", "", "A boy meets a fox.")
	if !strings.Contains(got, "Genre: undecided.") || !strings.Contains(got, `Title: "untitled".`) || !strings.Contains(got, "Summary: A boy meets a fox.") {
		t.Fatalf("unexpected prompt: %s", got)
	}
}

func TestGenerateValidation(t *testing.T) {
	fake := &fakeImages{url: "u"}
	g := NewGenerator(fake.factory(), nil, nil)

	if _, err := g.Generate(context.Background(), Request{Title: "x"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("missing key should be validation, got %v", err)
	}
	if _, err := g.Generate(context.Background(), Request{APIKey: "k", Genre: "sf"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("missing title and summary should be validation, got %v", err)
	}
	if fake.calls != 0 {
		t.Fatalf("image api must not be called")
	}
}

func TestGenerateUsesDefaultsAndTemplate(t *testing.T) {
	fake := &fakeImages{url: "https://img/1.png"}
	g := NewGenerator(fake.factory(), nil, nil)

	res, err := g.Generate(context.Background(), Request{APIKey: " sk ", Title: "Dune", Genre: "SF"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.URL != "https://img/1.png" || res.Prompt != BuildPrompt("Dune", "SF", "") {
		t.Fatalf("unexpected result: %+v", res)
	}
	if fake.gotKey != "sk" {
		t.Fatalf("api key = %q", fake.gotKey)
	}
	if fake.gotReq.Model != DefaultModel || fake.gotReq.Size != DefaultSize || fake.gotReq.Quality != DefaultQuality || fake.gotReq.Style != DefaultStyle {
		t.Fatalf("defaults not applied: %+v", fake.gotReq)
	}
}

func TestGenerateRefinerAndCustomPrompt(t *testing.T) {
	fake := &fakeImages{url: "u"}
	g := NewGenerator(fake.factory(), fakeRefiner{text: " refined "}, nil)
	if _, err := g.Generate(context.Background(), Request{APIKey: "k", Title: "Dune"}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if fake.gotReq.Prompt != "refined" {
		t.Fatalf("refined prompt not used: %q", fake.gotReq.Prompt)
	}
	if _, err := g.Generate(context.Background(), Request{APIKey: "k", Title: "Dune", Prompt: "my prompt"}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if fake.gotReq.Prompt != "my prompt" {
		t.Fatalf("custom prompt not used: %q", fake.gotReq.Prompt)
	}

	g = NewGenerator(fake.factory(), fakeRefiner{err: errors.New("down")}, nil)
	if _, err := g.Generate(context.Background(), Request{APIKey: "k", Title: "Dune"}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if fake.gotReq.Prompt != BuildPrompt("Dune", "", "") {
		t.Fatalf("refiner failure should fall back to template: %q", fake.gotReq.Prompt)
	}
}

func TestGenerateExternalFailure(t *testing.T) {
	fake := &fakeImages{err: &ai.APIError{Provider: "openai", Status: 400, Message: "Billing hard limit reached"}}
	g := NewGenerator(fake.factory(), nil, nil)
	_, err := g.Generate(context.Background(), Request{APIKey: "k", Title: "Dune"})
	if !errors.Is(err, domain.ErrExternalService) || domain.UserMessage(err, "") != "Billing hard limit reached" {
		t.Fatalf("unexpected error: %v", err)
	}

	fake.err = errors.New("boom")
	_, err = g.Generate(context.Background(), Request{APIKey: "k", Title: "Dune"})
	if domain.UserMessage(err, "") != "image generation failed" {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestPreviewBusyGuard(t *testing.T) {
	fake := &fakeImages{url: "https://img/2.png", block: make(chan struct{})}
	g := NewGenerator(fake.factory(), nil, nil)
	var p Preview

	done := make(chan error, 1)
	go func() {
		_, err := p.Generate(context.Background(), g, Request{APIKey: "k", Title: "Dune"})
		done <- err
	}()
	deadline := time.Now().Add(2 * time.Second)
	for !p.Busy() {
		if time.Now().After(deadline) {
			t.Fatalf("generation never started")
		}
		time.Sleep(time.Millisecond)
	}
	if _, err := p.Generate(context.Background(), g, Request{APIKey: "k", Title: "Dune"}); !errors.Is(err, ErrCoverBusy) {
		t.Fatalf("expected ErrCoverBusy, got %v", err)
	}
	close(fake.block)
	if err := <-done; err != nil {
		t.Fatalf("first generation: %v", err)
	}
	if p.URL() != "https://img/2.png" || p.Busy() {
		t.Fatalf("unexpected preview state")
	}
	if p.Resolve("https://old.png") != "https://img/2.png" {
		t.Fatalf("preview should win")
	}
	p.Discard()
	if p.Resolve(" https://old.png ") != "https://old.png" {
		t.Fatalf("existing cover should be kept after discard")
	}
}

func TestPreviewCancelledKeepsPreviousCandidate(t *testing.T) {
	fake := &fakeImages{url: "first"}
	g := NewGenerator(fake.factory(), nil, nil)
	var p Preview
	if _, err := p.Generate(context.Background(), g, Request{APIKey: "k", Title: "x"}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	fake.url = "second"
	fake.block = make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Generate(ctx, g, Request{APIKey: "k", Title: "x"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancel, got %v", err)
	}
	if p.URL() != "first" {
		t.Fatalf("late result must not replace the candidate, got %q", p.URL())
	}
}

type memObjects struct {
	mu   sync.Mutex
	objs map[string][]byte
	ct   map[string]string
}

func (m *memObjects) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objs[key] = data
	m.ct[key] = contentType
	return nil
}

func (m *memObjects) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://minio.local/bucket/" + key + "?sig=1", nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objs, key)
	return nil
}

func TestArchiverStoresUnderUserPrefix(t *testing.T) {
	png := []byte("\x89PNG fake")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}))
	defer srv.Close()

	objs := &memObjects{objs: map[string][]byte{}, ct: map[string]string{}}
	url, err := NewArchiver(objs, nil).Archive(context.Background(), "u1", srv.URL+"/img.png")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if !strings.HasPrefix(url, "https://minio.local/bucket/covers/u1/") {
		t.Fatalf("unexpected url %q", url)
	}
	if len(objs.objs) != 1 {
		t.Fatalf("expected one object, got %d", len(objs.objs))
	}
	for key, data := range objs.objs {
		if !strings.HasSuffix(key, ".png") || !bytes.Equal(data, png) || objs.ct[key] != "image/png" {
			t.Fatalf("unexpected object %s", key)
		}
	}
}

func TestArchiverRequiresUser(t *testing.T) {
	objs := &memObjects{objs: map[string][]byte{}, ct: map[string]string{}}
	if _, err := NewArchiver(objs, nil).Archive(context.Background(), "", "http://x"); !domain.IsLoginRequired(err) {
		t.Fatalf("expected login required, got %v", err)
	}
}

func TestArchiverRejectsOversizedStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		for i := 0; i < 4; i++ {
			_, _ = w.Write(bytes.Repeat([]byte("x"), 8))
			w.(http.Flusher).Flush()
		}
	}))
	defer srv.Close()

	objs := &memObjects{objs: map[string][]byte{}, ct: map[string]string{}}
	a := NewArchiver(objs, nil)
	a.maxBytes = 16
	if _, err := a.Archive(context.Background(), "u1", srv.URL+"/img.png"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(objs.objs) != 0 {
		t.Fatalf("oversized cover must not be stored, got %d objects", len(objs.objs))
	}

	a.maxBytes = 32
	if _, err := a.Archive(context.Background(), "u1", srv.URL+"/img.png"); err != nil {
		t.Fatalf("cover at the limit: %v", err)
	}
	for _, data := range objs.objs {
		if len(data) != 32 {
			t.Fatalf("stored %d bytes, want 32", len(data))
		}
	}
}
