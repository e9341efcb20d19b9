package cover

import (
	"context"
	"strings"
	"sync"

	"bookshelf/pkg/domain"
)

// ErrCoverBusy is returned when a generation is already outstanding.
var ErrCoverBusy = &domain.Error{Kind: domain.KindValidation, Message: "cover generation already in progress"}

// Preview holds the unsaved candidate cover of one editor.
type Preview struct {
	mu     sync.Mutex
	busy   bool
	url    string
	prompt string
}

// Generate runs g with req unless another generation is in flight. On
// success the candidate replaces the previous one.
func (p *Preview) Generate(ctx context.Context, g *Generator, req Request) (Result, error) {
	p.mu.Lock()
	if p.busy {
		p.mu.Unlock()
		return Result{}, ErrCoverBusy
	}
	p.busy = true
	p.mu.Unlock()

	res, err := g.Generate(ctx, req)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.busy = false
	if err != nil {
		return Result{}, err
	}
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	p.url = res.URL
	p.prompt = res.Prompt
	return res, nil
}

// Busy reports whether a generation is outstanding.
func (p *Preview) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.busy
}

// URL returns the candidate image URL, empty when none.
func (p *Preview) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// Prompt returns the prompt that produced the candidate.
func (p *Preview) Prompt() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prompt
}

// Discard drops the candidate.
func (p *Preview) Discard() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = ""
	p.prompt = ""
}

// Resolve returns the cover to persist: the candidate when present, else existing.
func (p *Preview) Resolve(existing string) string {
	if u := p.URL(); u != "" {
		return u
	}
	return strings.TrimSpace(existing)
}
