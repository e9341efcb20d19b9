// Package bookclient lists, reads and edits the books of one owner.
package bookclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"bookshelf/internal/apiclient"
	"bookshelf/pkg/domain"
)

const fetchConcurrency = 4

// Client calls the book endpoints.
type Client struct {
	api    *apiclient.Client
	logger *slog.Logger
}

// NewClient constructs a book client.
func NewClient(api *apiclient.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{api: api, logger: logger}
}

// List returns the books of ownerID. Ownership is not re-checked here.
func (c *Client) List(ctx context.Context, ownerID string) ([]domain.Book, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, domain.Validation("owner id required")
	}
	items, err := apiclient.Call[bookList](ctx, c.api, http.MethodGet, "/books", ownerQuery(ownerID), nil).Unwrap()
	if err != nil {
		return nil, err
	}
	books := make([]domain.Book, 0, len(items))
	for _, w := range items {
		books = append(books, w.book())
	}
	return books, nil
}

// GetFields returns the book exactly as far as the server described it.
func (c *Client) GetFields(ctx context.Context, id string) (domain.BookFields, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.BookFields{}, domain.Validation("book id required")
	}
	w, err := apiclient.Call[wireBook](ctx, c.api, http.MethodGet, bookPath(id), nil, nil).Unwrap()
	if err != nil {
		return domain.BookFields{}, err
	}
	return w.fields(), nil
}

// Get returns one book.
func (c *Client) Get(ctx context.Context, id string) (domain.Book, error) {
	f, err := c.GetFields(ctx, id)
	if err != nil {
		return domain.Book{}, err
	}
	return f.Apply(domain.Book{}), nil
}

// GetAll fetches several books concurrently and keeps the input order. The
// first failure cancels the rest.
func (c *Client) GetAll(ctx context.Context, ids []string) ([]domain.Book, error) {
	books := make([]domain.Book, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			b, err := c.Get(ctx, id)
			if err != nil {
				return fmt.Errorf("book %s: %w", id, err)
			}
			books[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return books, nil
}

// Create stores a new book for ownerID. The server assigns the id.
func (c *Client) Create(ctx context.Context, draft domain.BookDraft, ownerID string) (domain.Book, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return domain.Book{}, domain.Validation("owner id required")
	}
	draft.Title = strings.TrimSpace(draft.Title)
	if draft.Title == "" {
		return domain.Book{}, domain.Validation("please enter a title")
	}
	w, err := apiclient.Call[wireBook](ctx, c.api, http.MethodPost, "/books", ownerQuery(ownerID), newCreateRequest(draft)).Unwrap()
	if err != nil {
		return domain.Book{}, err
	}
	b := w.book()
	if b.OwnerID == "" {
		b.OwnerID = ownerID
	}
	c.logger.Info("book created", "book_id", b.ID, "owner_id", ownerID)
	return b, nil
}

// Update sends only the fields set in f and returns the server's view of the
// book. Fields the server omits keep the values sent; fields neither sent nor
// returned are zero, so callers holding the full record should use
// UpdateFields and merge.
func (c *Client) Update(ctx context.Context, id string, f domain.BookFields) (domain.Book, error) {
	fields, err := c.UpdateFields(ctx, id, f)
	if err != nil {
		return domain.Book{}, err
	}
	return fields.Apply(domain.Book{ID: strings.TrimSpace(id)}), nil
}

// UpdateFields is Update returning only what is known after the call: the
// fields sent, overlaid by the fields present in the response.
func (c *Client) UpdateFields(ctx context.Context, id string, f domain.BookFields) (domain.BookFields, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.BookFields{}, domain.Validation("book id required")
	}
	if f.Title != nil && strings.TrimSpace(*f.Title) == "" {
		return domain.BookFields{}, domain.Validation("please enter a title")
	}
	w, err := apiclient.Call[wireBook](ctx, c.api, http.MethodPut, bookPath(id), nil, updatePayload(f)).Unwrap()
	if err != nil {
		return domain.BookFields{}, err
	}
	out := f
	out.ID = domain.String(id)
	out = overlay(out, w.fields())
	c.logger.Info("book updated", "book_id", id)
	return out, nil
}

// overlay returns base with every field present in top replaced.
func overlay(base, top domain.BookFields) domain.BookFields {
	pick := func(dst **string, src *string) {
		if src != nil {
			*dst = src
		}
	}
	pick(&base.ID, top.ID)
	pick(&base.OwnerID, top.OwnerID)
	pick(&base.Title, top.Title)
	pick(&base.Author, top.Author)
	pick(&base.Genre, top.Genre)
	pick(&base.Summary, top.Summary)
	pick(&base.CoverURL, top.CoverURL)
	pick(&base.CoverPrompt, top.CoverPrompt)
	return base
}

// Delete removes a book.
func (c *Client) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Validation("book id required")
	}
	if _, err := apiclient.Call[json.RawMessage](ctx, c.api, http.MethodDelete, bookPath(id), nil, nil).Unwrap(); err != nil {
		return err
	}
	c.logger.Info("book deleted", "book_id", id)
	return nil
}

// IsDuplicate reports whether existing already holds a book of ownerID with
// the same title and, when author is given, the same author.
func IsDuplicate(existing []domain.Book, ownerID, title, author string) bool {
	ownerID = strings.TrimSpace(ownerID)
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	if ownerID == "" || title == "" {
		return false
	}
	for _, b := range existing {
		if strings.TrimSpace(b.OwnerID) != ownerID || strings.TrimSpace(b.Title) != title {
			continue
		}
		if author != "" && strings.TrimSpace(b.Author) != author {
			continue
		}
		return true
	}
	return false
}

func ownerQuery(ownerID string) url.Values {
	return url.Values{"userId": []string{ownerID}}
}

func bookPath(id string) string {
	return "/books/" + url.PathEscape(id)
}
