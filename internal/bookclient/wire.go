package bookclient

import (
	"bytes"
	"encoding/json"

	"bookshelf/internal/apiclient"
	"bookshelf/pkg/domain"
)

// wireBook is a book as the backend spells it. Several names exist for the
// body text and the cover image; only this file knows them.
type wireBook struct {
	ID      apiclient.FlexString `json:"id"`
	BookID  apiclient.FlexString `json:"bookId"`
	UserID  apiclient.FlexString `json:"userId"`
	OwnerID apiclient.FlexString `json:"ownerId"`

	Title  apiclient.FlexString `json:"title"`
	Author apiclient.FlexString `json:"author"`
	Genre  apiclient.FlexString `json:"genre"`

	Content     apiclient.FlexString `json:"content"`
	Description apiclient.FlexString `json:"description"`
	Summary     apiclient.FlexString `json:"summary"`

	ImageURL      apiclient.FlexString `json:"imageUrl"`
	CoverURL      apiclient.FlexString `json:"coverUrl"`
	BookCoverURL  apiclient.FlexString `json:"bookCoverUrl"`
	CoverImageURL apiclient.FlexString `json:"coverImageUrl"`
	ThumbnailURL  apiclient.FlexString `json:"thumbnailUrl"`
	Cover         apiclient.FlexString `json:"cover"`

	CoverPrompt apiclient.FlexString `json:"coverPrompt"`
}

// fields converts to the canonical partial book. An alias group is absent
// only when none of its names were sent.
func (w wireBook) fields() domain.BookFields {
	return domain.BookFields{
		ID:          firstNonEmpty(w.ID, w.BookID),
		OwnerID:     firstNonEmpty(w.UserID, w.OwnerID),
		Title:       w.Title.Ptr(),
		Author:      w.Author.Ptr(),
		Genre:       w.Genre.Ptr(),
		Summary:     firstNonEmpty(w.Content, w.Description, w.Summary),
		CoverURL:    firstNonEmpty(w.ImageURL, w.CoverURL, w.BookCoverURL, w.CoverImageURL, w.ThumbnailURL, w.Cover),
		CoverPrompt: w.CoverPrompt.Ptr(),
	}
}

func (w wireBook) book() domain.Book {
	return w.fields().Apply(domain.Book{})
}

func firstNonEmpty(values ...apiclient.FlexString) *string {
	if v, ok := apiclient.FirstNonEmpty(values...); ok {
		return &v
	}
	if v, ok := apiclient.Coalesce(values...); ok {
		return &v
	}
	return nil
}

// bookList accepts a bare array, null, or an object wrapping the array.
type bookList []wireBook

func (l *bookList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*l = nil
		return nil
	case b[0] == '[':
		var items []wireBook
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	var wrapped struct {
		Books []wireBook `json:"books"`
		Items []wireBook `json:"items"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return err
	}
	if wrapped.Books != nil {
		*l = wrapped.Books
	} else {
		*l = wrapped.Items
	}
	return nil
}

type createRequest struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Genre       string `json:"genre"`
	Content     string `json:"content"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	CoverURL    string `json:"coverUrl"`
	CoverPrompt string `json:"coverPrompt"`
}

func newCreateRequest(d domain.BookDraft) createRequest {
	return createRequest{
		Title:       d.Title,
		Author:      d.Author,
		Genre:       d.Genre,
		Content:     d.Summary,
		Description: d.Summary,
		ImageURL:    d.CoverURL,
		CoverURL:    d.CoverURL,
		CoverPrompt: d.CoverPrompt,
	}
}

// updatePayload holds only the fields that were set. ID and owner are never sent.
func updatePayload(f domain.BookFields) map[string]string {
	out := make(map[string]string)
	put := func(v *string, keys ...string) {
		if v == nil {
			return
		}
		for _, k := range keys {
			out[k] = *v
		}
	}
	put(f.Title, "title")
	put(f.Author, "author")
	put(f.Genre, "genre")
	put(f.Summary, "content", "description")
	put(f.CoverURL, "imageUrl", "coverUrl")
	put(f.CoverPrompt, "coverPrompt")
	return out
}
