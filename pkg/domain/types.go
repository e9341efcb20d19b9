package domain

import "strings"

// Session is the client-held proof of a logged-in identity.
type Session struct {
	UserID       string `json:"userId"`
	UserName     string `json:"userName"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoggedIn reports whether the session carries a user id.
func (s Session) LoggedIn() bool {
	return strings.TrimSpace(s.UserID) != ""
}

// DisplayName returns the user name, falling back to the id.
func (s Session) DisplayName() string {
	if s.UserName != "" {
		return s.UserName
	}
	return s.UserID
}

// Profile is the authoritative identity returned by the profile endpoint.
type Profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Book is the canonical book record used everywhere above the transport.
type Book struct {
	ID          string `json:"id"`
	OwnerID     string `json:"ownerId"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Genre       string `json:"genre"`
	Summary     string `json:"summary"`
	CoverURL    string `json:"coverUrl"`
	CoverPrompt string `json:"coverPrompt"`
}

// BookDraft holds the user-entered fields of a book that does not exist yet.
type BookDraft struct {
	Title       string
	Author      string
	Genre       string
	Summary     string
	CoverURL    string
	CoverPrompt string
}

// BookFields is a partial book. A nil field is absent: untouched in an update
// payload, missing in a server response.
type BookFields struct {
	ID          *string
	OwnerID     *string
	Title       *string
	Author      *string
	Genre       *string
	Summary     *string
	CoverURL    *string
	CoverPrompt *string
}

// Apply overwrites every present field of f onto b and returns the result.
func (f BookFields) Apply(b Book) Book {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&b.ID, f.ID)
	set(&b.OwnerID, f.OwnerID)
	set(&b.Title, f.Title)
	set(&b.Author, f.Author)
	set(&b.Genre, f.Genre)
	set(&b.Summary, f.Summary)
	set(&b.CoverURL, f.CoverURL)
	set(&b.CoverPrompt, f.CoverPrompt)
	return b
}

// Empty reports whether no field is present.
func (f BookFields) Empty() bool {
	return f.ID == nil && f.OwnerID == nil && f.Title == nil && f.Author == nil &&
		f.Genre == nil && f.Summary == nil && f.CoverURL == nil && f.CoverPrompt == nil
}

// String returns a pointer to v, for building BookFields literals.
func String(v string) *string {
	return &v
}

// Placeholder texts rendered when a book lacks a cover or a summary.
const (
	NoSummaryText    = "No summary has been registered."
	CoverPlaceholder = "linear-gradient(135deg, #dfe7dc 0%, #b8c9b3 100%)"
)

// CoverSource returns the cover image URL and whether one exists.
// Callers render CoverPlaceholder when ok is false.
func (b Book) CoverSource() (url string, ok bool) {
	url = strings.TrimSpace(b.CoverURL)
	return url, url != ""
}

// SummaryText returns the body text or the placeholder.
func (b Book) SummaryText() string {
	if strings.TrimSpace(b.Summary) == "" {
		return NoSummaryText
	}
	return b.Summary
}
