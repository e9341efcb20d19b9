package view

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"bookshelf/internal/bookclient"
	"bookshelf/internal/cover"
	"bookshelf/pkg/domain"
)

// Mode selects between registering a new book and editing one.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

// Archiver copies a generated cover into durable storage.
type Archiver interface {
	Archive(ctx context.Context, userID, imageURL string) (string, error)
}

// Form is the editable state of the editor.
type Form struct {
	Title       string
	Author      string
	Genre       string
	Summary     string
	CoverPrompt string
	APIKey      string
	Options     cover.Options
}

// EditorConfig wires the editor's collaborators.
type EditorConfig struct {
	Books    BookService
	Sessions Sessions
	Covers   *cover.Generator
	// Archiver is optional.
	Archiver Archiver
	// RejectDuplicates turns the duplicate warning into an error.
	RejectDuplicates bool
	Logger           *slog.Logger
}

// Editor is the register/edit page.
type Editor struct {
	liveness
	cfg     EditorConfig
	mode    Mode
	preview cover.Preview

	mu       sync.Mutex
	original domain.Book
	form     Form
	warning  string
}

// NewEditor builds an editor. A nil book means create mode.
func NewEditor(parent context.Context, cfg EditorConfig, book *domain.Book) *Editor {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	v := &Editor{cfg: cfg, mode: ModeCreate}
	if book != nil {
		v.mode = ModeEdit
		v.original = *book
	}
	v.init(parent)
	v.Reset()
	return v
}

// Mode reports create or edit.
func (v *Editor) Mode() Mode {
	return v.mode
}

// Form returns the current form.
func (v *Editor) Form() Form {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.form
}

// SetForm replaces the form. The API key survives Reset.
func (v *Editor) SetForm(f Form) {
	v.mu.Lock()
	v.form = f
	v.mu.Unlock()
}

// Warning returns the last non-fatal notice, such as a duplicate title.
func (v *Editor) Warning() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.warning
}

// Preview returns the unsaved generated cover URL, if any.
func (v *Editor) Preview() string {
	return v.preview.URL()
}

// CoverURL returns the cover a save would persist.
func (v *Editor) CoverURL() string {
	v.mu.Lock()
	existing := v.original.CoverURL
	v.mu.Unlock()
	return v.preview.Resolve(existing)
}

// Reset clears the form in create mode and restores the edited book in edit
// mode. The generated preview is discarded either way.
func (v *Editor) Reset() {
	v.mu.Lock()
	key := v.form.APIKey
	if v.mode == ModeEdit {
		b := v.original
		v.form = Form{
			Title:       b.Title,
			Author:      b.Author,
			Genre:       b.Genre,
			Summary:     b.Summary,
			CoverPrompt: b.CoverPrompt,
		}
	} else {
		v.form = Form{}
	}
	v.form.APIKey = key
	v.form.Options = cover.DefaultOptions()
	v.warning = ""
	v.mu.Unlock()
	v.preview.Discard()
}

// GenerateCover asks the image API for a candidate cover. A second call while
// one is outstanding fails with cover.ErrCoverBusy.
func (v *Editor) GenerateCover() (string, error) {
	if !v.alive() {
		return "", ErrClosed
	}
	if v.cfg.Covers == nil {
		return "", &domain.Error{Kind: domain.KindExternalService, Message: "cover generation is not configured"}
	}
	f := v.Form()
	res, err := v.preview.Generate(v.ctx, v.cfg.Covers, cover.Request{
		APIKey:  f.APIKey,
		Title:   f.Title,
		Genre:   f.Genre,
		Summary: f.Summary,
		Prompt:  f.CoverPrompt,
		Options: f.Options,
	})
	if err = v.finish(err); err != nil {
		return "", err
	}
	return res.URL, nil
}

// Save creates or updates the book. The preview, when present, becomes the
// persisted cover and is cleared afterwards.
func (v *Editor) Save() (domain.Book, error) {
	ctx, done, err := v.start("save")
	if err != nil {
		return domain.Book{}, err
	}
	defer done()
	v.setWarning("")

	f := v.Form()
	draft := domain.BookDraft{
		Title:       strings.TrimSpace(f.Title),
		Author:      strings.TrimSpace(f.Author),
		Genre:       strings.TrimSpace(f.Genre),
		Summary:     strings.TrimSpace(f.Summary),
		CoverPrompt: strings.TrimSpace(f.CoverPrompt),
	}
	if draft.Title == "" {
		return domain.Book{}, domain.Validation("please enter a title")
	}
	uid, err := v.cfg.Sessions.RequireUser()
	if err != nil {
		return domain.Book{}, err
	}
	draft.CoverURL = v.persistedCover(ctx, uid)

	var saved domain.Book
	if v.mode == ModeCreate {
		if err := v.checkDuplicate(ctx, uid, draft); err != nil {
			return domain.Book{}, err
		}
		saved, err = v.cfg.Books.Create(ctx, draft, uid)
	} else {
		saved, err = v.update(ctx, draft)
	}
	if err = v.finish(err); err != nil {
		return domain.Book{}, err
	}
	v.preview.Discard()
	if v.mode == ModeEdit {
		v.mu.Lock()
		v.original = saved
		v.mu.Unlock()
	}
	return saved, nil
}

func (v *Editor) persistedCover(ctx context.Context, uid string) string {
	v.mu.Lock()
	existing := v.original.CoverURL
	v.mu.Unlock()
	preview := v.preview.URL()
	if preview == "" || v.cfg.Archiver == nil {
		return v.preview.Resolve(existing)
	}
	archived, err := v.cfg.Archiver.Archive(ctx, uid, preview)
	if err != nil {
		v.cfg.Logger.Warn("cover archive failed, saving provider url", "user_id", uid, "err", err)
		v.setWarning("cover could not be archived: " + domain.UserMessage(err, "archive failed"))
		return preview
	}
	return archived
}

// checkDuplicate lists the owner's books and warns, or fails when
// RejectDuplicates is set, if the title is already registered.
func (v *Editor) checkDuplicate(ctx context.Context, uid string, draft domain.BookDraft) error {
	existing, err := v.cfg.Books.List(ctx, uid)
	if err != nil {
		v.cfg.Logger.Warn("duplicate check skipped", "user_id", uid, "err", err)
		return nil
	}
	for i := range existing {
		if existing[i].OwnerID == "" {
			existing[i].OwnerID = uid
		}
	}
	if !bookclient.IsDuplicate(existing, uid, draft.Title, draft.Author) {
		return nil
	}
	const msg = "this book is already registered"
	if v.cfg.RejectDuplicates {
		return domain.Validation(msg)
	}
	v.setWarning(msg)
	return nil
}

// update sends only the fields that differ from the edited book.
func (v *Editor) update(ctx context.Context, draft domain.BookDraft) (domain.Book, error) {
	v.mu.Lock()
	orig := v.original
	v.mu.Unlock()
	var f domain.BookFields
	diff := func(dst **string, before, after string) {
		if before != after {
			*dst = domain.String(after)
		}
	}
	diff(&f.Title, orig.Title, draft.Title)
	diff(&f.Author, orig.Author, draft.Author)
	diff(&f.Genre, orig.Genre, draft.Genre)
	diff(&f.Summary, orig.Summary, draft.Summary)
	diff(&f.CoverURL, orig.CoverURL, draft.CoverURL)
	diff(&f.CoverPrompt, orig.CoverPrompt, draft.CoverPrompt)
	if f.Empty() {
		return orig, nil
	}
	known, err := v.cfg.Books.UpdateFields(ctx, orig.ID, f)
	if err != nil {
		return domain.Book{}, err
	}
	known.ID = nil
	return known.Apply(orig), nil
}

func (v *Editor) setWarning(msg string) {
	v.mu.Lock()
	v.warning = msg
	v.mu.Unlock()
}

// Close cancels in-flight calls and drops the unsaved preview.
func (v *Editor) Close() {
	v.liveness.Close()
	v.preview.Discard()
}
