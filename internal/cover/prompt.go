// Package cover generates AI cover previews and keeps them out of the
// persisted record until the user saves.
package cover

import (
	"fmt"
	"strings"
)

// Defaults for the image API.
const (
	DefaultModel   = "dall-e-3"
	DefaultSize    = "1024x1024"
	DefaultQuality = "standard"
	DefaultStyle   = "vivid"
)

// Options are the image parameters a user can pick.
type Options struct {
	Model   string `yaml:"model"`
	Size    string `yaml:"size"`
	Quality string `yaml:"quality"`
	Style   string `yaml:"style"`
}

// DefaultOptions returns the defaults the editor resets to.
func DefaultOptions() Options {
	return Options{Model: DefaultModel, Size: DefaultSize, Quality: DefaultQuality, Style: DefaultStyle}
}

// WithDefaults fills blank fields.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if strings.TrimSpace(o.Model) == "" {
		o.Model = d.Model
	}
	if strings.TrimSpace(o.Size) == "" {
		o.Size = d.Size
	}
	if strings.TrimSpace(o.Quality) == "" {
		o.Quality = d.Quality
	}
	if strings.TrimSpace(o.Style) == "" {
		o.Style = d.Style
	}
	return o
}

// BuildPrompt renders the default cover prompt for a book.
func BuildPrompt(title, genre, summary string) string {
	title = strings.TrimSpace(title)
	genre = strings.TrimSpace(genre)
	summary = strings.TrimSpace(summary)
	if title == "" {
		title = "untitled"
	}
	if genre == "" {
		genre = "undecided"
	}
	return fmt.Sprintf("Book cover illustration. Genre: %s. Title: %q. Summary: %s. Designed like a book cover sold in bookstores.",
		genre, title, summary)
}

const refineSystemPrompt = "You write prompts for an image model. Rewrite the user's book cover prompt " +
	"into one vivid paragraph describing composition, palette and mood. Do not add any text to the image. " +
	"Reply with the prompt only."
