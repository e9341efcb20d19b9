package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"bookshelf/internal/util"
	"bookshelf/pkg/domain"
)

type envelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"requestId,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// bookResponse spells a book the way the bookshelf client expects.
type bookResponse struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Genre       string `json:"genre"`
	Content     string `json:"content"`
	ImageURL    string `json:"imageUrl"`
	CoverPrompt string `json:"coverPrompt"`
}

func toBookResponse(b domain.Book) bookResponse {
	return bookResponse{
		ID:          b.ID,
		UserID:      b.OwnerID,
		Title:       b.Title,
		Author:      b.Author,
		Genre:       b.Genre,
		Content:     b.Summary,
		ImageURL:    b.CoverURL,
		CoverPrompt: b.CoverPrompt,
	}
}

// bookRequest accepts the alias names clients send. Absent fields stay nil.
type bookRequest struct {
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	Genre       *string `json:"genre"`
	Content     *string `json:"content"`
	Description *string `json:"description"`
	Summary     *string `json:"summary"`
	ImageURL    *string `json:"imageUrl"`
	CoverURL    *string `json:"coverUrl"`
	CoverPrompt *string `json:"coverPrompt"`
}

func (r bookRequest) fields() domain.BookFields {
	return domain.BookFields{
		Title:       r.Title,
		Author:      r.Author,
		Genre:       r.Genre,
		Summary:     firstPresent(r.Content, r.Description, r.Summary),
		CoverURL:    firstPresent(r.ImageURL, r.CoverURL),
		CoverPrompt: r.CoverPrompt,
	}
}

func firstPresent(values ...*string) *string {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeData(w http.ResponseWriter, status int, msg string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: msg, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{
		Success:   false,
		Message:   msg,
		Code:      errorCode(status, msg),
		RequestID: strings.TrimSpace(w.Header().Get(util.RequestIDHeader)),
	})
}

func errorCode(status int, msg string) string {
	switch strings.ToLower(strings.TrimSpace(msg)) {
	case "unauthorized":
		return "AUTH_INVALID_TOKEN"
	case "book not found":
		return "BOOK_NOT_FOUND"
	case "title required":
		return "BOOK_TITLE_REQUIRED"
	case "login id already exists":
		return "AUTH_LOGIN_ID_EXISTS"
	case "invalid json body":
		return "SYSTEM_INVALID_REQUEST"
	case "method not allowed":
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case "not found":
		return "SYSTEM_NOT_FOUND"
	}

	switch status {
	case http.StatusBadRequest:
		return "SYSTEM_INVALID_REQUEST"
	case http.StatusUnauthorized:
		return "AUTH_UNAUTHORIZED"
	case http.StatusForbidden:
		return "BOOK_FORBIDDEN"
	case http.StatusNotFound:
		return "SYSTEM_NOT_FOUND"
	case http.StatusConflict:
		return "SYSTEM_CONFLICT"
	case http.StatusTooManyRequests:
		return "SYSTEM_RATE_LIMITED"
	default:
		return "SYSTEM_INTERNAL_ERROR"
	}
}
