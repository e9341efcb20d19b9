// Package server exposes the library HTTP API consumed by the bookshelf client.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"bookshelf/internal/ratelimit"
	"bookshelf/internal/usertoken"
	"bookshelf/internal/util"
	"bookshelf/pkg/domain"
	"bookshelf/services/library/internal/app"
)

const maxBodyBytes = 1 << 20

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App
	// LoginLimiter is optional; nil disables login throttling.
	LoginLimiter   ratelimit.Limiter
	TrustedProxies util.TrustedProxies
}

// Server exposes HTTP endpoints for the library service.
type Server struct {
	app            *app.App
	loginLimiter   ratelimit.Limiter
	trustedProxies util.TrustedProxies
	mux            *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("app required")
	}
	s := &Server{
		app:            cfg.App,
		loginLimiter:   cfg.LoginLimiter,
		trustedProxies: cfg.TrustedProxies,
		mux:            http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("library", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// users
	s.mux.HandleFunc("/users/signup", s.handleSignup)
	s.mux.HandleFunc("/users/login", s.handleLogin)
	s.mux.HandleFunc("/users/refresh", s.handleRefresh)
	s.mux.Handle("/users/me", s.withUser(s.handleMe))

	// books
	s.mux.Handle("/books", s.withUser(s.handleBooks))
	s.mux.Handle("/books/", s.withUser(s.handleBookByID))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type userHandler func(http.ResponseWriter, *http.Request, string)

func (s *Server) withUser(next userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := usertoken.BearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		userID, err := s.app.Authenticate(token)
		if err != nil {
			util.LoggerFromContext(r.Context()).Debug("token rejected", "err", err)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, userID)
	})
}

type signupRequest struct {
	LoginID  string `json:"loginId"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	LoginID  string `json:"loginId"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type userResponse struct {
	ID      string `json:"id"`
	LoginID string `json:"loginId"`
	Name    string `json:"name"`
}

type tokenResponse struct {
	UserID       string `json:"userId"`
	LoginID      string `json:"loginId"`
	Name         string `json:"name"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req signupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, err := s.app.SignUp(r.Context(), req.LoginID, req.Password, req.Name)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "signup succeeded", userResponse{ID: user.ID, LoginID: user.LoginID, Name: user.Name})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, "too many login attempts, try again later") {
		return
	}
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, tokens, err := s.app.Login(r.Context(), req.LoginID, req.Password)
	if err != nil {
		s.audit(r, "login", "failure", "login_id", strings.TrimSpace(req.LoginID))
		s.writeAppError(w, r, err)
		return
	}
	s.audit(r, "login", "success", "user_id", user.ID)
	writeData(w, http.StatusOK, "login succeeded", tokenResponse{
		UserID:       user.ID,
		LoginID:      user.LoginID,
		Name:         user.Name,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req refreshRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, tokens, err := s.app.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", tokenResponse{
		UserID:       user.ID,
		LoginID:      user.LoginID,
		Name:         user.Name,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	user, err := s.app.Me(r.Context(), userID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", userResponse{ID: user.ID, LoginID: user.LoginID, Name: user.Name})
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request, userID string) {
	owner := strings.TrimSpace(r.URL.Query().Get("userId"))
	if owner == "" {
		owner = userID
	}
	if owner != userID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	switch r.Method {
	case http.MethodGet:
		books, err := s.app.ListBooks(r.Context(), userID)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		out := make([]bookResponse, 0, len(books))
		for _, b := range books {
			out = append(out, toBookResponse(b))
		}
		writeData(w, http.StatusOK, "", out)
	case http.MethodPost:
		var req bookRequest
		if !decodeBody(w, r, &req) {
			return
		}
		b := req.fields().Apply(domain.Book{})
		book, err := s.app.CreateBook(r.Context(), userID, domain.BookDraft{
			Title:       b.Title,
			Author:      b.Author,
			Genre:       b.Genre,
			Summary:     b.Summary,
			CoverURL:    b.CoverURL,
			CoverPrompt: b.CoverPrompt,
		})
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toBookResponse(book))
	default:
		methodNotAllowed(w)
	}
}

// /books/{id}
func (s *Server) handleBookByID(w http.ResponseWriter, r *http.Request, userID string) {
	id := strings.TrimPrefix(r.URL.Path, "/books/")
	if id == "" || strings.Contains(id, "/") {
		notFound(w, "not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		book, err := s.app.GetBook(r.Context(), userID, id)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, "", toBookResponse(book))
	case http.MethodPut:
		var req bookRequest
		if !decodeBody(w, r, &req) {
			return
		}
		book, err := s.app.UpdateBook(r.Context(), userID, id, req.fields())
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toBookResponse(book))
	case http.MethodDelete:
		if err := s.app.DeleteBook(r.Context(), userID, id); err != nil {
			s.writeAppError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidCredentials), errors.Is(err, app.ErrInvalidRefreshToken):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrLoginIDAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrBookNotFound), errors.Is(err, app.ErrUserNotFound):
		notFound(w, err.Error())
	case errors.Is(err, app.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, app.ErrLoginIDAndPasswordRequired),
		errors.Is(err, app.ErrRefreshTokenRequired),
		errors.Is(err, app.ErrTitleRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, new(*app.InputError)):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		util.LoggerFromContext(r.Context()).Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, msg string) bool {
	if s.loginLimiter == nil {
		return true
	}
	key := r.URL.Path + "|" + util.ClientIP(r, s.trustedProxies)
	if s.loginLimiter.Allow(r.Context(), key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"ip", util.ClientIP(r, s.trustedProxies),
	}
	logAttrs = append(logAttrs, attrs...)
	logger := util.LoggerFromContext(r.Context())
	if outcome == "success" {
		logger.Info("security_event", logAttrs...)
		return
	}
	logger.Warn("security_event", logAttrs...)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func notFound(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusNotFound, msg)
}
