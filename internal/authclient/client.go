// Package authclient implements login, signup and profile calls and turns
// their varied response shapes into a domain.Session.
package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"bookshelf/internal/apiclient"
	"bookshelf/pkg/domain"
)

// SessionStore is the part of the session context the auth flows write to.
type SessionStore interface {
	AccessToken() string
	SaveTokens(ctx context.Context, accessToken, refreshToken string) error
	Save(ctx context.Context, s domain.Session) error
	Logout(ctx context.Context) error
}

// Client runs the auth flows against the backend.
type Client struct {
	api     *apiclient.Client
	session SessionStore
	logger  *slog.Logger
}

// NewClient constructs an auth client.
func NewClient(api *apiclient.Client, session SessionStore, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{api: api, session: session, logger: logger}
}

type loginRequest struct {
	LoginID  string `json:"loginId"`
	Password string `json:"password"`
}

type signupRequest struct {
	UserID   int    `json:"userId"`
	LoginID  string `json:"loginId"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginResponse struct {
	UserID       apiclient.FlexString `json:"userId"`
	LoginID      apiclient.FlexString `json:"loginId"`
	Name         apiclient.FlexString `json:"name"`
	AccessToken  string               `json:"accessToken"`
	RefreshToken string               `json:"refreshToken"`
}

type profileResponse struct {
	ID      apiclient.FlexString `json:"id"`
	UserID  apiclient.FlexString `json:"userId"`
	LoginID apiclient.FlexString `json:"loginId"`
	Name    apiclient.FlexString `json:"name"`
}

// Login authenticates, persists the token pair, upgrades the identity from
// the profile endpoint when possible and persists the resulting session.
func (c *Client) Login(ctx context.Context, id, password string) (domain.Session, error) {
	id = strings.TrimSpace(id)
	password = strings.TrimSpace(password)
	if id == "" || password == "" {
		return domain.Session{}, domain.Validation("please enter your id and password")
	}
	res := apiclient.Call[loginResponse](ctx, c.api, http.MethodPost, "/users/login", nil,
		loginRequest{LoginID: id, Password: password})
	if !res.OK() {
		return domain.Session{}, authFailure(res.Err(), "login failed")
	}
	data := res.Value()
	if err := c.session.SaveTokens(ctx, data.AccessToken, data.RefreshToken); err != nil {
		return domain.Session{}, fmt.Errorf("login: %w", err)
	}

	userID, ok := apiclient.Coalesce(data.UserID, data.LoginID)
	if !ok {
		userID = id
	}
	userName := data.Name.Value

	profile, err := c.profile(ctx)
	if err != nil {
		c.logger.Warn("profile fetch after login failed", "user_id", userID, "err", err)
	} else {
		if v, ok := apiclient.Coalesce(profile.ID, profile.UserID, profile.LoginID); ok {
			userID = v
		}
		if profile.Name.Valid {
			userName = profile.Name.Value
		}
	}
	if userName == "" {
		userName = userID
	}

	s := domain.Session{
		UserID:       userID,
		UserName:     userName,
		AccessToken:  c.session.AccessToken(),
		RefreshToken: data.RefreshToken,
	}
	if err := c.session.Save(ctx, s); err != nil {
		return domain.Session{}, fmt.Errorf("login: %w", err)
	}
	c.logger.Info("login succeeded", "user_id", s.UserID)
	return s, nil
}

// FetchProfile returns the authoritative identity of the token holder.
func (c *Client) FetchProfile(ctx context.Context) (domain.Profile, error) {
	p, err := c.profile(ctx)
	if err != nil {
		return domain.Profile{}, err
	}
	id, _ := apiclient.Coalesce(p.ID, p.UserID, p.LoginID)
	return domain.Profile{ID: id, Name: p.Name.Value}, nil
}

func (c *Client) profile(ctx context.Context) (profileResponse, error) {
	if strings.TrimSpace(c.session.AccessToken()) == "" {
		return profileResponse{}, domain.Validation("no access token, please log in")
	}
	return apiclient.Call[profileResponse](ctx, c.api, http.MethodGet, "/users/me", nil, nil).Unwrap()
}

// Signup registers a new account. It does not log in.
func (c *Client) Signup(ctx context.Context, id, password, name string) error {
	id = strings.TrimSpace(id)
	password = strings.TrimSpace(password)
	name = strings.TrimSpace(name)
	if id == "" || password == "" {
		return domain.Validation("please enter an id and password")
	}
	res := apiclient.Call[json.RawMessage](ctx, c.api, http.MethodPost, "/users/signup", nil,
		signupRequest{LoginID: id, Password: password, Name: name})
	if !res.OK() {
		return authFailure(res.Err(), "signup failed")
	}
	c.logger.Info("signup succeeded", "login_id", id)
	return nil
}

// Logout clears the session context.
func (c *Client) Logout(ctx context.Context) error {
	return c.session.Logout(ctx)
}

// authFailure reclassifies a transport failure as an auth error, keeping the
// server message and the original cause.
func authFailure(cause *domain.Error, fallback string) *domain.Error {
	msg := fallback
	if errors.Is(cause, domain.ErrNetwork) {
		msg = "cannot reach the server"
	} else if m := strings.TrimSpace(cause.Message); m != "" {
		msg = m
	}
	return &domain.Error{Kind: domain.KindAuth, Status: cause.Status, Code: cause.Code, Message: msg, Err: cause}
}
