package view

import (
	"context"
	"fmt"
	"strings"

	"bookshelf/pkg/domain"
)

// Login is the login page.
type Login struct {
	liveness
	auth AuthService
}

// NewLogin builds a login view.
func NewLogin(parent context.Context, auth AuthService) *Login {
	v := &Login{auth: auth}
	v.init(parent)
	return v
}

// Submit logs in and returns the welcome message.
func (v *Login) Submit(id, password string) (string, error) {
	id = strings.TrimSpace(id)
	password = strings.TrimSpace(password)
	if id == "" || password == "" {
		return "", domain.Validation("please enter your id and password")
	}
	ctx, done, err := v.start("submit")
	if err != nil {
		return "", err
	}
	defer done()
	s, err := v.auth.Login(ctx, id, password)
	if err = v.finish(err); err != nil {
		return "", err
	}
	return Welcome(s), nil
}

// Welcome is the message shown after a successful login.
func Welcome(s domain.Session) string {
	return fmt.Sprintf("%s, login succeeded", s.DisplayName())
}

// Signup is the account creation page.
type Signup struct {
	liveness
	auth AuthService
}

// NewSignup builds a signup view.
func NewSignup(parent context.Context, auth AuthService) *Signup {
	v := &Signup{auth: auth}
	v.init(parent)
	return v
}

// SignupDone is shown after an account was created.
const SignupDone = "Signup complete. Please log in."

// Submit creates the account. Every input is trimmed; name is optional.
func (v *Signup) Submit(id, password, name string) (string, error) {
	id = strings.TrimSpace(id)
	password = strings.TrimSpace(password)
	name = strings.TrimSpace(name)
	if id == "" || password == "" {
		return "", domain.Validation("id and password are required")
	}
	ctx, done, err := v.start("submit")
	if err != nil {
		return "", err
	}
	defer done()
	if err := v.finish(v.auth.Signup(ctx, id, password, name)); err != nil {
		return "", err
	}
	return SignupDone, nil
}
