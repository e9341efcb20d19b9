package session

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what the client can read from an access token without the
// signing key. It is informational only; the backend remains the authority.
type TokenInfo struct {
	Subject   string
	Issuer    string
	ExpiresAt time.Time
}

// InspectToken decodes the claims of a JWT access token without verifying it.
func InspectToken(token string) (TokenInfo, error) {
	if token == "" {
		return TokenInfo{}, errors.New("no access token")
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return TokenInfo{}, err
	}
	info := TokenInfo{Subject: claims.Subject, Issuer: claims.Issuer}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}
