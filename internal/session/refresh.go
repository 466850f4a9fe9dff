package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MaxRefreshAttempts bounds the refresh-then-retry rounds after a 401.
const MaxRefreshAttempts = 3

// ExpirySkew is how early an access token is treated as expired.
const ExpirySkew = 30 * time.Second

// RefreshResult is the outcome of one call to the refresh endpoint.
type RefreshResult struct {
	OK           bool
	AccessToken  string
	RefreshToken string
}

// Decide applies a refresh result to the current tokens. It returns the tokens to
// store and retry with, and false when the refresh produced nothing usable and the
// caller must stop retrying. A refresh token is only replaced when the backend
// rotated it.
func Decide(current Tokens, result RefreshResult) (Tokens, bool) {
	if !result.OK || result.AccessToken == "" {
		return current, false
	}
	next := Tokens{
		AccessToken:  result.AccessToken,
		RefreshToken: current.RefreshToken,
	}
	if result.RefreshToken != "" {
		next.RefreshToken = result.RefreshToken
	}
	return next, true
}

// AccessTokenExpiry reads the exp claim of a JWT without verifying its signature;
// the backend is the only party that verifies. Opaque tokens report false.
func AccessTokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// NeedsRefresh reports whether tokens should be refreshed before the next request:
// the access token is missing while a refresh token exists, or it is a JWT that
// expires within ExpirySkew of now.
func NeedsRefresh(tokens Tokens, now time.Time) bool {
	if tokens.RefreshToken == "" {
		return false
	}
	if tokens.AccessToken == "" {
		return true
	}
	exp, ok := AccessTokenExpiry(tokens.AccessToken)
	if !ok {
		return false
	}
	return !now.Add(ExpirySkew).Before(exp)
}
