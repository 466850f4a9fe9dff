// Package types provides type definitions for the payloads exchanged with the portfolio API.
//
//nolint:revive // types is a standard Go package name pattern
package types

// APIResponse is the envelope every backend endpoint responds with.
type APIResponse[T any] struct {
	StatusCode int    `json:"status_code"`
	Data       *T     `json:"data"`
	Detail     string `json:"detail"`
}

// User is the authenticated admin as returned by /users/me and /users/refresh.
type User struct {
	ID            string `json:"_id,omitempty"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	LoginType     string `json:"loginType"`
	Email         string `json:"email"`
	AccountStatus string `json:"accountStatus,omitempty"`
	DateCreated   *int64 `json:"date_created,omitempty"`
	LastUpdated   *int64 `json:"last_updated,omitempty"`
	RefreshToken  string `json:"refresh_token,omitempty"`
	AccessToken   string `json:"access_token,omitempty"`
}

// DisplayName joins first and last name.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.LastName
	}
}

// RefreshRequest is the body of POST /users/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
