package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidOTP      = errors.New("invalid OTP code")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// User is the single local account of this demo, identified by phone
// number. It is persisted alongside the chat state and wiped on logout.
type User struct {
	ID          string `json:"id"`
	Phone       string `json:"phone"`
	CountryCode string `json:"countryCode"`
	Name        string `json:"name,omitempty"`
}

// Session represents an authenticated session
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	CSRFToken string    `json:"csrf_token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
