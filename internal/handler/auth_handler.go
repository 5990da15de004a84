package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"gemini-chat/internal/domain"
	"gemini-chat/internal/middleware"
)

// AuthService is the authentication surface used by the HTTP layer
type AuthService interface {
	SendOTP(ctx context.Context, phone, countryCode string) error
	Login(ctx context.Context, phone, countryCode, otp string) (*domain.Session, *domain.User, error)
	Signup(ctx context.Context, phone, countryCode, name, otp string) (*domain.Session, *domain.User, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context) *domain.User
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService AuthService
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// OTPRequest represents a verification code request
type OTPRequest struct {
	Phone       string `json:"phone"`
	CountryCode string `json:"countryCode"`
}

// LoginRequest represents login request
type LoginRequest struct {
	Phone       string `json:"phone"`
	CountryCode string `json:"countryCode"`
	OTP         string `json:"otp"`
}

// SignupRequest represents signup request
type SignupRequest struct {
	Phone       string `json:"phone"`
	CountryCode string `json:"countryCode"`
	Name        string `json:"name"`
	OTP         string `json:"otp"`
}

// LoginResponse represents a successful authentication response
type LoginResponse struct {
	User      *domain.User `json:"user"`
	CSRFToken string       `json:"csrfToken"`
}

// SendOTP handles verification code requests
func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req OTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	if req.Phone == "" || req.CountryCode == "" {
		http.Error(w, `{"error":"Phone and country code required"}`, http.StatusBadRequest)
		return
	}

	if err := h.authService.SendOTP(r.Context(), req.Phone, req.CountryCode); err != nil {
		http.Error(w, `{"error":"Failed to send verification code"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Login verifies a code and opens a session
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	session, user, err := h.authService.Login(r.Context(), req.Phone, req.CountryCode, req.OTP)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	setSessionCookie(w, session.Token)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LoginResponse{
		User:      user,
		CSRFToken: session.CSRFToken,
	})
}

// Signup creates an account and opens a session
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	session, user, err := h.authService.Signup(r.Context(), req.Phone, req.CountryCode, req.Name, req.OTP)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	setSessionCookie(w, session.Token)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(LoginResponse{
		User:      user,
		CSRFToken: session.CSRFToken,
	})
}

// Logout closes the session and wipes local state
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		http.Error(w, `{"error":"Session not found"}`, http.StatusUnauthorized)
		return
	}

	if err := h.authService.Logout(r.Context(), session.Token); err != nil {
		http.Error(w, `{"error":"Failed to logout"}`, http.StatusInternalServerError)
		return
	}

	// Clear cookie
	http.SetCookie(w, &http.Cookie{
		Name:     "session_id",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteStrictMode,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Me returns the authenticated user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := h.authService.CurrentUser(r.Context())
	if user == nil {
		http.Error(w, `{"error":"Not authenticated"}`, http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]*domain.User{"user": user})
}

func (h *AuthHandler) writeAuthError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrInvalidOTP) {
		http.Error(w, `{"error":"Invalid verification code"}`, http.StatusUnauthorized)
		return
	}
	http.Error(w, `{"error":"Authentication failed"}`, http.StatusInternalServerError)
}

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "session_id",
		Value:    token,
		Path:     "/",
		MaxAge:   86400, // 24 hours
		HttpOnly: true,
		Secure:   false, // Set to true in production with HTTPS
		SameSite: http.SameSiteStrictMode,
	})
}
