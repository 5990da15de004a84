// Package auth implements the demo's simulated phone/OTP authentication.
// No code is ever delivered and no identity is verified: sending an OTP
// is a timed no-op and any six-digit code is accepted.
package auth

import (
	"context"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"

	"gemini-chat/internal/domain"
	"gemini-chat/internal/security"
	"gemini-chat/internal/storage"
)

var otpRegex = regexp.MustCompile(`^[0-9]{6}$`)

const sessionTTL = 24 * time.Hour

// ChatResetter wipes chat state on logout
type ChatResetter interface {
	Reset(ctx context.Context)
}

// Delays are the simulated latencies of the auth round trips
type Delays struct {
	SendOTP time.Duration
	Verify  time.Duration
}

// DefaultDelays returns the simulated auth round-trip latencies
func DefaultDelays() Delays {
	return Delays{
		SendOTP: time.Second,
		Verify:  1500 * time.Millisecond,
	}
}

// Service owns the single local account and its sessions
type Service struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session

	adapter *storage.Adapter
	chat    ChatResetter
	tokens  *security.TokenManager
	delays  Delays
	now     func() time.Time
}

// NewService creates the auth service. chat may be nil.
func NewService(adapter *storage.Adapter, chat ChatResetter, delays Delays) *Service {
	return &Service{
		sessions: make(map[string]*domain.Session),
		adapter:  adapter,
		chat:     chat,
		tokens:   security.NewTokenManager(),
		delays:   delays,
		now:      time.Now,
	}
}

// SendOTP simulates delivering a verification code. It always succeeds
// after the delivery delay; no code actually exists.
func (s *Service) SendOTP(ctx context.Context, phone, countryCode string) error {
	select {
	case <-time.After(s.delays.SendOTP):
	case <-ctx.Done():
		return ctx.Err()
	}

	slog.Info("OTP sent",
		slog.String("phone", countryCode+phone))
	return nil
}

// Login verifies the OTP shape (any six-digit code passes) and opens a
// session for the account, creating it if this phone has never logged
// in on this profile.
func (s *Service) Login(ctx context.Context, phone, countryCode, otp string) (*domain.Session, *domain.User, error) {
	return s.verify(ctx, phone, countryCode, "", otp)
}

// Signup behaves like Login but records the supplied display name.
func (s *Service) Signup(ctx context.Context, phone, countryCode, name, otp string) (*domain.Session, *domain.User, error) {
	return s.verify(ctx, phone, countryCode, name, otp)
}

func (s *Service) verify(ctx context.Context, phone, countryCode, name, otp string) (*domain.Session, *domain.User, error) {
	if !otpRegex.MatchString(otp) {
		return nil, nil, domain.ErrInvalidOTP
	}

	select {
	case <-time.After(s.delays.Verify):
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}

	user := s.adapter.LoadUser(ctx)
	if user == nil || user.Phone != phone || user.CountryCode != countryCode {
		user = &domain.User{
			ID:          uuid.New().String(),
			Phone:       phone,
			CountryCode: countryCode,
		}
	}
	if name != "" {
		user.Name = name
	}

	if err := s.adapter.SaveUser(ctx, user); err != nil {
		return nil, nil, err
	}

	csrfToken, err := s.tokens.Generate()
	if err != nil {
		return nil, nil, err
	}

	session := &domain.Session{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Token:     uuid.New().String(),
		CSRFToken: csrfToken,
		ExpiresAt: s.now().Add(sessionTTL),
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("phone", countryCode+phone))

	return session, user, nil
}

// Logout closes the session and wipes all persisted state, chat
// included: the next visitor of this profile starts from scratch.
func (s *Service) Logout(ctx context.Context, token string) error {
	s.mu.Lock()
	session, ok := s.sessions[token]
	delete(s.sessions, token)
	s.mu.Unlock()

	if !ok {
		return domain.ErrSessionNotFound
	}

	if err := s.adapter.DeleteUser(ctx); err != nil {
		slog.Warn("failed to delete persisted user", slog.String("error", err.Error()))
	}
	if s.chat != nil {
		s.chat.Reset(ctx)
	}

	slog.Info("user logged out", slog.String("user_id", session.UserID))
	return nil
}

// ValidateSession returns the session for a token, expiring it lazily
func (s *Service) ValidateSession(ctx context.Context, token string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if s.now().After(session.ExpiresAt) {
		delete(s.sessions, token)
		return nil, domain.ErrSessionExpired
	}
	return session, nil
}

// CurrentUser returns the persisted account, or nil when logged out
func (s *Service) CurrentUser(ctx context.Context) *domain.User {
	return s.adapter.LoadUser(ctx)
}

// DeleteExpired removes expired sessions and reports how many
func (s *Service) DeleteExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	now := s.now()
	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed, nil
}
