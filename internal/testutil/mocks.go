// Package testutil provides shared test utilities, mocks, and fixtures
// for testing the gemini-chat application.
package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"gemini-chat/internal/country"
	"gemini-chat/internal/domain"
)

// Common test errors
var (
	ErrMockNotImplemented = errors.New("mock function not implemented")
	ErrMockNotFound       = errors.New("mock: not found")
)

// MockSessionStore implements middleware.SessionStore for testing
type MockSessionStore struct {
	mu sync.RWMutex

	// Function overrides - set these to customize behavior
	ValidateSessionFunc func(ctx context.Context, token string) (*domain.Session, error)

	// In-memory storage for simple tests
	Sessions map[string]*domain.Session
}

// NewMockSessionStore creates a new MockSessionStore with initialized maps
func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{
		Sessions: make(map[string]*domain.Session),
	}
}

func (m *MockSessionStore) ValidateSession(ctx context.Context, token string) (*domain.Session, error) {
	if m.ValidateSessionFunc != nil {
		return m.ValidateSessionFunc(ctx, token)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if session, ok := m.Sessions[token]; ok {
		if session.ExpiresAt.Before(time.Now()) {
			return nil, domain.ErrSessionExpired
		}
		return session, nil
	}
	return nil, domain.ErrSessionNotFound
}

// MockAuthService implements handler.AuthService for testing
type MockAuthService struct {
	mu sync.RWMutex

	// Function overrides
	SendOTPFunc     func(ctx context.Context, phone, countryCode string) error
	LoginFunc       func(ctx context.Context, phone, countryCode, otp string) (*domain.Session, *domain.User, error)
	SignupFunc      func(ctx context.Context, phone, countryCode, name, otp string) (*domain.Session, *domain.User, error)
	LogoutFunc      func(ctx context.Context, token string) error
	CurrentUserFunc func(ctx context.Context) *domain.User

	// Call tracking
	OTPCalls    []OTPCall
	LogoutCalls []string
}

// OTPCall records a call to SendOTP
type OTPCall struct {
	Phone       string
	CountryCode string
}

// NewMockAuthService creates a new MockAuthService
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{}
}

func (m *MockAuthService) SendOTP(ctx context.Context, phone, countryCode string) error {
	m.mu.Lock()
	m.OTPCalls = append(m.OTPCalls, OTPCall{Phone: phone, CountryCode: countryCode})
	m.mu.Unlock()
	if m.SendOTPFunc != nil {
		return m.SendOTPFunc(ctx, phone, countryCode)
	}
	return nil
}

func (m *MockAuthService) Login(ctx context.Context, phone, countryCode, otp string) (*domain.Session, *domain.User, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, phone, countryCode, otp)
	}
	return nil, nil, ErrMockNotImplemented
}

func (m *MockAuthService) Signup(ctx context.Context, phone, countryCode, name, otp string) (*domain.Session, *domain.User, error) {
	if m.SignupFunc != nil {
		return m.SignupFunc(ctx, phone, countryCode, name, otp)
	}
	return nil, nil, ErrMockNotImplemented
}

func (m *MockAuthService) Logout(ctx context.Context, token string) error {
	m.mu.Lock()
	m.LogoutCalls = append(m.LogoutCalls, token)
	m.mu.Unlock()
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, token)
	}
	return nil
}

func (m *MockAuthService) CurrentUser(ctx context.Context) *domain.User {
	if m.CurrentUserFunc != nil {
		return m.CurrentUserFunc(ctx)
	}
	return nil
}

// MockCountryLister implements handler.CountryLister for testing
type MockCountryLister struct {
	// Function overrides
	ListFunc func(ctx context.Context) ([]country.Country, error)

	// Fixed result for simple tests
	Countries []country.Country
	Err       error
}

func (m *MockCountryLister) List(ctx context.Context) ([]country.Country, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Countries, nil
}
