package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"gemini-chat/internal/domain"
	"gemini-chat/internal/storage"
)

type mockResetter struct {
	calls int
}

func (m *mockResetter) Reset(ctx context.Context) {
	m.calls++
}

func newTestService(t *testing.T) (*Service, *storage.Adapter, *mockResetter) {
	t.Helper()
	adapter := storage.NewAdapter(storage.NewMemoryKV())
	resetter := &mockResetter{}
	return NewService(adapter, resetter, Delays{}), adapter, resetter
}

func TestLogin_Success(t *testing.T) {
	svc, adapter, _ := newTestService(t)
	ctx := context.Background()

	session, user, err := svc.Login(ctx, "5551234567", "+1", "123456")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if session.Token == "" || session.CSRFToken == "" {
		t.Error("expected session and CSRF tokens to be set")
	}
	if user.Phone != "5551234567" || user.CountryCode != "+1" {
		t.Errorf("unexpected user: %+v", user)
	}

	persisted := adapter.LoadUser(ctx)
	if persisted == nil || persisted.ID != user.ID {
		t.Error("expected the user persisted on login")
	}
}

func TestLogin_AnySixDigitCodeAccepted(t *testing.T) {
	svc, _, _ := newTestService(t)

	for _, otp := range []string{"000000", "123456", "999999"} {
		if _, _, err := svc.Login(context.Background(), "5551234567", "+1", otp); err != nil {
			t.Errorf("code %q should be accepted, got: %v", otp, err)
		}
	}
}

func TestLogin_InvalidOTP(t *testing.T) {
	svc, adapter, _ := newTestService(t)

	for _, otp := range []string{"", "12345", "1234567", "12345a", "abcdef"} {
		_, _, err := svc.Login(context.Background(), "5551234567", "+1", otp)
		if !errors.Is(err, domain.ErrInvalidOTP) {
			t.Errorf("code %q: expected ErrInvalidOTP, got: %v", otp, err)
		}
	}

	if adapter.LoadUser(context.Background()) != nil {
		t.Error("rejected login must not persist a user")
	}
}

func TestLogin_KeepsExistingAccount(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, first, err := svc.Signup(ctx, "5551234567", "+1", "Alice", "123456")
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	_, second, err := svc.Login(ctx, "5551234567", "+1", "654321")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if second.ID != first.ID {
		t.Error("logging in with the same phone must reuse the account")
	}
	if second.Name != "Alice" {
		t.Errorf("expected the signup name kept, got %q", second.Name)
	}
}

func TestLogin_DifferentPhoneReplacesAccount(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, first, _ := svc.Login(ctx, "5551234567", "+1", "123456")
	_, second, _ := svc.Login(ctx, "5559876543", "+44", "123456")

	if second.ID == first.ID {
		t.Error("a different phone must get a fresh account")
	}
}

func TestSignup_RecordsName(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, user, err := svc.Signup(context.Background(), "5551234567", "+1", "Alice", "123456")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if user.Name != "Alice" {
		t.Errorf("expected name Alice, got %q", user.Name)
	}
}

func TestSendOTP_AlwaysSucceeds(t *testing.T) {
	svc, _, _ := newTestService(t)

	if err := svc.SendOTP(context.Background(), "5551234567", "+1"); err != nil {
		t.Errorf("expected no error, got: %v", err)
	}
}

func TestSendOTP_ContextCancelled(t *testing.T) {
	adapter := storage.NewAdapter(storage.NewMemoryKV())
	svc := NewService(adapter, nil, Delays{SendOTP: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := svc.SendOTP(ctx, "5551234567", "+1"); err == nil {
		t.Error("expected context error, got nil")
	}
}

func TestValidateSession(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	session, _, err := svc.Login(ctx, "5551234567", "+1", "123456")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	got, err := svc.ValidateSession(ctx, session.Token)
	if err != nil {
		t.Fatalf("expected valid session, got: %v", err)
	}
	if got.UserID != session.UserID {
		t.Error("unexpected session returned")
	}

	if _, err := svc.ValidateSession(ctx, "bogus"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got: %v", err)
	}
}

func TestValidateSession_Expired(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	session, _, err := svc.Login(ctx, "5551234567", "+1", "123456")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(sessionTTL + time.Minute) }

	if _, err := svc.ValidateSession(ctx, session.Token); !errors.Is(err, domain.ErrSessionExpired) {
		t.Errorf("expected ErrSessionExpired, got: %v", err)
	}

	// Lazy expiry removed it entirely
	if _, err := svc.ValidateSession(ctx, session.Token); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after expiry, got: %v", err)
	}
}

func TestLogout(t *testing.T) {
	svc, adapter, resetter := newTestService(t)
	ctx := context.Background()

	session, _, err := svc.Login(ctx, "5551234567", "+1", "123456")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if err := svc.Logout(ctx, session.Token); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	if _, err := svc.ValidateSession(ctx, session.Token); err == nil {
		t.Error("session must be invalid after logout")
	}
	if adapter.LoadUser(ctx) != nil {
		t.Error("persisted user must be removed on logout")
	}
	if resetter.calls != 1 {
		t.Errorf("expected chat state reset once, got %d", resetter.calls)
	}
}

func TestLogout_UnknownToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.Logout(context.Background(), "bogus")
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got: %v", err)
	}
}

func TestDeleteExpired(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	s1, _, _ := svc.Login(ctx, "5551234567", "+1", "123456")
	s2, _, _ := svc.Login(ctx, "5551234567", "+1", "123456")

	// Expire only the first session
	svc.mu.Lock()
	svc.sessions[s1.Token].ExpiresAt = time.Now().Add(-time.Minute)
	svc.mu.Unlock()

	removed, err := svc.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}
	if _, err := svc.ValidateSession(ctx, s2.Token); err != nil {
		t.Errorf("live session must survive cleanup, got: %v", err)
	}
}
