//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"testing"
	"time"

	"gemini-chat/internal/country"
	"gemini-chat/internal/domain"

	"github.com/gorilla/websocket"
)

// TestClient wraps http.Client with cookie handling for a single user session
type TestClient struct {
	*http.Client
	t         *testing.T
	csrfToken string
	userID    string
	phone     string
}

// NewTestClient creates a new test client with cookie jar
func NewTestClient(t *testing.T) *TestClient {
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}

	return &TestClient{
		Client: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		t: t,
	}
}

// SendOTP requests a verification code
func (tc *TestClient) SendOTP(phone, countryCode string) error {
	body := map[string]string{
		"phone":       phone,
		"countryCode": countryCode,
	}

	resp, err := tc.PostJSON("/auth/otp", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("send otp failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	return nil
}

// Login verifies a code and stores the session cookie plus CSRF token
func (tc *TestClient) Login(phone, countryCode, otp string) (*LoginResponse, error) {
	body := map[string]string{
		"phone":       phone,
		"countryCode": countryCode,
		"otp":         otp,
	}

	resp, err := tc.PostJSON("/auth/login", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("login failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}

	tc.csrfToken = result.CSRFToken
	tc.userID = result.User.ID
	tc.phone = result.User.Phone
	return &result, nil
}

// Signup creates the account and stores the session cookie plus CSRF token
func (tc *TestClient) Signup(phone, countryCode, name, otp string) (*LoginResponse, error) {
	body := map[string]string{
		"phone":       phone,
		"countryCode": countryCode,
		"name":        name,
		"otp":         otp,
	}

	resp, err := tc.PostJSON("/auth/signup", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("signup failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode signup response: %w", err)
	}

	tc.csrfToken = result.CSRFToken
	tc.userID = result.User.ID
	tc.phone = result.User.Phone
	return &result, nil
}

// Logout closes the current session
func (tc *TestClient) Logout() error {
	resp, err := tc.PostJSON("/auth/logout", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("logout failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	tc.csrfToken = ""
	return nil
}

// GetMe returns the current user information
func (tc *TestClient) GetMe() (*domain.User, error) {
	resp, err := tc.Get(baseURL + "/auth/me")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("get me failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result struct {
		User domain.User `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode me response: %w", err)
	}

	return &result.User, nil
}

// GetCountries fetches the dialing-code directory
func (tc *TestClient) GetCountries() ([]country.Country, error) {
	resp, err := tc.Get(baseURL + "/countries")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("get countries failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result []country.Country
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode countries response: %w", err)
	}

	return result, nil
}

// CreateChatroom creates a new chatroom and returns it
func (tc *TestClient) CreateChatroom(title string) (*domain.ChatRoom, error) {
	body := map[string]string{
		"title": title,
	}

	resp, err := tc.PostJSON("/chatrooms", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("create chatroom failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result domain.ChatRoom
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode chatroom response: %w", err)
	}

	return &result, nil
}

// ListChatrooms lists all chatrooms, most recent first
func (tc *TestClient) ListChatrooms() ([]domain.ChatRoom, error) {
	resp, err := tc.Get(baseURL + "/chatrooms")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list chatrooms failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result struct {
		Chatrooms []domain.ChatRoom `json:"chatrooms"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode chatrooms response: %w", err)
	}

	return result.Chatrooms, nil
}

// DeleteChatroom deletes a chatroom
func (tc *TestClient) DeleteChatroom(id string) error {
	req, err := http.NewRequest(http.MethodDelete, baseURL+"/chatrooms/"+id, nil)
	if err != nil {
		return err
	}
	tc.setCSRF(req)

	resp, err := tc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete chatroom failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	return nil
}

// MessagesResult is the message listing plus the typing indicator
type MessagesResult struct {
	Messages []domain.Message `json:"messages"`
	IsTyping bool             `json:"isTyping"`
}

// GetMessages gets messages and the typing indicator from a chatroom
func (tc *TestClient) GetMessages(chatroomID string) (*MessagesResult, error) {
	resp, err := tc.Get(fmt.Sprintf("%s/chatrooms/%s/messages", baseURL, chatroomID))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("get messages failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result MessagesResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode messages response: %w", err)
	}

	return &result, nil
}

// SendMessage posts a message to a chatroom
func (tc *TestClient) SendMessage(chatroomID, content, image string) error {
	body := map[string]string{
		"content": content,
	}
	if image != "" {
		body["image"] = image
	}

	resp, err := tc.PostJSON(fmt.Sprintf("/chatrooms/%s/messages", chatroomID), body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("send message failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	return nil
}

// LoadHistory requests an older-message backfill for a chatroom
func (tc *TestClient) LoadHistory(chatroomID string) error {
	resp, err := tc.PostJSON(fmt.Sprintf("/chatrooms/%s/messages/history", chatroomID), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("load history failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	return nil
}

// ConnectEvents opens the websocket event stream with the client's
// session cookie attached.
func (tc *TestClient) ConnectEvents() (*websocket.Conn, error) {
	header := http.Header{}
	for _, c := range tc.sessionCookies() {
		header.Add("Cookie", c.String())
	}

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL+"/ws/events", header)
	if err != nil {
		if resp != nil {
			bodyBytes, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("websocket dial failed with status %d: %s", resp.StatusCode, string(bodyBytes))
		}
		return nil, err
	}
	return conn, nil
}

// PostJSON makes a POST request with JSON body and the CSRF header
func (tc *TestClient) PostJSON(path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	tc.setCSRF(req)
	return tc.Do(req)
}

// setCSRF attaches the synchronizer token captured at login
func (tc *TestClient) setCSRF(req *http.Request) {
	if tc.csrfToken != "" {
		req.Header.Set("X-CSRF-Token", tc.csrfToken)
	}
}

// sessionCookies returns the cookies the jar holds for the test server
func (tc *TestClient) sessionCookies() []*http.Cookie {
	u, err := url.Parse(baseURL)
	if err != nil {
		tc.t.Fatalf("failed to parse base URL: %v", err)
	}
	return tc.Jar.Cookies(u)
}

// LoginResponse mirrors the authentication response body
type LoginResponse struct {
	User      domain.User `json:"user"`
	CSRFToken string      `json:"csrfToken"`
}

// setupTestUser creates a logged-in client for a test
func setupTestUser(t *testing.T, label string) *TestClient {
	t.Helper()

	client := NewTestClient(t)
	phone := fmt.Sprintf("555%07d", time.Now().UnixNano()%10000000)

	if err := client.SendOTP(phone, "+1"); err != nil {
		t.Fatalf("[%s] failed to send otp: %v", label, err)
	}
	if _, err := client.Login(phone, "+1", "123456"); err != nil {
		t.Fatalf("[%s] failed to login: %v", label, err)
	}

	return client
}

// waitFor polls cond until it returns true or the timeout elapses
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v: %s", timeout, msg)
}

// assertNoError fails the test if err is non-nil
func assertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}

// assertEqual fails the test if got != want
func assertEqual[T comparable](t *testing.T, got, want T, msg string) {
	t.Helper()
	if got != want {
		t.Fatalf("%s: got %v, want %v", msg, got, want)
	}
}
