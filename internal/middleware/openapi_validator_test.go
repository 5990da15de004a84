package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAPISpecIsValid(t *testing.T) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	doc, err := loader.LoadFromFile("../../artifacts/openapi.yaml")
	require.NoError(t, err, "Failed to load OpenAPI spec")

	err = doc.Validate(loader.Context)
	require.NoError(t, err, "OpenAPI spec validation failed")

	assert.Equal(t, "Gemini Chat API", doc.Info.Title)
	assert.Equal(t, "1.0.0", doc.Info.Version)
	assert.NotEmpty(t, doc.Servers, "At least one server should be defined")
}

func TestAllRoutesAreDocumentedInOpenAPI(t *testing.T) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	doc, err := loader.LoadFromFile("../../artifacts/openapi.yaml")
	require.NoError(t, err)

	// List of all implemented routes in the application
	implementedRoutes := []struct {
		method string
		path   string
	}{
		// Authentication routes
		{"POST", "/auth/otp"},
		{"POST", "/auth/login"},
		{"POST", "/auth/signup"},
		{"POST", "/auth/logout"},
		{"GET", "/auth/me"},

		// Country directory
		{"GET", "/countries"},

		// Chatroom routes
		{"GET", "/chatrooms"},
		{"POST", "/chatrooms"},
		{"DELETE", "/chatrooms/{id}"},
		{"GET", "/chatrooms/{id}/messages"},
		{"POST", "/chatrooms/{id}/messages"},
		{"POST", "/chatrooms/{id}/messages/history"},

		// WebSocket route
		{"GET", "/ws/events"},

		// Health routes
		{"GET", "/health"},
		{"GET", "/health/ready"},
	}

	for _, route := range implementedRoutes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			pathItem := doc.Paths.Find(route.path)
			require.NotNil(t, pathItem, "Path not found in OpenAPI spec: %s", route.path)

			operation := pathItem.GetOperation(route.method)
			require.NotNil(t, operation, "Operation not found in OpenAPI spec: %s %s", route.method, route.path)

			assert.NotEmpty(t, operation.OperationID, "OperationID should be set")
			assert.NotEmpty(t, operation.Tags, "Tags should be set")
			assert.NotEmpty(t, operation.Responses, "Responses should be defined")
		})
	}
}

func TestOpenAPISecuritySchemes(t *testing.T) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	doc, err := loader.LoadFromFile("../../artifacts/openapi.yaml")
	require.NoError(t, err)

	require.NotNil(t, doc.Components.SecuritySchemes, "Security schemes should be defined")

	cookieAuth := doc.Components.SecuritySchemes["cookieAuth"]
	require.NotNil(t, cookieAuth, "cookieAuth security scheme should exist")
	assert.Equal(t, "apiKey", cookieAuth.Value.Type)
	assert.Equal(t, "cookie", cookieAuth.Value.In)
	assert.Equal(t, "session_id", cookieAuth.Value.Name)
}

func TestOpenAPISchemas(t *testing.T) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	doc, err := loader.LoadFromFile("../../artifacts/openapi.yaml")
	require.NoError(t, err)

	requiredSchemas := []string{
		"OTPRequest",
		"LoginRequest",
		"SignupRequest",
		"LoginResponse",
		"UserResponse",
		"Country",
		"CreateRoomRequest",
		"ChatRoom",
		"Message",
		"MessagesResponse",
		"SendMessageRequest",
		"ErrorResponse",
	}

	for _, name := range requiredSchemas {
		assert.Contains(t, doc.Components.Schemas, name, "schema %s should exist", name)
	}
}

func TestOpenAPIValidator_Disabled(t *testing.T) {
	config := &OpenAPIValidatorConfig{Enabled: false}

	nextCalled := false
	handler := OpenAPIValidator(config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.True(t, nextCalled, "disabled validator should pass everything through")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOpenAPIValidator_MissingSpecIsNoop(t *testing.T) {
	config := &OpenAPIValidatorConfig{
		Enabled:          true,
		SpecPath:         "does-not-exist.yaml",
		ValidateRequests: true,
	}

	nextCalled := false
	handler := OpenAPIValidator(config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.True(t, nextCalled, "validator should degrade to no-op when spec is missing")
}

func TestOpenAPIValidator_RejectsUnknownPath(t *testing.T) {
	config := &OpenAPIValidatorConfig{
		Enabled:          true,
		SpecPath:         "../../artifacts/openapi.yaml",
		ValidateRequests: true,
	}

	nextCalled := false
	handler := OpenAPIValidator(config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/not-in-spec", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.False(t, nextCalled, "unknown path should be rejected")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOpenAPIValidator_SkipPaths(t *testing.T) {
	config := &OpenAPIValidatorConfig{
		Enabled:          true,
		SpecPath:         "../../artifacts/openapi.yaml",
		ValidateRequests: true,
		SkipPaths:        []string{"/metrics"},
	}

	nextCalled := false
	handler := OpenAPIValidator(config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.True(t, nextCalled, "skip path should bypass validation")
}

func TestOpenAPIValidator_RejectsInvalidBody(t *testing.T) {
	config := &OpenAPIValidatorConfig{
		Enabled:          true,
		SpecPath:         "../../artifacts/openapi.yaml",
		ValidateRequests: true,
	}

	nextCalled := false
	handler := OpenAPIValidator(config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	}))

	// Missing required fields phone and countryCode
	req := httptest.NewRequest(http.MethodPost, "/auth/otp", nil)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.False(t, nextCalled, "invalid body should be rejected")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShouldSkipPath(t *testing.T) {
	skipPaths := []string{"/health", "/metrics", "/ws/"}

	assert.True(t, shouldSkipPath("/health", skipPaths))
	assert.True(t, shouldSkipPath("/health/ready", skipPaths))
	assert.True(t, shouldSkipPath("/ws/events", skipPaths))
	assert.False(t, shouldSkipPath("/chatrooms", skipPaths))
}
