package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	a := New("test-secret", 60)
	token, err := a.GenerateToken("ci")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := a.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Subject != "ci" {
		t.Errorf("subject: got %q, want ci", claims.Subject)
	}
}

func TestValidateWrongSecret(t *testing.T) {
	token, err := New("secret-a", 60).GenerateToken("ci")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := New("secret-b", 60).ValidateToken(token); err == nil {
		t.Error("expected validation failure with wrong secret")
	}
}

func TestExpiredToken(t *testing.T) {
	a := New("test-secret", -1)
	token, err := a.GenerateToken("ci")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := a.ValidateToken(token); err == nil {
		t.Error("expected validation failure for expired token")
	}
}

func TestMiddleware(t *testing.T) {
	a := New("test-secret", 60)
	handler := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("status: got %d, want %d", rec.Code, tt.status)
			}
		})
	}

	token, err := a.GenerateToken("ci")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status with valid token: got %d, want 200", rec.Code)
	}
}
