package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"disaster-bot/internal/models"
)

func operatorEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetOperator(r.Context())))
	})
}

func serveWithAuth(j *JWTAuth, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/operator/alerts", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	j.Middleware(operatorEcho()).ServeHTTP(rr, req)
	return rr
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body.Error
}

func TestJWTAuth_ValidOperatorToken(t *testing.T) {
	j := NewJWTAuth("test-secret")
	token, err := j.GenerateOperatorToken("control-room", time.Hour)
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}

	rr := serveWithAuth(j, "Bearer "+token)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Body.String() != "control-room" {
		t.Errorf("expected operator name in context, got %q", rr.Body.String())
	}
}

func TestJWTAuth_Rejections(t *testing.T) {
	j := NewJWTAuth("test-secret")

	expired, _ := j.GenerateOperatorToken("ops", -time.Minute)
	wrongSecret, _ := NewJWTAuth("other-secret").GenerateOperatorToken("ops", time.Hour)
	viewer, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "viewer",
		"role": "viewer",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString(j.Secret)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantError  string
	}{
		{"missing header", "", http.StatusUnauthorized, "Missing authorization header"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Invalid authorization format"},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized, "Invalid token"},
		{"wrong secret", "Bearer " + wrongSecret, http.StatusUnauthorized, "Invalid token"},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, "Token has expired"},
		{"non-operator role", "Bearer " + viewer, http.StatusForbidden, "Operator role required"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := serveWithAuth(j, tc.header)
			if rr.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rr.Code)
			}
			if got := errorMessage(t, rr); got != tc.wantError {
				t.Errorf("expected error %q, got %q", tc.wantError, got)
			}
		})
	}
}
