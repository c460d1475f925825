package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

// TestRouterIntegration_PublicAndProtectedRoutes は
// 公開ルートと認証必須ルートが同じパスで共存できることを検証する。
func TestRouterIntegration_PublicAndProtectedRoutes(t *testing.T) {
	r := chi.NewRouter()

	r.Route("/api/charging-stations", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		r.Group(func(r chi.Router) {
			r.Use(NewAuthMiddleware(validVerifier(), existingUser(), nil))
			r.Post("/", func(w http.ResponseWriter, r *http.Request) {
				userID, _ := UserIDFromContext(r.Context())
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusCreated)
				json.NewEncoder(w).Encode(map[string]string{"user_id": userID})
			})
		})
	})

	t.Run("GET_public_without_token", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/charging-stations", nil))

		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
		}
	})

	t.Run("POST_protected_without_token", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/charging-stations", nil))

		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("POST_protected_with_token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/charging-stations", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
		}
		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if body["user_id"] != "user-123" {
			t.Errorf("user_id = %q, want %q", body["user_id"], "user-123")
		}
	})
}

// TestRouterIntegration_RateLimitAfterAuth は認証済みユーザー単位でレート制限されることを検証する。
func TestRouterIntegration_RateLimitAfterAuth(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    2,
		CredentialRate:  1,
		CredentialBurst: 1,
		CleanupInterval: time.Minute,
	})
	defer rl.Stop()

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(NewAuthMiddleware(validVerifier(), existingUser(), nil))
		r.Use(rl.GeneralMiddleware())
		r.Get("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i, code := range want {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		if w.Code != code {
			t.Errorf("request %d: status = %d, want %d", i+1, w.Code, code)
		}
	}
}
