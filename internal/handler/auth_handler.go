// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/chargemap/internal/auth"
	"github.com/hitoshi/chargemap/internal/middleware"
	"github.com/hitoshi/chargemap/internal/model"
	"github.com/hitoshi/chargemap/internal/validation"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, req validation.RegisterRequest) (*auth.Result, error)
	Login(ctx context.Context, req validation.LoginRequest) (*auth.Result, error)
}

// AuthHandler はユーザー登録・ログイン・現在ユーザー取得のHTTPハンドラー。
type AuthHandler struct {
	service      AuthServiceInterface
	maxBodyBytes int64
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, maxBodyBytes int64) *AuthHandler {
	return &AuthHandler{
		service:      service,
		maxBodyBytes: maxBodyBytes,
	}
}

// Register はユーザー登録を処理する。
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req validation.RegisterRequest
	if err := decodeJSONBody(w, r, h.maxBodyBytes, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	result, err := h.service.Register(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAuthResponse(result))
}

// Login はログインを処理する。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req validation.LoginRequest
	if err := decodeJSONBody(w, r, h.maxBodyBytes, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	result, err := h.service.Login(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAuthResponse(result))
}

// Me は認証済みユーザーの情報を返す。
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		handleServiceError(w, r, model.NewUnauthorizedError(""))
		return
	}

	writeData(w, http.StatusOK, toUserResponse(user))
}

func toAuthResponse(result *auth.Result) authResponse {
	return authResponse{
		Success: true,
		Token:   result.Token,
		User:    toUserResponse(result.User),
	}
}
