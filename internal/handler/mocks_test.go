package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/hitoshi/chargemap/internal/auth"
	"github.com/hitoshi/chargemap/internal/middleware"
	"github.com/hitoshi/chargemap/internal/model"
	"github.com/hitoshi/chargemap/internal/validation"
)

// --- モック定義 ---

type mockAuthService struct {
	registerFn func(ctx context.Context, req validation.RegisterRequest) (*auth.Result, error)
	loginFn    func(ctx context.Context, req validation.LoginRequest) (*auth.Result, error)
}

func (m *mockAuthService) Register(ctx context.Context, req validation.RegisterRequest) (*auth.Result, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) Login(ctx context.Context, req validation.LoginRequest) (*auth.Result, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

type mockStationService struct {
	listFn             func(ctx context.Context, query validation.ListStationsQuery) ([]*model.ChargingStation, error)
	getFn              func(ctx context.Context, id string) (*model.ChargingStation, error)
	createFn           func(ctx context.Context, ownerID string, req validation.CreateStationRequest) (*model.ChargingStation, error)
	updateFn           func(ctx context.Context, id, ownerID string, req validation.UpdateStationRequest) (*model.ChargingStation, error)
	deleteFn           func(ctx context.Context, id, ownerID string) error
	findWithinRadiusFn func(ctx context.Context, query validation.RadiusQuery) ([]*model.ChargingStation, error)
}

func (m *mockStationService) List(ctx context.Context, query validation.ListStationsQuery) ([]*model.ChargingStation, error) {
	if m.listFn != nil {
		return m.listFn(ctx, query)
	}
	return []*model.ChargingStation{}, nil
}

func (m *mockStationService) Get(ctx context.Context, id string) (*model.ChargingStation, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, model.NewStationNotFoundError()
}

func (m *mockStationService) Create(ctx context.Context, ownerID string, req validation.CreateStationRequest) (*model.ChargingStation, error) {
	if m.createFn != nil {
		return m.createFn(ctx, ownerID, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockStationService) Update(ctx context.Context, id, ownerID string, req validation.UpdateStationRequest) (*model.ChargingStation, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, ownerID, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockStationService) Delete(ctx context.Context, id, ownerID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id, ownerID)
	}
	return nil
}

func (m *mockStationService) FindWithinRadius(ctx context.Context, query validation.RadiusQuery) ([]*model.ChargingStation, error) {
	if m.findWithinRadiusFn != nil {
		return m.findWithinRadiusFn(ctx, query)
	}
	return []*model.ChargingStation{}, nil
}

type mockMutationRecorder struct {
	operations []string
}

func (m *mockMutationRecorder) RecordStationMutation(operation string) {
	m.operations = append(m.operations, operation)
}

// --- compile-time interface checks ---
var _ AuthServiceInterface = (*mockAuthService)(nil)
var _ AuthServiceInterface = (*auth.Service)(nil)
var _ StationServiceInterface = (*mockStationService)(nil)

// --- テストヘルパー ---

// jsonRequest はJSONボディ付きのリクエストを生成する。
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// withUser は認証ミドルウェアを通過した状態のリクエストにする。
func withUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(middleware.ContextWithUser(req.Context(), &model.User{ID: userID, Email: userID + "@example.com"}))
}

// decodeBody はレスポンスボディを汎用マップにデコードする。
func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body: %v\nraw: %s", err, w.Body.String())
	}
	return body
}

// decodeError はエラーレスポンスをデコードする。
func decodeError(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error body: %v\nraw: %s", err, w.Body.String())
	}
	return body
}

// slogDiscard はテスト出力を汚さないロガーを返す。
func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
