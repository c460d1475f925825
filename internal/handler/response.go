package handler

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/hitoshi/chargemap/internal/middleware"
	"github.com/hitoshi/chargemap/internal/model"
)

// DefaultMaxBodyBytes はリクエストボディの既定の上限（1 MiB）。
const DefaultMaxBodyBytes int64 = 1 << 20

// errCodePayloadTooLarge はボディが上限を超えた場合のエラーコード。
const errCodePayloadTooLarge = "PAYLOAD_TOO_LARGE"

// successResponse は成功時の統一レスポンス。
// Countは一覧系エンドポイントのみ設定する。
type successResponse struct {
	Success bool `json:"success"`
	Count   *int `json:"count,omitempty"`
	Data    any  `json:"data"`
}

// authResponse は登録・ログイン成功時のレスポンス。
type authResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token"`
	User    userResponse `json:"user"`
}

// userResponse はユーザー情報のAPIレスポンス。パスワードハッシュは含めない。
type userResponse struct {
	ID        string    `json:"_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// pointResponse はGeoJSON Point。
type pointResponse struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// ownerResponse は充電スタンドの作成ユーザー。
type ownerResponse struct {
	ID    string `json:"_id"`
	Email string `json:"email"`
}

// stationResponse は充電スタンドのAPIレスポンス。
type stationResponse struct {
	ID            string        `json:"_id"`
	Name          string        `json:"name"`
	Location      pointResponse `json:"location"`
	Status        string        `json:"status"`
	PowerOutput   float64       `json:"powerOutput"`
	ConnectorType string        `json:"connectorType"`
	CreatedBy     ownerResponse `json:"createdBy"`
	CreatedAt     time.Time     `json:"createdAt"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.UTC(),
	}
}

func toStationResponse(s *model.ChargingStation) stationResponse {
	return stationResponse{
		ID:   s.ID,
		Name: s.Name,
		Location: pointResponse{
			Type:        "Point",
			Coordinates: s.Location.Coordinates(),
		},
		Status:        string(s.Status),
		PowerOutput:   s.PowerOutput,
		ConnectorType: string(s.ConnectorType),
		CreatedBy: ownerResponse{
			ID:    s.CreatedBy,
			Email: s.CreatedByEmail,
		},
		CreatedAt: s.CreatedAt.UTC(),
	}
}

func toStationResponses(stations []*model.ChargingStation) []stationResponse {
	results := make([]stationResponse, len(stations))
	for i, s := range stations {
		results[i] = toStationResponse(s)
	}
	return results
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeData は {success, data} 形式の成功レスポンスを書き込む。
func writeData(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, successResponse{Success: true, Data: data})
}

// writeList は {success, count, data} 形式の一覧レスポンスを書き込む。
func writeList(w http.ResponseWriter, data []stationResponse) {
	count := len(data)
	writeJSON(w, http.StatusOK, successResponse{Success: true, Count: &count, Data: data})
}

// decodeJSONBody はリクエストボディをdstにデコードする。
// ボディが空の場合は空オブジェクトとして扱い、必須項目の欠落はバリデーションで報告する。
func decodeJSONBody(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return &model.APIError{
				Code:    errCodePayloadTooLarge,
				Message: "Request body too large",
			}
		}
		return model.NewInvalidRequestError("unable to read body")
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return model.NewInvalidRequestError("malformed JSON")
	}
	return nil
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
// 所有者以外による変更は既存クライアントとの互換性のため401で返す。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidation, model.ErrCodeInvalidRequest, model.ErrCodeEmailTaken:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorized, model.ErrCodeInvalidCredentials, model.ErrCodeForbidden:
		return http.StatusUnauthorized
	case model.ErrCodeNotFound:
		return http.StatusNotFound
	case errCodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
