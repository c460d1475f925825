package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/chargemap/internal/middleware"
	"github.com/hitoshi/chargemap/internal/model"
	"github.com/hitoshi/chargemap/internal/validation"
)

// StationServiceInterface は充電スタンドハンドラーが必要とするサービスインターフェース。
type StationServiceInterface interface {
	// List は絞り込み条件に一致する充電スタンドを返す。
	List(ctx context.Context, query validation.ListStationsQuery) ([]*model.ChargingStation, error)
	// Get は指定IDの充電スタンドを返す。
	Get(ctx context.Context, id string) (*model.ChargingStation, error)
	// Create はownerIDを所有者として充電スタンドを作成する。
	Create(ctx context.Context, ownerID string, req validation.CreateStationRequest) (*model.ChargingStation, error)
	// Update は所有者による部分更新を行う。
	Update(ctx context.Context, id, ownerID string, req validation.UpdateStationRequest) (*model.ChargingStation, error)
	// Delete は所有者による削除を行う。
	Delete(ctx context.Context, id, ownerID string) error
	// FindWithinRadius は中心から指定距離以内の充電スタンドを返す。
	FindWithinRadius(ctx context.Context, query validation.RadiusQuery) ([]*model.ChargingStation, error)
}

// StationMutationRecorder は充電スタンド変更のメトリクス記録に必要なインターフェース。
type StationMutationRecorder interface {
	RecordStationMutation(operation string)
}

// StationHandler は充電スタンド管理のHTTPハンドラー。
type StationHandler struct {
	service      StationServiceInterface
	recorder     StationMutationRecorder
	maxBodyBytes int64
}

// NewStationHandler はStationHandlerを生成する。recorderはnilでもよい。
func NewStationHandler(service StationServiceInterface, recorder StationMutationRecorder, maxBodyBytes int64) *StationHandler {
	return &StationHandler{
		service:      service,
		recorder:     recorder,
		maxBodyBytes: maxBodyBytes,
	}
}

// ListStations は充電スタンド一覧を返す。
// GET /api/charging-stations?status=&minPower=&maxPower=&connectorType=
func (h *StationHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := validation.ListStationsQuery{
		Status:        q.Get("status"),
		MinPower:      q.Get("minPower"),
		MaxPower:      q.Get("maxPower"),
		ConnectorType: q.Get("connectorType"),
	}

	stations, err := h.service.List(r.Context(), query)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeList(w, toStationResponses(stations))
}

// GetStation は充電スタンド詳細を返す。
// GET /api/charging-stations/{id}
func (h *StationHandler) GetStation(w http.ResponseWriter, r *http.Request) {
	station, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, toStationResponse(station))
}

// FindWithinRadius は中心座標から指定距離（km）以内の充電スタンドを返す。
// GET /api/charging-stations/radius/{latitude}/{longitude}/{distance}
func (h *StationHandler) FindWithinRadius(w http.ResponseWriter, r *http.Request) {
	query, err := validation.ParseRadiusQuery(
		chi.URLParam(r, "latitude"),
		chi.URLParam(r, "longitude"),
		chi.URLParam(r, "distance"),
	)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	stations, err := h.service.FindWithinRadius(r.Context(), query)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeList(w, toStationResponses(stations))
}

// CreateStation は充電スタンドを作成する。
// POST /api/charging-stations
func (h *StationHandler) CreateStation(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUserID(w, r)
	if !ok {
		return
	}

	var req validation.CreateStationRequest
	if err := decodeJSONBody(w, r, h.maxBodyBytes, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	station, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.recordMutation("create")
	writeData(w, http.StatusCreated, toStationResponse(station))
}

// UpdateStation は充電スタンドを部分更新する。
// PUT /api/charging-stations/{id}
func (h *StationHandler) UpdateStation(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUserID(w, r)
	if !ok {
		return
	}

	var req validation.UpdateStationRequest
	if err := decodeJSONBody(w, r, h.maxBodyBytes, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	station, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), userID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.recordMutation("update")
	writeData(w, http.StatusOK, toStationResponse(station))
}

// DeleteStation は充電スタンドを削除する。
// DELETE /api/charging-stations/{id}
func (h *StationHandler) DeleteStation(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.recordMutation("delete")
	writeData(w, http.StatusOK, struct{}{})
}

// requireUserID は認証ミドルウェアが注入したユーザーIDを取得する。
// 取得できない場合は401を書き込みfalseを返す。
func (h *StationHandler) requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		handleServiceError(w, r, model.NewUnauthorizedError(""))
		return "", false
	}
	return userID, true
}

func (h *StationHandler) recordMutation(operation string) {
	if h.recorder != nil {
		h.recorder.RecordStationMutation(operation)
	}
}
