// Package station は充電スタンドの一覧・取得・作成・更新・削除と半径検索を提供する。
package station

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/chargemap/internal/geo"
	"github.com/hitoshi/chargemap/internal/model"
	"github.com/hitoshi/chargemap/internal/repository"
	"github.com/hitoshi/chargemap/internal/security"
	"github.com/hitoshi/chargemap/internal/validation"
)

// Service は充電スタンドに関するビジネスロジックを提供する。
type Service struct {
	repo      repository.StationRepository
	sanitizer security.TextSanitizer
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(repo repository.StationRepository, sanitizer security.TextSanitizer) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// List は絞り込み条件に一致する充電スタンドを作成順に返す。
func (s *Service) List(ctx context.Context, query validation.ListStationsQuery) ([]*model.ChargingStation, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	stations, err := s.repo.List(ctx, query.Filter())
	if err != nil {
		return nil, fmt.Errorf("failed to list charging stations: %w", err)
	}
	return stations, nil
}

// Get は指定IDの充電スタンドを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.ChargingStation, error) {
	station, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find charging station: %w", err)
	}
	if station == nil {
		return nil, model.NewStationNotFoundError()
	}
	return station, nil
}

// Create は認証済みユーザーを所有者として充電スタンドを作成する。
func (s *Service) Create(ctx context.Context, ownerID string, req validation.CreateStationRequest) (*model.ChargingStation, error) {
	req.Normalize()
	req.Name = s.sanitizer.Sanitize(req.Name)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	station := req.Station(ownerID)
	station.ID = uuid.New().String()
	station.CreatedAt = s.now()

	if err := s.repo.Create(ctx, station); err != nil {
		return nil, fmt.Errorf("failed to create charging station: %w", err)
	}

	slog.Info("charging station created",
		slog.String("station_id", station.ID),
		slog.String("user_id", ownerID),
	)

	return s.Get(ctx, station.ID)
}

// Update は所有者による部分更新を行う。
// 存在確認、所有者確認、入力検証の順に判定する。
func (s *Service) Update(ctx context.Context, id, ownerID string, req validation.UpdateStationRequest) (*model.ChargingStation, error) {
	if _, err := s.authorize(ctx, id, ownerID, "update"); err != nil {
		return nil, err
	}

	req.Normalize()
	if req.Name != nil {
		name := s.sanitizer.Sanitize(*req.Name)
		req.Name = &name
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, id, req.Patch()); err != nil {
		// 所有者確認の後に削除された場合
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewStationNotFoundError()
		}
		return nil, fmt.Errorf("failed to update charging station: %w", err)
	}

	slog.Info("charging station updated",
		slog.String("station_id", id),
		slog.String("user_id", ownerID),
	)

	return s.Get(ctx, id)
}

// Delete は所有者による削除を行う。
func (s *Service) Delete(ctx context.Context, id, ownerID string) error {
	if _, err := s.authorize(ctx, id, ownerID, "delete"); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewStationNotFoundError()
		}
		return fmt.Errorf("failed to delete charging station: %w", err)
	}

	slog.Info("charging station deleted",
		slog.String("station_id", id),
		slog.String("user_id", ownerID),
	)
	return nil
}

// FindWithinRadius は中心から指定距離（km）以内の充電スタンドを返す。
// 緯度経度矩形で候補を取得したうえで、球面上の距離で最終判定する。
func (s *Service) FindWithinRadius(ctx context.Context, query validation.RadiusQuery) ([]*model.ChargingStation, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	c := geo.NewCap(query.Latitude, query.Longitude, query.Distance)

	candidates, err := s.repo.ListWithinBoxes(ctx, c.Boxes())
	if err != nil {
		return nil, fmt.Errorf("failed to list charging stations within radius: %w", err)
	}

	stations := make([]*model.ChargingStation, 0, len(candidates))
	for _, st := range candidates {
		if c.Contains(st.Location.Latitude, st.Location.Longitude) {
			stations = append(stations, st)
		}
	}
	return stations, nil
}

// authorize は充電スタンドの存在と所有者を確認する。
func (s *Service) authorize(ctx context.Context, id, ownerID, action string) (*model.ChargingStation, error) {
	station, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if station.CreatedBy != ownerID {
		slog.Warn("charging station ownership mismatch",
			slog.String("station_id", id),
			slog.String("user_id", ownerID),
			slog.String("action", action),
		)
		return nil, model.NewForbiddenError(action)
	}
	return station, nil
}
