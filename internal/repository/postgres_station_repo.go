package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hitoshi/chargemap/internal/geo"
	"github.com/hitoshi/chargemap/internal/model"
)

// stationSelect は作成ユーザーのメールアドレスを含めて充電スタンドを取得するベースクエリ。
const stationSelect = `
		SELECT s.id, s.name, s.longitude, s.latitude, s.status, s.power_output,
		       s.connector_type, s.created_by, COALESCE(u.email, ''), s.created_at
		FROM chargingstations s
		LEFT JOIN users u ON u.id = s.created_by`

const stationOrder = ` ORDER BY s.created_at, s.id`

// PostgresStationRepo はPostgreSQLを使用した充電スタンドリポジトリ。
type PostgresStationRepo struct {
	db *sql.DB
}

// NewPostgresStationRepo はPostgresStationRepoを生成する。
func NewPostgresStationRepo(db *sql.DB) *PostgresStationRepo {
	return &PostgresStationRepo{db: db}
}

// List は絞り込み条件に一致する充電スタンドを取得する。
func (r *PostgresStationRepo) List(ctx context.Context, filter model.StationFilter) ([]*model.ChargingStation, error) {
	query, args := buildListQuery(filter)
	return r.queryStations(ctx, query, args...)
}

// FindByID は指定IDの充電スタンドを取得する。見つからない場合はnilを返す。
// UUIDとして不正なIDも見つからない扱いとする。
func (r *PostgresStationRepo) FindByID(ctx context.Context, id string) (*model.ChargingStation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	station, err := scanStation(r.db.QueryRowContext(ctx, stationSelect+` WHERE s.id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find charging station by ID: %w", err)
	}
	return station, nil
}

// Create は充電スタンドを作成する。
func (r *PostgresStationRepo) Create(ctx context.Context, station *model.ChargingStation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chargingstations (id, name, longitude, latitude, status, power_output,
		                               connector_type, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		station.ID, station.Name, station.Location.Longitude, station.Location.Latitude,
		string(station.Status), station.PowerOutput, string(station.ConnectorType),
		station.CreatedBy, station.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert charging station: %w", err)
	}
	return nil
}

// Update はパッチで指定されたフィールドのみ更新する。
// created_byは更新対象に含めない。
func (r *PostgresStationRepo) Update(ctx context.Context, id string, patch model.StationPatch) error {
	query, args, ok := buildUpdateQuery(id, patch)
	if !ok {
		return nil
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update charging station: %w", err)
	}
	return requireAffected(result)
}

// Delete は充電スタンドを削除する。
func (r *PostgresStationRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM chargingstations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete charging station: %w", err)
	}
	return requireAffected(result)
}

// ListWithinBoxes はいずれかの緯度経度矩形に含まれる充電スタンドを取得する。
// (latitude, longitude) の複合インデックスで候補を絞り込む。
func (r *PostgresStationRepo) ListWithinBoxes(ctx context.Context, boxes []geo.Box) ([]*model.ChargingStation, error) {
	if len(boxes) == 0 {
		return nil, nil
	}
	query, args := buildBoxQuery(boxes)
	return r.queryStations(ctx, query, args...)
}

func (r *PostgresStationRepo) queryStations(ctx context.Context, query string, args ...any) ([]*model.ChargingStation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list charging stations: %w", err)
	}
	defer rows.Close()

	stations := []*model.ChargingStation{}
	for rows.Next() {
		station, err := scanStation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan charging station: %w", err)
		}
		stations = append(stations, station)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate charging stations: %w", err)
	}

	return stations, nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanStation(row rowScanner) (*model.ChargingStation, error) {
	s := &model.ChargingStation{}
	var status, connectorType string
	if err := row.Scan(
		&s.ID, &s.Name, &s.Location.Longitude, &s.Location.Latitude, &status,
		&s.PowerOutput, &connectorType, &s.CreatedBy, &s.CreatedByEmail, &s.CreatedAt,
	); err != nil {
		return nil, err
	}
	s.Status = model.StationStatus(status)
	s.ConnectorType = model.ConnectorType(connectorType)
	return s, nil
}

func requireAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// buildListQuery は絞り込み条件からSELECT文と引数を組み立てる。
// 指定された条件はANDで結合する。
func buildListQuery(filter model.StationFilter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Status != "" {
		add("s.status = $%d", string(filter.Status))
	}
	if filter.MinPower != nil {
		add("s.power_output >= $%d", *filter.MinPower)
	}
	if filter.MaxPower != nil {
		add("s.power_output <= $%d", *filter.MaxPower)
	}
	if filter.ConnectorType != "" {
		add("s.connector_type = $%d", string(filter.ConnectorType))
	}

	query := stationSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	return query + stationOrder, args
}

// buildBoxQuery は矩形のいずれかに含まれる行を取得するSELECT文と引数を組み立てる。
func buildBoxQuery(boxes []geo.Box) (string, []any) {
	conds := make([]string, 0, len(boxes))
	args := make([]any, 0, len(boxes)*4)

	for _, b := range boxes {
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(s.latitude BETWEEN $%d AND $%d AND s.longitude BETWEEN $%d AND $%d)",
			n+1, n+2, n+3, n+4,
		))
		args = append(args, b.MinLat, b.MaxLat, b.MinLng, b.MaxLng)
	}

	return stationSelect + " WHERE " + strings.Join(conds, " OR ") + stationOrder, args
}

// buildUpdateQuery はパッチからUPDATE文と引数を組み立てる。
// 更新対象のフィールドがない場合はokがfalseになる。
func buildUpdateQuery(id string, patch model.StationPatch) (query string, args []any, ok bool) {
	var sets []string

	set := func(col string, arg any) {
		args = append(args, arg)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.Location != nil {
		set("longitude", patch.Location.Longitude)
		set("latitude", patch.Location.Latitude)
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	if patch.PowerOutput != nil {
		set("power_output", *patch.PowerOutput)
	}
	if patch.ConnectorType != nil {
		set("connector_type", string(*patch.ConnectorType))
	}

	if len(sets) == 0 {
		return "", nil, false
	}

	args = append(args, id)
	query = fmt.Sprintf("UPDATE chargingstations SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	return query, args, true
}

// compile-time interface check
var _ StationRepository = (*PostgresStationRepo)(nil)
