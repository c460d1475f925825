package validation

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hitoshi/chargemap/internal/model"
)

// Number はJSONの数値または数値文字列を受け付けるfloat64。
// フォーム入力を文字列のまま送るクライアントに対応する。
// 数値として解釈できない値はNaNとして保持し、検証時にフィールドエラーになる。
type Number float64

// UnmarshalJSON はjson.Unmarshalerを実装する。
// 他のフィールドの違反と合わせて報告するため、不正な値でもエラーは返さない。
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number(math.NaN())

	raw := bytes.TrimSpace(data)
	if len(raw) > 0 && raw[0] == '"' {
		s, err := strconv.Unquote(string(raw))
		if err != nil {
			return nil
		}
		raw = []byte(strings.TrimSpace(s))
	}

	if v, err := parseFinite(string(raw)); err == nil {
		*n = Number(v)
	}
	return nil
}

// Valid は数値として解釈できた値かどうかを返す。
func (n Number) Valid() bool {
	return !math.IsNaN(float64(n))
}

// parseFinite は有限の浮動小数点数のみを受け付ける。
func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

// RegisterRequest はユーザー登録のリクエストボディ。
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Validate は入力を正規化したうえで検証する。
func (r *RegisterRequest) Validate() error {
	r.Email = normalizeEmail(r.Email)
	return toError(ValidateStruct(r))
}

// LoginRequest はログインのリクエストボディ。
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Validate は入力を正規化したうえで検証する。
func (r *LoginRequest) Validate() error {
	r.Email = normalizeEmail(r.Email)
	return toError(ValidateStruct(r))
}

// LocationInput はGeoJSON Point形式の位置入力。
type LocationInput struct {
	Type        string   `json:"type" validate:"omitempty,eq=Point"`
	Coordinates []Number `json:"coordinates" validate:"lnglat"`
}

func (l *LocationInput) location() model.Location {
	return model.Location{
		Longitude: float64(l.Coordinates[0]),
		Latitude:  float64(l.Coordinates[1]),
	}
}

// CreateStationRequest は充電スタンド作成のリクエストボディ。
// locationの代わりに最上位のlatitude/longitudeでも位置を指定できる。
// createdByはリクエストから受け付けない。
type CreateStationRequest struct {
	Name          string         `json:"name" validate:"required,max=100"`
	Location      *LocationInput `json:"location" validate:"required"`
	Latitude      *Number        `json:"latitude,omitempty" validate:"-"`
	Longitude     *Number        `json:"longitude,omitempty" validate:"-"`
	Status        string         `json:"status" validate:"omitempty,oneof=active inactive"`
	PowerOutput   *Number        `json:"powerOutput" validate:"required,finite,gte=1"`
	ConnectorType string         `json:"connectorType" validate:"required,oneof='Level 1' 'Level 2' 'DC Fast'"`
}

// Normalize は文字列の前後空白を除去し、最上位の緯度経度をlocationにまとめる。
func (r *CreateStationRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Status = strings.TrimSpace(r.Status)
	r.ConnectorType = strings.TrimSpace(r.ConnectorType)
	if r.Location == nil && r.Latitude != nil && r.Longitude != nil {
		r.Location = &LocationInput{
			Type:        "Point",
			Coordinates: []Number{*r.Longitude, *r.Latitude},
		}
	}
}

// Validate は正規化済みの入力を検証する。
func (r *CreateStationRequest) Validate() error {
	return toError(ValidateStruct(r))
}

// Station は検証済みの入力から充電スタンドを組み立てる。
// statusが未指定の場合はactiveになる。
func (r *CreateStationRequest) Station(ownerID string) *model.ChargingStation {
	status := model.StationStatus(r.Status)
	if status == "" {
		status = model.StationStatusActive
	}
	return &model.ChargingStation{
		Name:          r.Name,
		Location:      r.Location.location(),
		Status:        status,
		PowerOutput:   float64(*r.PowerOutput),
		ConnectorType: model.ConnectorType(r.ConnectorType),
		CreatedBy:     ownerID,
	}
}

// UpdateStationRequest は充電スタンド部分更新のリクエストボディ。
// nilのフィールドは更新しない。
type UpdateStationRequest struct {
	Name          *string        `json:"name" validate:"omitempty,min=1,max=100"`
	Location      *LocationInput `json:"location"`
	Latitude      *Number        `json:"latitude,omitempty" validate:"-"`
	Longitude     *Number        `json:"longitude,omitempty" validate:"-"`
	Status        *string        `json:"status" validate:"omitempty,oneof=active inactive"`
	PowerOutput   *Number        `json:"powerOutput" validate:"omitempty,finite,gte=1"`
	ConnectorType *string        `json:"connectorType" validate:"omitempty,oneof='Level 1' 'Level 2' 'DC Fast'"`
}

// Normalize は文字列の前後空白を除去し、最上位の緯度経度をlocationにまとめる。
func (r *UpdateStationRequest) Normalize() {
	for _, s := range []*string{r.Name, r.Status, r.ConnectorType} {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
	if r.Location == nil && r.Latitude != nil && r.Longitude != nil {
		r.Location = &LocationInput{
			Type:        "Point",
			Coordinates: []Number{*r.Longitude, *r.Latitude},
		}
	}
}

// Validate は正規化済みの入力を検証する。
// 更新対象のフィールドが1つもない場合もエラーとする。
func (r *UpdateStationRequest) Validate() error {
	fields := ValidateStruct(r)

	if r.Location == nil && (r.Latitude != nil) != (r.Longitude != nil) {
		fields = append(fields, model.FieldError{
			Param: "location",
			Msg:   "Please include both latitude and longitude",
		})
	}

	if r.isEmpty() && len(fields) == 0 {
		fields = append(fields, model.FieldError{Msg: "No updatable fields provided"})
	}

	return toError(fields)
}

func (r *UpdateStationRequest) isEmpty() bool {
	return r.Name == nil &&
		r.Location == nil &&
		r.Latitude == nil &&
		r.Longitude == nil &&
		r.Status == nil &&
		r.PowerOutput == nil &&
		r.ConnectorType == nil
}

// Patch は検証済みの入力を部分更新内容に変換する。
func (r *UpdateStationRequest) Patch() model.StationPatch {
	var patch model.StationPatch
	if r.Name != nil {
		name := *r.Name
		patch.Name = &name
	}
	if r.Location != nil {
		loc := r.Location.location()
		patch.Location = &loc
	}
	if r.Status != nil {
		status := model.StationStatus(*r.Status)
		patch.Status = &status
	}
	if r.PowerOutput != nil {
		power := float64(*r.PowerOutput)
		patch.PowerOutput = &power
	}
	if r.ConnectorType != nil {
		ct := model.ConnectorType(*r.ConnectorType)
		patch.ConnectorType = &ct
	}
	return patch
}

// ListStationsQuery は一覧取得のクエリパラメータ。
type ListStationsQuery struct {
	Status        string `json:"status" validate:"omitempty,oneof=active inactive"`
	MinPower      string `json:"minPower" validate:"omitempty,finite"`
	MaxPower      string `json:"maxPower" validate:"omitempty,finite"`
	ConnectorType string `json:"connectorType" validate:"omitempty,oneof='Level 1' 'Level 2' 'DC Fast'"`
}

// Validate は前後空白を除去したうえで検証する。
func (q *ListStationsQuery) Validate() error {
	q.Status = strings.TrimSpace(q.Status)
	q.MinPower = strings.TrimSpace(q.MinPower)
	q.MaxPower = strings.TrimSpace(q.MaxPower)
	q.ConnectorType = strings.TrimSpace(q.ConnectorType)
	return toError(ValidateStruct(q))
}

// Filter は検証済みのクエリを絞り込み条件に変換する。
func (q *ListStationsQuery) Filter() model.StationFilter {
	filter := model.StationFilter{
		Status:        model.StationStatus(q.Status),
		ConnectorType: model.ConnectorType(q.ConnectorType),
	}
	if v, err := parseFinite(q.MinPower); err == nil {
		filter.MinPower = &v
	}
	if v, err := parseFinite(q.MaxPower); err == nil {
		filter.MaxPower = &v
	}
	return filter
}

// RadiusQuery は半径検索のパスパラメータ。Distanceの単位はkm。
type RadiusQuery struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Distance  float64 `json:"distance" validate:"gte=0"`
}

// ParseRadiusQuery はパスパラメータの文字列を数値に変換する。
// 数値として解釈できない値はすべてフィールドエラーとして返す。
func ParseRadiusQuery(latitude, longitude, distance string) (RadiusQuery, error) {
	var q RadiusQuery
	var fields []model.FieldError

	for _, p := range []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"latitude", latitude, &q.Latitude},
		{"longitude", longitude, &q.Longitude},
		{"distance", distance, &q.Distance},
	} {
		v, err := parseFinite(strings.TrimSpace(p.raw))
		if err != nil {
			fields = append(fields, model.FieldError{Param: p.name, Msg: p.name + " must be a number"})
			continue
		}
		*p.dst = v
	}

	return q, toError(fields)
}

// Validate は座標と距離の範囲を検証する。
func (q *RadiusQuery) Validate() error {
	return toError(ValidateStruct(q))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
