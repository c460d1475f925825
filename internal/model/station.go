// Package model はドメインモデルを定義する。
package model

import "time"

// StationStatus は充電スタンドの稼働状態を表す。
type StationStatus string

const (
	// StationStatusActive は稼働中。新規作成時のデフォルト。
	StationStatusActive StationStatus = "active"
	// StationStatusInactive は停止中。
	StationStatusInactive StationStatus = "inactive"
)

// ConnectorType はコネクタ規格を表す。
type ConnectorType string

const (
	ConnectorLevel1 ConnectorType = "Level 1"
	ConnectorLevel2 ConnectorType = "Level 2"
	ConnectorDCFast ConnectorType = "DC Fast"
)

// Location は地球上の1点。GeoJSONの座標順に合わせ経度を先に持つ。
type Location struct {
	Longitude float64
	Latitude  float64
}

// Coordinates はGeoJSON Pointの座標配列 [経度, 緯度] を返す。
func (l Location) Coordinates() [2]float64 {
	return [2]float64{l.Longitude, l.Latitude}
}

// ChargingStation は充電スタンドを表す。
// CreatedByは作成ユーザーのIDで、作成後に変更されることはない。
type ChargingStation struct {
	ID             string
	Name           string
	Location       Location
	Status         StationStatus
	PowerOutput    float64 // kW
	ConnectorType  ConnectorType
	CreatedBy      string
	CreatedByEmail string
	CreatedAt      time.Time
}

// StationFilter は一覧取得時の絞り込み条件。
// nilまたは空文字のフィールドは条件に含めない。指定した条件はすべてANDで結合する。
type StationFilter struct {
	Status        StationStatus
	MinPower      *float64
	MaxPower      *float64
	ConnectorType ConnectorType
}

// StationPatch は充電スタンドの部分更新内容。
// nilのフィールドは既存の値を維持する。
type StationPatch struct {
	Name          *string
	Location      *Location
	Status        *StationStatus
	PowerOutput   *float64
	ConnectorType *ConnectorType
}
