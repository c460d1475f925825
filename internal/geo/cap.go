// Package geo は半径検索に使う球面上の幾何計算を提供する。
package geo

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// EarthRadiusKm は距離（km）を角度（ラジアン）に換算する際の地球半径。
const EarthRadiusKm = 6378.0

// boxPaddingDeg は度とラジアンの往復変換で境界上の点を落とさないための余白。
const boxPaddingDeg = 1e-9

// Box は緯度経度の矩形範囲（度、両端を含む）。
// MinLng <= MaxLng を常に満たし、日付変更線をまたぐ範囲は2つのBoxに分割する。
type Box struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// Cap は中心点と距離で定まる球面上の円（球冠）。
type Cap struct {
	cap s2.Cap
}

// NewCap は中心 (lat, lng) から distanceKm 以内を表すCapを生成する。
// 角度半径は distanceKm / EarthRadiusKm ラジアン。
func NewCap(lat, lng, distanceKm float64) Cap {
	center := s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lng))
	angle := s1.Angle(distanceKm / EarthRadiusKm)
	return Cap{cap: s2.CapFromCenterAngle(center, angle)}
}

// Contains は点 (lat, lng) がCapの内側（境界を含む）にある場合にtrueを返す。
func (c Cap) Contains(lat, lng float64) bool {
	return c.cap.ContainsPoint(s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lng)))
}

// Boxes はCapを覆う緯度経度矩形を返す。
// 通常は1つ、日付変更線をまたぐ場合は2つ。極を含む場合は経度全域の1つ。
// 矩形は候補の絞り込み用であり、最終判定にはContainsを使う。
func (c Cap) Boxes() []Box {
	rect := c.cap.RectBound()
	minLat := clamp(rect.Lo().Lat.Degrees()-boxPaddingDeg, -90, 90)
	maxLat := clamp(rect.Hi().Lat.Degrees()+boxPaddingDeg, -90, 90)

	if rect.Lng.IsFull() {
		return []Box{{MinLat: minLat, MaxLat: maxLat, MinLng: -180, MaxLng: 180}}
	}

	lo := rect.Lo().Lng.Degrees() - boxPaddingDeg
	hi := rect.Hi().Lng.Degrees() + boxPaddingDeg

	if rect.Lng.IsInverted() {
		return []Box{
			{MinLat: minLat, MaxLat: maxLat, MinLng: clamp(lo, -180, 180), MaxLng: 180},
			{MinLat: minLat, MaxLat: maxLat, MinLng: -180, MaxLng: clamp(hi, -180, 180)},
		}
	}

	return []Box{{MinLat: minLat, MaxLat: maxLat, MinLng: clamp(lo, -180, 180), MaxLng: clamp(hi, -180, 180)}}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
