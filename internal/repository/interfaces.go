// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/chargemap/internal/geo"
	"github.com/hitoshi/chargemap/internal/model"
)

var (
	// ErrEmailTaken は同じメールアドレスのユーザーが既に存在する場合に返る。
	ErrEmailTaken = errors.New("email already registered")

	// ErrNotFound は更新・削除の対象行が存在しない場合に返る。
	ErrNotFound = errors.New("record not found")
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。メールアドレスが重複する場合はErrEmailTakenを返す。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail は正規化済みメールアドレスでユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// StationRepository は充電スタンドデータの永続化インターフェース。
// 取得系はすべて作成ユーザーのメールアドレスを解決し、created_at, id の昇順で返す。
type StationRepository interface {
	// List は絞り込み条件に一致する充電スタンドを取得する。
	List(ctx context.Context, filter model.StationFilter) ([]*model.ChargingStation, error)

	// FindByID は指定IDの充電スタンドを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.ChargingStation, error)

	// Create は充電スタンドを作成する。
	Create(ctx context.Context, station *model.ChargingStation) error

	// Update はパッチで指定されたフィールドのみ更新する。
	// 対象が存在しない場合はErrNotFoundを返す。
	Update(ctx context.Context, id string, patch model.StationPatch) error

	// Delete は充電スタンドを削除する。対象が存在しない場合はErrNotFoundを返す。
	Delete(ctx context.Context, id string) error

	// ListWithinBoxes はいずれかの緯度経度矩形に含まれる充電スタンドを取得する。
	ListWithinBoxes(ctx context.Context, boxes []geo.Box) ([]*model.ChargingStation, error)
}
