// Package model はドメインモデルを定義する。
package model

import "time"

// User はメールアドレスとパスワードで登録したユーザーを表す。
// Emailは前後の空白を除去し小文字に正規化した値を保持する。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
