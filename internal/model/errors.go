// Package model はドメインモデルを定義する。
package model

import "fmt"

// FieldError は入力フィールド単位のバリデーションエラー。
// Paramはリクエスト上のフィールド名（例: "location.coordinates"）。
type FieldError struct {
	Param string `json:"param,omitempty"`
	Msg   string `json:"msg"`
}

// APIError はサービス層からハンドラーへ返すドメインエラー。
// ハンドラーはCodeからHTTPステータスを決定する。
type APIError struct {
	Code    string       // エラーコード
	Message string       // クライアントに返すメッセージ
	Fields  []FieldError // バリデーションエラーの一覧（VALIDATION_ERRORのみ）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("[%s] %s (%d field errors)", e.Code, e.Message, len(e.Fields))
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
)

// NewValidationError はフィールドエラーをまとめたバリデーションエラーを生成する。
func NewValidationError(fields []FieldError) *APIError {
	return &APIError{
		Code:    ErrCodeValidation,
		Message: "Validation failed",
		Fields:  fields,
	}
}

// NewInvalidRequestError はリクエストボディを解析できない場合のエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:    ErrCodeInvalidRequest,
		Message: fmt.Sprintf("Invalid request body: %s", reason),
	}
}

// NewEmailTakenError は登録済みメールアドレスでの登録エラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:    ErrCodeEmailTaken,
		Message: "User already exists",
	}
}

// NewUnauthorizedError は認証エラーを生成する。
// トークンの期限切れと改ざんは区別しない。
func NewUnauthorizedError(message string) *APIError {
	if message == "" {
		message = "Not authorized to access this route"
	}
	return &APIError{
		Code:    ErrCodeUnauthorized,
		Message: message,
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// メールアドレスの存在有無は明かさない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:    ErrCodeInvalidCredentials,
		Message: "Invalid credentials",
	}
}

// NewForbiddenError は所有者以外による変更操作のエラーを生成する。
// actionは "update" または "delete"。
func NewForbiddenError(action string) *APIError {
	return &APIError{
		Code:    ErrCodeForbidden,
		Message: fmt.Sprintf("Not authorized to %s this charging station", action),
	}
}

// NewStationNotFoundError は充電スタンドが存在しない場合のエラーを生成する。
func NewStationNotFoundError() *APIError {
	return &APIError{
		Code:    ErrCodeNotFound,
		Message: "Charging station not found",
	}
}

// NewUserNotFoundError はトークンのユーザーが存在しない場合のエラーを生成する。
// 認証エラーとして扱う。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:    ErrCodeUnauthorized,
		Message: "User not found",
	}
}
