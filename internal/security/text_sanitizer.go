// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer はユーザー入力のプレーンテキスト項目（充電スタンド名など）から
// HTMLマークアップを除去し、保存後にブラウザで解釈されることを防ぐ。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はプレーンテキストのサニタイズ機能のインターフェースを定義する。
type TextSanitizer interface {
	// Sanitize はすべてのタグを除去したプレーンテキストを返す。
	// script, styleタグは中身ごと除去する。
	// 実体参照は元の文字に戻し、前後の空白を除去する。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフに共有できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
// 許可タグを持たないStrictPolicyを使う。
func NewTextSanitizer() TextSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// maxSanitizeRounds は多重にエスケープされた入力を展開する回数の上限。
const maxSanitizeRounds = 8

// Sanitize はrawからマークアップを除去する。
// 実体参照を戻した結果が新たなタグになる場合があるため、
// 出力が変化しなくなるまで除去と復元を繰り返す。
// 上限までに収束しない場合はエスケープしたままの文字列を返す。
func (s *textSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}

	out := raw
	for range maxSanitizeRounds {
		next := html.UnescapeString(s.policy.Sanitize(out))
		if next == out {
			return strings.TrimSpace(out)
		}
		out = next
	}
	return strings.TrimSpace(s.policy.Sanitize(out))
}
