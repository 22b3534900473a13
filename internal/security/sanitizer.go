// Package security はユーザー入力テキストのサニタイズを提供する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer はユーザー由来の自由記述テキストからHTMLを除去する。
// レビュー本文や苦情メッセージなど、他ユーザー・管理者に表示される
// テキストはすべてここを通す。
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer はタグを一切許可しないStrictPolicyのSanitizerを生成する。
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Clean はHTMLタグを除去し、前後の空白をトリムしたテキストを返す。
func (s *Sanitizer) Clean(text string) string {
	return strings.TrimSpace(s.policy.Sanitize(text))
}
