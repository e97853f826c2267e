// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService はユーザー投稿コンテンツのHTMLをサニタイズし、
// XSS攻撃などのセキュリティリスクから閲覧者を保護する。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// 安全なタグと属性のみを通過させる。
package security

import (
	"net/url"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はHTMLコンテンツのサニタイズ機能のインターフェースを定義する。
// 記事・ブログ本文の保存前およびコメント投稿時に使用される。
type ContentSanitizerService interface {
	// SanitizeBody は記事・ブログ本文をサニタイズして安全なHTMLを返す。
	// 見出し・段落・リスト・リンク・画像などの整形タグのみを通過させ、
	// script, iframe, styleタグおよびon*イベント属性を除去する。
	// imgタグのsrc属性はhttpsスキームのみ許可される。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeBody(rawHTML string) string

	// SanitizeComment はコメント本文をサニタイズしてプレーンテキストを返す。
	// コメントではHTMLタグを一切許可しない。
	SanitizeComment(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	bodyPolicy    *bluemonday.Policy
	commentPolicy *bluemonday.Policy
}

var _ ContentSanitizerService = (*contentSanitizer)(nil)

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// 初期化時にbluemondayのカスタムポリシーを構築する。
// 本文ポリシーの内容:
//   - 許可タグ: h1-h4, p, br, a, ul, ol, li, blockquote, pre, code, strong, em, img
//   - 禁止タグ: script, iframe, style および全てのon*イベント属性
//   - imgのsrc属性: httpsスキームのみ許可
//   - aタグ: target="_blank" と rel="noopener noreferrer" を自動付与
//
// コメントポリシーは全タグを除去するStrictPolicy。
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	// 本文で許可する整形タグ
	// script, iframe, style等は許可リストに含めないことで自動的に除去される
	// on*イベント属性はbluemondayのデフォルトで許可されないため除去される
	p.AllowElements(
		"h1", "h2", "h3", "h4",
		"p", "br", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em",
	)

	// aタグの設定:
	// - href属性を許可
	// - 相対URLは不許可
	// - target="_blank"を全リンクに強制付与
	// - rel="noreferrer noopener"を強制付与
	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	// imgタグの設定:
	// - src属性はhttpsスキームのみ許可（http, javascript, data等は拒否）
	// - alt属性を許可（アクセシビリティ確保）
	p.AllowAttrs("src").OnElements("img")
	p.AllowAttrs("alt").OnElements("img")
	p.AllowURLSchemeWithCustomPolicy("https", func(u *url.URL) bool {
		return true
	})

	return &contentSanitizer{
		bodyPolicy:    p,
		commentPolicy: bluemonday.StrictPolicy(),
	}
}

// SanitizeBody は記事・ブログ本文をサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) SanitizeBody(rawHTML string) string {
	return s.bodyPolicy.Sanitize(rawHTML)
}

// SanitizeComment はコメント本文から全HTMLタグを除去する。
func (s *contentSanitizer) SanitizeComment(raw string) string {
	return s.commentPolicy.Sanitize(raw)
}
