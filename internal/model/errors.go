package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// Codeは機械可読なエラー種別、Categoryは原因カテゴリ、
// ActionはUIに表示するユーザー向け対処方法。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, content, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeNotOwner         = "NOT_OWNER"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeUsernameTaken    = "USERNAME_TAKEN"
	ErrCodeWrongPassword    = "WRONG_PASSWORD"
	ErrCodeCommentsDisabled = "COMMENTS_DISABLED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// NewInvalidRequestError は入力バリデーションエラーを生成する。
func NewInvalidRequestError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  message,
		Category: "validation",
		Action:   "リクエスト内容を確認してください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewNotOwnerError は認証済みだが所有者でない場合のエラーを生成する。
func NewNotOwnerError(resource string) *APIError {
	return &APIError{
		Code:     ErrCodeNotOwner,
		Message:  fmt.Sprintf("この%sを編集する権限がありません。", resource),
		Category: "auth",
		Action:   "自分が作成したコンテンツのみ編集・削除できます。",
	}
}

// NewNotFoundError はエンティティ未検出エラーを生成する。
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("指定された%sが見つかりません。", resource),
		Category: "content",
		Action:   "IDまたはユーザー名を確認してください。",
	}
}

// NewUsernameTakenError はユーザー名重複エラーを生成する。
// 大文字小文字を区別しない比較での重複を表す。
func NewUsernameTakenError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeUsernameTaken,
		Message:  fmt.Sprintf("ユーザー名 %s は既に使用されています。", username),
		Category: "validation",
		Action:   "別のユーザー名を選んでください。",
	}
}

// NewWrongPasswordError はパスワード不一致エラーを生成する。
func NewWrongPasswordError() *APIError {
	return &APIError{
		Code:     ErrCodeWrongPassword,
		Message:  "パスワードが正しくありません。",
		Category: "auth",
		Action:   "パスワードを確認して再度お試しください。",
	}
}

// NewCommentsDisabledError はコメント無効化済みコンテンツへの投稿エラーを生成する。
func NewCommentsDisabledError() *APIError {
	return &APIError{
		Code:     ErrCodeCommentsDisabled,
		Message:  "このコンテンツはコメントを受け付けていません。",
		Category: "content",
		Action:   "作者がコメントを無効にしています。",
	}
}

// NewInternalError は予期しないストア障害のエラーを生成する。
// 元のエラーはログにのみ記録し、レスポンスには含めない。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternalError,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
