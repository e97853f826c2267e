// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/hiroba/internal/model"
)

// ページネーションの既定値
const (
	defaultPageSize = 25 // 一覧系エンドポイントの1ページあたり件数
	commentPageSize = 40 // コメント一覧の1ページあたり件数
	popularLimit    = 10 // 人気記事の取得件数
)

// apiErrorResponse はAPIエラーレスポンスのJSON表現。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// nonNilSlice はnilスライスを空スライスに正規化する。
// 空ページをJSONでnullではなく[]として返すための措置。
func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSON(w, statusCode, apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層・リポジトリ層のエラーをHTTPレスポンスに変換する。
// APIError以外のエラーは詳細をログに残し、一般的な500を返す。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorized, model.ErrCodeWrongPassword:
		return http.StatusUnauthorized
	case model.ErrCodeNotOwner:
		return http.StatusForbidden
	case model.ErrCodeNotFound:
		return http.StatusNotFound
	case model.ErrCodeUsernameTaken, model.ErrCodeCommentsDisabled:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSONBody はリクエストボディをJSONとしてデコードする。
// 解析に失敗した場合は400を書き込み、falseを返す。
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("リクエストボディの解析に失敗しました。"))
		return false
	}
	return true
}

// nowISO は現在時刻のISO-8601(RFC3339, UTC)表現を返す。
func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// parseIDParam はURLパラメータを数値IDとしてパースする。
func parseIDParam(r *http.Request, name string) (int64, *model.APIError) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, model.NewInvalidRequestError("IDは正の整数で指定してください。")
	}
	return id, nil
}

// parsePageParam はURLパラメータをページ番号としてパースする。1始まり。
func parsePageParam(r *http.Request, name string) (int, *model.APIError) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, model.NewInvalidRequestError("ページ番号は1以上の整数で指定してください。")
	}
	return page, nil
}

// parsePageQuery はクエリ文字列からページ番号を取得する。未指定は1。
func parsePageQuery(r *http.Request) (int, *model.APIError) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, model.NewInvalidRequestError("ページ番号は1以上の整数で指定してください。")
	}
	return page, nil
}

// totalPages は総件数とページサイズから総ページ数を算出する。
func totalPages(total int64, size int) int64 {
	if total <= 0 {
		return 0
	}
	return (total + int64(size) - 1) / int64(size)
}

// isValidHTTPURL はhttp/httpsスキームの絶対URLかどうかを判定する。
// 空文字列は「未設定」として許可する。
func isValidHTTPURL(raw string) bool {
	if raw == "" {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
