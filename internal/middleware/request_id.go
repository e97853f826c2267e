package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// requestIDContextKey はリクエストコンテキストにリクエストIDを格納するためのキー。
var requestIDContextKey = contextKey("request_id")

const requestIDHeaderName = "X-Request-Id"

// NewRequestIDMiddleware はリクエストごとに一意のIDを付与するミドルウェアを返す。
// クライアントがX-Request-Idヘッダーを送ってきた場合はそれを引き継ぐ。
// IDはレスポンスヘッダーとログの両方に出力される。
func NewRequestIDMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(requestIDHeaderName)
			if reqID == "" {
				reqID = uuid.NewString()
			}

			w.Header().Set(requestIDHeaderName, reqID)
			ctx := context.WithValue(r.Context(), requestIDContextKey, reqID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext はリクエストコンテキストからリクエストIDを取得する。
// 未設定の場合は空文字列を返す。
func RequestIDFromContext(ctx context.Context) string {
	reqID, _ := ctx.Value(requestIDContextKey).(string)
	return reqID
}
