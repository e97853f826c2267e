// Package activity は認証済みユーザーの最終アクティビティ時刻を記録する。
package activity

import (
	"context"
	"log/slog"
	"time"
)

// ActivityStore は最終アクティビティの更新に必要な操作。
type ActivityStore interface {
	TouchLastActivity(ctx context.Context, lowercase, now string) error
}

// Recorder はベストエフォートでアクティビティ時刻を記録する。
// 更新失敗はログに残すだけで、呼び出し元のリクエスト処理は失敗させない。
type Recorder struct {
	store ActivityStore
	now   func() time.Time
}

// NewRecorder はRecorderを作成する。
func NewRecorder(store ActivityStore) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// Touch は指定ユーザーの最終アクティビティ時刻を現在時刻で更新する。
func (r *Recorder) Touch(ctx context.Context, lowercaseUsername string) {
	if lowercaseUsername == "" {
		return
	}
	now := r.now().UTC().Format(time.RFC3339)
	if err := r.store.TouchLastActivity(ctx, lowercaseUsername, now); err != nil {
		slog.Warn("failed to record user activity", "username", lowercaseUsername, "error", err)
	}
}
