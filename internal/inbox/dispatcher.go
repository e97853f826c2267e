// Package inbox は通知の検証と受信箱への配送を担う。
package inbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/hiroba/internal/model"
)

// InboxStore は通知エントリの追記に必要な操作。
type InboxStore interface {
	Append(ctx context.Context, entry *model.InboxEntry) error
}

// Notification は配送要求。SenderとRecipientは小文字化済みユーザー名で渡す。
type Notification struct {
	Sender     string
	Recipient  string
	MailType   model.MailType
	Content    string
	OriginType model.OriginType
	OriginID   string
	CommentID  *int64
}

// FailureRecorder は配送失敗メトリクスの記録に必要な操作。
type FailureRecorder interface {
	RecordInboxDispatchFailure()
}

// Dispatcher は通知を検証して受信箱へ追記する。
type Dispatcher struct {
	store    InboxStore
	recorder FailureRecorder
	now      func() time.Time
}

// NewDispatcher はDispatcherを作成する。recorderはnil可。
func NewDispatcher(store InboxStore, recorder FailureRecorder) *Dispatcher {
	return &Dispatcher{store: store, recorder: recorder, now: time.Now}
}

// validate は必須フィールドの欠落を検出する。
func (d *Dispatcher) validate(n *Notification) error {
	if n.Sender == "" || n.Recipient == "" {
		return fmt.Errorf("sender and recipient are required")
	}
	switch n.MailType {
	case model.MailFollow, model.MailComment, model.MailThemeAccepted:
	default:
		return fmt.Errorf("unknown mail type: %q", n.MailType)
	}
	if n.MailType == model.MailComment && n.CommentID == nil {
		return fmt.Errorf("comment notification requires comment_id")
	}
	if n.OriginType == "" || n.OriginID == "" {
		return fmt.Errorf("origin_type and origin_id are required")
	}
	return nil
}

// Dispatch は通知を未読として受信箱へ追記する。
// 自分自身への通知は配送せずに成功扱いとする。
func (d *Dispatcher) Dispatch(ctx context.Context, n *Notification) error {
	if err := d.validate(n); err != nil {
		return fmt.Errorf("invalid notification: %w", err)
	}
	if n.Sender == n.Recipient {
		return nil
	}

	entry := &model.InboxEntry{
		Sender:     n.Sender,
		Recipient:  n.Recipient,
		MailType:   n.MailType,
		Content:    n.Content,
		OriginType: n.OriginType,
		OriginID:   n.OriginID,
		CommentID:  n.CommentID,
		ReadStatus: false,
		CreatedAt:  d.now().UTC().Format(time.RFC3339),
	}
	if err := d.store.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append inbox entry: %w", err)
	}
	return nil
}

// DispatchAsync はリクエスト処理をブロックせずに配送する。
// 配送失敗はログに残すだけで、呼び出し元の応答には影響しない。
func (d *Dispatcher) DispatchAsync(n *Notification) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := d.Dispatch(ctx, n); err != nil {
			slog.Warn("failed to dispatch notification",
				"recipient", n.Recipient, "mail_type", string(n.MailType), "error", err)
			if d.recorder != nil {
				d.recorder.RecordInboxDispatchFailure()
			}
		}
	}()
}
