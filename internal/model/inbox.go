package model

// MailType はインボックス通知の種別。
type MailType string

// 定義済みメール種別
const (
	MailFollow        MailType = "follow"
	MailComment       MailType = "comment"
	MailThemeAccepted MailType = "theme_accepted"
)

// InboxEntry は受信箱のエントリ1件を表す。
type InboxEntry struct {
	ID         int64      `json:"id"`
	Sender     string     `json:"sender"`
	Recipient  string     `json:"recipient"`
	MailType   MailType   `json:"mail_type"`
	Content    string     `json:"content"`
	OriginType OriginType `json:"origin_type"`
	OriginID   string     `json:"origin_id"`
	CommentID  *int64     `json:"comment_id,omitempty"`
	ReadStatus bool       `json:"read_status"`
	CreatedAt  string     `json:"created_at"`
}
