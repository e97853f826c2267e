// Package repository はデータアクセス層のインターフェースとPostgreSQL実装を提供する。
package repository

import (
	"context"

	"github.com/hitoshi/hiroba/internal/model"
)

// ProfileUpdate はプロフィール部分更新のフィールド集合。
// nilのフィールドは更新しない。配列系フィールドは呼び出し側で
// シリアライズ済みテキストにして渡す。
type ProfileUpdate struct {
	AboutMe     *string
	DisplayName *string
	PfpURL      *string
	BannerURL   *string
	Signature   *string
	Location    *string
	Style       *string
	SocialLinks *string
	FavArticles *string
	Music       *string
}

// IsEmpty は更新対象フィールドが1つもないことを返す。
func (p *ProfileUpdate) IsEmpty() bool {
	return p.AboutMe == nil && p.DisplayName == nil && p.PfpURL == nil &&
		p.BannerURL == nil && p.Signature == nil && p.Location == nil &&
		p.Style == nil && p.SocialLinks == nil && p.FavArticles == nil &&
		p.Music == nil
}

// UserRepository はユーザーの永続化を担う。
type UserRepository interface {
	// Create はユーザーを作成し、採番されたIDを返す。
	Create(ctx context.Context, user *model.User) (int64, error)
	// FindByLowercaseUsername は小文字化済みユーザー名でユーザーを取得する。
	// 見つからない場合は(nil, nil)を返す。
	FindByLowercaseUsername(ctx context.Context, lowercase string) (*model.User, error)
	// FindPublicProfile は公開プロフィールのスナップショットを取得する。
	// 見つからない場合は(nil, nil)を返す。
	FindPublicProfile(ctx context.Context, lowercase string) (*model.PublicProfile, error)
	// UpdateLastLogin は最終ログイン時刻と更新時刻を更新する。
	UpdateLastLogin(ctx context.Context, lowercase, now string) error
	// TouchLastActivity は最終アクティビティ時刻を更新する。
	TouchLastActivity(ctx context.Context, lowercase, now string) error
	// UpdateProfile はnil以外のフィールドのみを部分更新する。
	UpdateProfile(ctx context.Context, lowercase string, update *ProfileUpdate) error
	// IncrementViewCount はプロフィールの閲覧数を1加算する。
	IncrementViewCount(ctx context.Context, lowercase string) error
	// Exists はユーザーの存在を確認する。
	Exists(ctx context.Context, lowercase string) (bool, error)
	// CountAll は全ユーザー数を返す。
	CountAll(ctx context.Context) (int64, error)
}

// ArticleRepository は記事の永続化を担う。
type ArticleRepository interface {
	Create(ctx context.Context, article *model.Article) (int64, error)
	// FindByID は記事を取得する。見つからない場合は(nil, nil)を返す。
	FindByID(ctx context.Context, id int64) (*model.Article, error)
	Featured(ctx context.Context) ([]model.Article, error)
	Popular(ctx context.Context, limit int) ([]model.Article, error)
	Random(ctx context.Context) (*model.Article, error)
	// ListPage はcomment_count付きの記事一覧を新しい順で返す。
	ListPage(ctx context.Context, offset, limit int) ([]model.Article, error)
	ListByAuthorPage(ctx context.Context, lowercaseAuthor string, offset, limit int) ([]model.Article, error)
	CountAll(ctx context.Context) (int64, error)
	CountByAuthor(ctx context.Context, lowercaseAuthor string) (int64, error)
	Update(ctx context.Context, id int64, title, subject, content, now string) error
	Delete(ctx context.Context, id int64) error
	IncrementViewCount(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
}

// HistoryRepository は記事の編集履歴を担う。
type HistoryRepository interface {
	Append(ctx context.Context, h *model.EditHistory) error
	ListByArticle(ctx context.Context, articleID int64) ([]model.EditHistory, error)
	// Find は指定バージョンの履歴を取得する。見つからない場合は(nil, nil)を返す。
	Find(ctx context.Context, articleID, versionID int64) (*model.EditHistory, error)
}

// BlogRepository はブログの永続化を担う。
type BlogRepository interface {
	Create(ctx context.Context, blog *model.Blog) (int64, error)
	FindByID(ctx context.Context, id int64) (*model.Blog, error)
	ListPage(ctx context.Context, offset, limit int) ([]model.Blog, error)
	ListByAuthorPage(ctx context.Context, lowercaseAuthor string, offset, limit int) ([]model.Blog, error)
	CountAll(ctx context.Context) (int64, error)
	CountByAuthor(ctx context.Context, lowercaseAuthor string) (int64, error)
	Update(ctx context.Context, id int64, title, content, description, now string) error
	Delete(ctx context.Context, id int64) error
	IncrementViewCount(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
}

// PollRepository は投票の永続化を担う。
type PollRepository interface {
	// Create は投票と選択肢を同一トランザクションで作成し、投票IDを返す。
	Create(ctx context.Context, poll *model.Poll, options []string) (int64, error)
	FindByID(ctx context.Context, id int64) (*model.Poll, error)
	Options(ctx context.Context, pollID int64) ([]model.PollOption, error)
	// Tallies は選択肢ごとの得票集計を返す。
	Tallies(ctx context.Context, pollID int64) ([]model.PollTally, error)
	// UserVote はユーザーの投票先option_idを返す。未投票の場合は(nil, nil)。
	UserVote(ctx context.Context, pollID, userID int64) (*int64, error)
	// ReplaceVote は(poll, user)の既存投票を削除して新しい投票を挿入する。
	// 削除と挿入は同一トランザクションで行い、投票行がちょうど1件になることを保証する。
	ReplaceVote(ctx context.Context, pollID, userID, optionID int64) error
	ListPage(ctx context.Context, offset, limit int) ([]model.Poll, error)
	CountAll(ctx context.Context) (int64, error)
	UpdateQuestion(ctx context.Context, id int64, question, now string) error
	Delete(ctx context.Context, id int64) error
	IncrementViewCount(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
}

// ThemeRepository はテーマの永続化を担う。
type ThemeRepository interface {
	Create(ctx context.Context, theme *model.Theme) (int64, error)
	FindByID(ctx context.Context, id int64) (*model.Theme, error)
	ListPage(ctx context.Context, offset, limit int) ([]model.Theme, error)
	CountAll(ctx context.Context) (int64, error)
	Update(ctx context.Context, id int64, theme *model.Theme, now string) error
	// Accept はテーマを承認済みにする。
	Accept(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	IncrementViewCount(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
}

// CommentRepository はコメントの永続化を担う。
type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) (int64, error)
	// ListByOrigin はオリジンのコメントを古い順・ページ付きで返す。
	ListByOrigin(ctx context.Context, originType model.OriginType, originID string, offset, limit int) ([]model.Comment, error)
	CountByOrigin(ctx context.Context, originType model.OriginType, originID string) (int64, error)
	// FindByOriginAndID は指定IDのコメントを取得する。見つからない場合は(nil, nil)。
	FindByOriginAndID(ctx context.Context, originType model.OriginType, originID string, commentID int64) (*model.Comment, error)
}

// FollowRepository はフォロー関係の永続化を担う。
type FollowRepository interface {
	// Create はフォロー関係を作成する。既に存在する場合は何もしない。
	Create(ctx context.Context, follower, following, now string) error
	Delete(ctx context.Context, follower, following string) error
	Followers(ctx context.Context, lowercaseFollowing string) ([]model.FollowEdge, error)
	Following(ctx context.Context, lowercaseFollower string) ([]model.FollowEdge, error)
}

// InboxRepository は受信箱の永続化を担う。
type InboxRepository interface {
	Append(ctx context.Context, entry *model.InboxEntry) error
	ListByRecipient(ctx context.Context, recipient string) ([]model.InboxEntry, error)
	CountByRecipient(ctx context.Context, recipient string) (int64, error)
	CountUnread(ctx context.Context, recipient string) (int64, error)
	// MarkRead は受信者本人のエントリのみ既読化する。対象が無い場合はfalseを返す。
	MarkRead(ctx context.Context, id int64, recipient string) (bool, error)
}
