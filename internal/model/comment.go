package model

// OriginType はコメントやインボックス通知が参照するエンティティ種別。
// commentsテーブルはorigin_type/origin_idの組でポリモーフィックに参照する。
type OriginType string

// 定義済みオリジン種別
const (
	OriginArticle     OriginType = "article"
	OriginBlog        OriginType = "blog"
	OriginPoll        OriginType = "poll"
	OriginTheme       OriginType = "theme"
	OriginUserProfile OriginType = "user_profile"
)

// Comment はコメント1件を表す。作成後の編集は行わない。
// Data はエンリッチ後に付与されるコメント投稿者のプロフィールで、
// 該当ユーザーが見つからない場合はnullのまま返される。
type Comment struct {
	ID         int64          `json:"id"`
	OriginType OriginType     `json:"origin_type"`
	OriginID   string         `json:"origin_id"`
	Commenter  string         `json:"commenter"`
	Content    string         `json:"content"`
	CreatedAt  string         `json:"created_at"`
	Data       *PublicProfile `json:"data"`
}

// FollowEdge はフォロー関係(follower → following)を表す。
// Data はエンリッチ後に付与されるフォロワーのプロフィール。
type FollowEdge struct {
	Follower  string         `json:"follower"`
	Following string         `json:"following"`
	CreatedAt string         `json:"created_at"`
	Data      *PublicProfile `json:"data"`
}
