// Package model はドメインモデルを定義する。
package model

// User はプラットフォームの登録ユーザーを表す。
// タイムスタンプ類はISO-8601文字列としてそのまま保持する。
type User struct {
	ID                int64        `json:"id"`
	Username          string       `json:"username"`
	LowercaseUsername string       `json:"lowercase_username,omitempty"`
	PasswordHash      string       `json:"-"`
	Role              string       `json:"role,omitempty"`
	AboutMe           string       `json:"about_me"`
	DisplayName       string       `json:"display_name"`
	PfpURL            string       `json:"pfp_url"`
	BannerURL         string       `json:"banner_url"`
	Signature         string       `json:"signature"`
	Location          string       `json:"location"`
	Style             string       `json:"style"`
	ViewCount         int64        `json:"view_count"`
	SocialLinks       []string     `json:"social_links"`
	FavArticles       []int64      `json:"fav_articles"`
	Music             []MusicEntry `json:"music"`
	ThemeID           *int64       `json:"theme_id,omitempty"`
	CreatedAt         string       `json:"created_at"`
	UpdatedAt         string       `json:"updated_at"`
	LastLogin         string       `json:"last_login"`
	LastActivity      string       `json:"last_activity"`
}

// PublicProfile は他ユーザーに公開されるプロフィールのスナップショット。
// コメントやフォロワー一覧へのエンリッチに使用する。
type PublicProfile struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	AboutMe     string `json:"about_me"`
	DisplayName string `json:"display_name"`
	PfpURL      string `json:"pfp_url"`
	Signature   string `json:"signature"`
	Location    string `json:"location"`
}

// MusicEntry はプロフィールやブログに添付される楽曲情報を表す。
type MusicEntry struct {
	ArtistName string  `json:"artist_name"`
	SongName   string  `json:"song_name"`
	SongURL    string  `json:"song_url"`
	Published  float64 `json:"published"`
	CoverArt   *string `json:"cover_art,omitempty"`
	Album      *string `json:"album,omitempty"`
}

// Claims は検証済みベアラートークンのペイロードを表す。
type Claims struct {
	User string `json:"user"`
	ID   int64  `json:"id"`
	Role string `json:"role"`
	Exp  int64  `json:"exp"`
}

// ロールの定義済み値
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
