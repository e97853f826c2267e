package model

// Article は記事コンテンツを表す。
type Article struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	Subject      string `json:"subject"`
	Content      string `json:"content"`
	Featured     bool   `json:"featured"`
	ViewCount    int64  `json:"view_count"`
	CommentCount int64  `json:"comment_count,omitempty"`
	CreatedAt    string `json:"created_at"`
	LastModified string `json:"last_modified"`
}

// Blog はブログ投稿を表す。
// tags・musicはストア上ではシリアライズ済みテキストとして保持され、
// 読み出しのたびにパースされる。
type Blog struct {
	ID              int64       `json:"id"`
	Title           string      `json:"title"`
	Author          string      `json:"author"`
	Content         string      `json:"content"`
	Parent          *int64      `json:"parent,omitempty"`
	Part            *int64      `json:"part,omitempty"`
	Description     string      `json:"description"`
	Tags            []string    `json:"tags"`
	CommentsEnabled bool        `json:"comments_enabled"`
	ThumbnailURL    string      `json:"thumbnail_url"`
	Style           string      `json:"style"`
	IncludeGlobal   bool        `json:"includeglobal"`
	Music           *MusicEntry `json:"music,omitempty"`
	ViewCount       int64       `json:"view_count"`
	CreatedAt       string      `json:"created_at"`
	LastModified    string      `json:"last_modified"`
}

// Theme はユーザー投稿のページテーマを表す。
type Theme struct {
	ID               int64    `json:"id"`
	Title            string   `json:"title"`
	Author           string   `json:"author"`
	Thumbnail        string   `json:"thumbnail"`
	Tags             []string `json:"tags"`
	LayoutHTML       string   `json:"layout_html"`
	LayoutStyle      string   `json:"layout_style"`
	LayoutJavascript string   `json:"layout_javascript"`
	Content          string   `json:"content"`
	Accepted         bool     `json:"accepted"`
	ViewCount        int64    `json:"view_count"`
	CreatedAt        string   `json:"created_at"`
	LastModified     string   `json:"last_modified"`
}

// EditHistory は記事の編集履歴1件を表す。
type EditHistory struct {
	ID          int64  `json:"id"`
	ArticleID   int64  `json:"article_id"`
	Editor      string `json:"editor"`
	EditDate    string `json:"edit_date"`
	EditContent string `json:"edit_content"`
	OldContent  string `json:"old_content"`
}
