package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/hiroba/internal/model"
)

// PostgresBlogRepo はPostgreSQLを使用したブログリポジトリ。
type PostgresBlogRepo struct {
	db *sql.DB
}

// NewPostgresBlogRepo はPostgresBlogRepoを生成する。
func NewPostgresBlogRepo(db *sql.DB) *PostgresBlogRepo {
	return &PostgresBlogRepo{db: db}
}

const blogColumns = `id, title, author, content, parent, part, description, tags,
	comments_enabled, thumbnail_url, style, includeglobal, music,
	view_count, created_at, last_modified`

// scanBlog は1行をブログモデルに読み込み、シリアライズ済みフィールドをパースする。
func scanBlog(row interface{ Scan(...interface{}) error }) (*model.Blog, error) {
	b := &model.Blog{}
	var tags, music string
	err := row.Scan(
		&b.ID, &b.Title, &b.Author, &b.Content, &b.Parent, &b.Part,
		&b.Description, &tags, &b.CommentsEnabled, &b.ThumbnailURL,
		&b.Style, &b.IncludeGlobal, &music, &b.ViewCount,
		&b.CreatedAt, &b.LastModified,
	)
	if err != nil {
		return nil, err
	}
	b.Tags = model.ParseStringArray(tags)
	b.Music = model.ParseMusicEntry(music)
	return b, nil
}

// Create はブログを作成し、採番されたIDを返す。
// Tags・Musicは呼び出し時点の値をシリアライズして保存する。
func (r *PostgresBlogRepo) Create(ctx context.Context, blog *model.Blog) (int64, error) {
	tags := serializeStringArray(blog.Tags)
	music := serializeMusicEntry(blog.Music)

	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO blogs
			(title, author, content, parent, part, description, tags,
			 comments_enabled, thumbnail_url, style, includeglobal, music,
			 created_at, last_modified)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id`,
		blog.Title, blog.Author, blog.Content, blog.Parent, blog.Part,
		blog.Description, tags, blog.CommentsEnabled, blog.ThumbnailURL,
		blog.Style, blog.IncludeGlobal, music,
		blog.CreatedAt, blog.LastModified,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert blog: %w", err)
	}
	return id, nil
}

// FindByID はブログを取得する。見つからない場合は(nil, nil)を返す。
func (r *PostgresBlogRepo) FindByID(ctx context.Context, id int64) (*model.Blog, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+blogColumns+` FROM blogs WHERE id = $1`, id)

	blog, err := scanBlog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find blog: %w", err)
	}
	return blog, nil
}

// ListPage はブログ一覧を新しい順で返す。
func (r *PostgresBlogRepo) ListPage(ctx context.Context, offset, limit int) ([]model.Blog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+blogColumns+` FROM blogs
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list blogs: %w", err)
	}
	defer rows.Close()

	return collectBlogs(rows)
}

// ListByAuthorPage は指定作者のブログ一覧を新しい順で返す。
func (r *PostgresBlogRepo) ListByAuthorPage(ctx context.Context, lowercaseAuthor string, offset, limit int) ([]model.Blog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+blogColumns+` FROM blogs
		 WHERE LOWER(author) = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		lowercaseAuthor, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list blogs by author: %w", err)
	}
	defer rows.Close()

	return collectBlogs(rows)
}

// CountAll は全ブログ数を返す。
func (r *PostgresBlogRepo) CountAll(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blogs`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count blogs: %w", err)
	}
	return total, nil
}

// CountByAuthor は指定作者のブログ数を返す。
func (r *PostgresBlogRepo) CountByAuthor(ctx context.Context, lowercaseAuthor string) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM blogs WHERE LOWER(author) = $1`,
		lowercaseAuthor,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count blogs by author: %w", err)
	}
	return total, nil
}

// Update はブログの内容と最終更新時刻を更新する。
func (r *PostgresBlogRepo) Update(ctx context.Context, id int64, title, content, description, now string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE blogs SET title = $1, content = $2, description = $3, last_modified = $4
		 WHERE id = $5`,
		title, content, description, now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update blog: %w", err)
	}
	return nil
}

// Delete はブログを削除する。
func (r *PostgresBlogRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete blog: %w", err)
	}
	return nil
}

// IncrementViewCount はブログの閲覧数を1加算する。
func (r *PostgresBlogRepo) IncrementViewCount(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE blogs SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment blog view count: %w", err)
	}
	return nil
}

// Exists はブログの存在を確認する。
func (r *PostgresBlogRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM blogs WHERE id = $1`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check blog existence: %w", err)
	}
	return true, nil
}

// collectBlogs は行イテレータからブログスライスを構築する。
func collectBlogs(rows *sql.Rows) ([]model.Blog, error) {
	var blogs []model.Blog
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blog row: %w", err)
		}
		blogs = append(blogs, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate blog rows: %w", err)
	}
	return blogs, nil
}

// compile-time interface check
var _ BlogRepository = (*PostgresBlogRepo)(nil)
