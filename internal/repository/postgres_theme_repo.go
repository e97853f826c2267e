package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/hiroba/internal/model"
)

// PostgresThemeRepo はPostgreSQLを使用したテーマリポジトリ。
type PostgresThemeRepo struct {
	db *sql.DB
}

// NewPostgresThemeRepo はPostgresThemeRepoを生成する。
func NewPostgresThemeRepo(db *sql.DB) *PostgresThemeRepo {
	return &PostgresThemeRepo{db: db}
}

const themeColumns = `id, title, author, thumbnail, tags, layout_html, layout_style,
	layout_javascript, content, accepted, view_count, created_at, last_modified`

func scanTheme(row interface{ Scan(...interface{}) error }) (*model.Theme, error) {
	t := &model.Theme{}
	var tags string
	err := row.Scan(
		&t.ID, &t.Title, &t.Author, &t.Thumbnail, &tags,
		&t.LayoutHTML, &t.LayoutStyle, &t.LayoutJavascript, &t.Content,
		&t.Accepted, &t.ViewCount, &t.CreatedAt, &t.LastModified,
	)
	if err != nil {
		return nil, err
	}
	t.Tags = model.ParseStringArray(tags)
	return t, nil
}

// Create はテーマを作成し、採番されたIDを返す。
func (r *PostgresThemeRepo) Create(ctx context.Context, theme *model.Theme) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO themes
			(title, author, thumbnail, tags, layout_html, layout_style,
			 layout_javascript, content, created_at, last_modified)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		theme.Title, theme.Author, theme.Thumbnail, serializeStringArray(theme.Tags),
		theme.LayoutHTML, theme.LayoutStyle, theme.LayoutJavascript, theme.Content,
		theme.CreatedAt, theme.LastModified,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert theme: %w", err)
	}
	return id, nil
}

// FindByID はテーマを取得する。見つからない場合は(nil, nil)を返す。
func (r *PostgresThemeRepo) FindByID(ctx context.Context, id int64) (*model.Theme, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+themeColumns+` FROM themes WHERE id = $1`, id)

	theme, err := scanTheme(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find theme: %w", err)
	}
	return theme, nil
}

// ListPage はテーマ一覧を新しい順で返す。
func (r *PostgresThemeRepo) ListPage(ctx context.Context, offset, limit int) ([]model.Theme, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+themeColumns+` FROM themes
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list themes: %w", err)
	}
	defer rows.Close()

	var themes []model.Theme
	for rows.Next() {
		t, err := scanTheme(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan theme row: %w", err)
		}
		themes = append(themes, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate theme rows: %w", err)
	}
	return themes, nil
}

// CountAll は全テーマ数を返す。
func (r *PostgresThemeRepo) CountAll(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM themes`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count themes: %w", err)
	}
	return total, nil
}

// Update はテーマの内容と最終更新時刻を更新する。
func (r *PostgresThemeRepo) Update(ctx context.Context, id int64, theme *model.Theme, now string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE themes SET
			title = $1, thumbnail = $2, tags = $3, layout_html = $4,
			layout_style = $5, layout_javascript = $6, content = $7,
			last_modified = $8
		 WHERE id = $9`,
		theme.Title, theme.Thumbnail, serializeStringArray(theme.Tags),
		theme.LayoutHTML, theme.LayoutStyle, theme.LayoutJavascript,
		theme.Content, now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update theme: %w", err)
	}
	return nil
}

// Accept はテーマを承認済みにする。
func (r *PostgresThemeRepo) Accept(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE themes SET accepted = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to accept theme: %w", err)
	}
	return nil
}

// Delete はテーマを削除する。
func (r *PostgresThemeRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM themes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete theme: %w", err)
	}
	return nil
}

// IncrementViewCount はテーマの閲覧数を1加算する。
func (r *PostgresThemeRepo) IncrementViewCount(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE themes SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment theme view count: %w", err)
	}
	return nil
}

// Exists はテーマの存在を確認する。
func (r *PostgresThemeRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM themes WHERE id = $1`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check theme existence: %w", err)
	}
	return true, nil
}

// compile-time interface check
var _ ThemeRepository = (*PostgresThemeRepo)(nil)
