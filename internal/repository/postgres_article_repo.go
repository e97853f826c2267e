package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/hiroba/internal/model"
)

// PostgresArticleRepo はPostgreSQLを使用した記事リポジトリ。
type PostgresArticleRepo struct {
	db *sql.DB
}

// NewPostgresArticleRepo はPostgresArticleRepoを生成する。
func NewPostgresArticleRepo(db *sql.DB) *PostgresArticleRepo {
	return &PostgresArticleRepo{db: db}
}

const articleColumns = `id, title, author, subject, content, featured, view_count, created_at, last_modified`

// scanArticle は1行を記事モデルに読み込む。
func scanArticle(row interface{ Scan(...interface{}) error }) (*model.Article, error) {
	a := &model.Article{}
	err := row.Scan(
		&a.ID, &a.Title, &a.Author, &a.Subject, &a.Content,
		&a.Featured, &a.ViewCount, &a.CreatedAt, &a.LastModified,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create は記事を作成し、採番されたIDを返す。
func (r *PostgresArticleRepo) Create(ctx context.Context, article *model.Article) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO articles (title, author, subject, content, created_at, last_modified)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		article.Title, article.Author, article.Subject, article.Content,
		article.CreatedAt, article.LastModified,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert article: %w", err)
	}
	return id, nil
}

// FindByID は記事を取得する。見つからない場合は(nil, nil)を返す。
func (r *PostgresArticleRepo) FindByID(ctx context.Context, id int64) (*model.Article, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE id = $1`, id)

	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find article: %w", err)
	}
	return article, nil
}

// Featured は注目記事の一覧を返す。
func (r *PostgresArticleRepo) Featured(ctx context.Context) ([]model.Article, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE featured = TRUE`)
	if err != nil {
		return nil, fmt.Errorf("failed to list featured articles: %w", err)
	}
	defer rows.Close()

	return collectArticles(rows)
}

// Popular は閲覧数の多い順に記事を返す。
func (r *PostgresArticleRepo) Popular(ctx context.Context, limit int) ([]model.Article, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles ORDER BY view_count DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list popular articles: %w", err)
	}
	defer rows.Close()

	return collectArticles(rows)
}

// Random はランダムな記事を1件返す。記事が無い場合は(nil, nil)。
func (r *PostgresArticleRepo) Random(ctx context.Context) (*model.Article, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles ORDER BY RANDOM() LIMIT 1`)

	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pick random article: %w", err)
	}
	return article, nil
}

// ListPage はcomment_count付きの記事一覧を新しい順で返す。
func (r *PostgresArticleRepo) ListPage(ctx context.Context, offset, limit int) ([]model.Article, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.title, a.author, a.subject, a.content, a.featured,
		        a.view_count, a.created_at, a.last_modified,
		        COUNT(c.id) AS comment_count
		 FROM articles AS a
		 LEFT JOIN comments AS c
		   ON c.origin_type = 'article' AND c.origin_id = a.id::text
		 GROUP BY a.id
		 ORDER BY a.created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	var articles []model.Article
	for rows.Next() {
		a := model.Article{}
		if err := rows.Scan(
			&a.ID, &a.Title, &a.Author, &a.Subject, &a.Content, &a.Featured,
			&a.ViewCount, &a.CreatedAt, &a.LastModified, &a.CommentCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate article rows: %w", err)
	}
	return articles, nil
}

// ListByAuthorPage は指定作者の記事一覧を新しい順で返す。
func (r *PostgresArticleRepo) ListByAuthorPage(ctx context.Context, lowercaseAuthor string, offset, limit int) ([]model.Article, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles
		 WHERE LOWER(author) = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		lowercaseAuthor, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles by author: %w", err)
	}
	defer rows.Close()

	return collectArticles(rows)
}

// CountAll は全記事数を返す。
func (r *PostgresArticleRepo) CountAll(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return total, nil
}

// CountByAuthor は指定作者の記事数を返す。
func (r *PostgresArticleRepo) CountByAuthor(ctx context.Context, lowercaseAuthor string) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM articles WHERE LOWER(author) = $1`,
		lowercaseAuthor,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count articles by author: %w", err)
	}
	return total, nil
}

// Update は記事の内容と最終更新時刻を更新する。
func (r *PostgresArticleRepo) Update(ctx context.Context, id int64, title, subject, content, now string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE articles SET title = $1, subject = $2, content = $3, last_modified = $4
		 WHERE id = $5`,
		title, subject, content, now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update article: %w", err)
	}
	return nil
}

// Delete は記事を削除する。
func (r *PostgresArticleRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}
	return nil
}

// IncrementViewCount は記事の閲覧数を1加算する。
func (r *PostgresArticleRepo) IncrementViewCount(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE articles SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment article view count: %w", err)
	}
	return nil
}

// Exists は記事の存在を確認する。
func (r *PostgresArticleRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM articles WHERE id = $1`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check article existence: %w", err)
	}
	return true, nil
}

// collectArticles は行イテレータから記事スライスを構築する。
func collectArticles(rows *sql.Rows) ([]model.Article, error) {
	var articles []model.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate article rows: %w", err)
	}
	return articles, nil
}

// compile-time interface check
var _ ArticleRepository = (*PostgresArticleRepo)(nil)
