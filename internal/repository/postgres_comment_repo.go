package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/hiroba/internal/model"
)

// PostgresCommentRepo はPostgreSQLを使用したコメントリポジトリ。
type PostgresCommentRepo struct {
	db *sql.DB
}

// NewPostgresCommentRepo はPostgresCommentRepoを生成する。
func NewPostgresCommentRepo(db *sql.DB) *PostgresCommentRepo {
	return &PostgresCommentRepo{db: db}
}

// Create はコメントを作成し、採番されたIDを返す。
func (r *PostgresCommentRepo) Create(ctx context.Context, comment *model.Comment) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO comments (origin_type, origin_id, commenter, content, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		comment.OriginType, comment.OriginID, comment.Commenter,
		comment.Content, comment.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert comment: %w", err)
	}
	return id, nil
}

// ListByOrigin はオリジンのコメントを古い順・ページ付きで返す。
func (r *PostgresCommentRepo) ListByOrigin(ctx context.Context, originType model.OriginType, originID string, offset, limit int) ([]model.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, origin_type, origin_id, commenter, content, created_at
		 FROM comments
		 WHERE origin_type = $1 AND origin_id = $2
		 ORDER BY created_at ASC
		 LIMIT $3 OFFSET $4`,
		originType, originID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		c := model.Comment{}
		if err := rows.Scan(&c.ID, &c.OriginType, &c.OriginID, &c.Commenter, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment row: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comment rows: %w", err)
	}
	return comments, nil
}

// CountByOrigin はオリジンのコメント総数を返す。
func (r *PostgresCommentRepo) CountByOrigin(ctx context.Context, originType model.OriginType, originID string) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE origin_type = $1 AND origin_id = $2`,
		originType, originID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return total, nil
}

// FindByOriginAndID は指定IDのコメントを取得する。見つからない場合は(nil, nil)。
func (r *PostgresCommentRepo) FindByOriginAndID(ctx context.Context, originType model.OriginType, originID string, commentID int64) (*model.Comment, error) {
	c := &model.Comment{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, origin_type, origin_id, commenter, content, created_at
		 FROM comments
		 WHERE origin_type = $1 AND origin_id = $2 AND id = $3`,
		originType, originID, commentID,
	).Scan(&c.ID, &c.OriginType, &c.OriginID, &c.Commenter, &c.Content, &c.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}
	return c, nil
}

// compile-time interface check
var _ CommentRepository = (*PostgresCommentRepo)(nil)
