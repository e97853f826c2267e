package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/hiroba/internal/model"
)

// PostgresHistoryRepo はPostgreSQLを使用した編集履歴リポジトリ。
type PostgresHistoryRepo struct {
	db *sql.DB
}

// NewPostgresHistoryRepo はPostgresHistoryRepoを生成する。
func NewPostgresHistoryRepo(db *sql.DB) *PostgresHistoryRepo {
	return &PostgresHistoryRepo{db: db}
}

// Append は編集履歴を1件追加する。
func (r *PostgresHistoryRepo) Append(ctx context.Context, h *model.EditHistory) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO edit_history (article_id, editor, edit_date, edit_content, old_content)
		 VALUES ($1, $2, $3, $4, $5)`,
		h.ArticleID, h.Editor, h.EditDate, h.EditContent, h.OldContent,
	)
	if err != nil {
		return fmt.Errorf("failed to insert edit history: %w", err)
	}
	return nil
}

// ListByArticle は記事の編集履歴を古い順で返す。
func (r *PostgresHistoryRepo) ListByArticle(ctx context.Context, articleID int64) ([]model.EditHistory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, article_id, editor, edit_date, edit_content, old_content
		 FROM edit_history
		 WHERE article_id = $1
		 ORDER BY id ASC`,
		articleID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list edit history: %w", err)
	}
	defer rows.Close()

	var history []model.EditHistory
	for rows.Next() {
		h := model.EditHistory{}
		if err := rows.Scan(&h.ID, &h.ArticleID, &h.Editor, &h.EditDate, &h.EditContent, &h.OldContent); err != nil {
			return nil, fmt.Errorf("failed to scan edit history row: %w", err)
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate edit history rows: %w", err)
	}
	return history, nil
}

// Find は指定バージョンの履歴を取得する。見つからない場合は(nil, nil)を返す。
func (r *PostgresHistoryRepo) Find(ctx context.Context, articleID, versionID int64) (*model.EditHistory, error) {
	h := &model.EditHistory{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, article_id, editor, edit_date, edit_content, old_content
		 FROM edit_history
		 WHERE article_id = $1 AND id = $2`,
		articleID, versionID,
	).Scan(&h.ID, &h.ArticleID, &h.Editor, &h.EditDate, &h.EditContent, &h.OldContent)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find edit history: %w", err)
	}
	return h, nil
}

// compile-time interface check
var _ HistoryRepository = (*PostgresHistoryRepo)(nil)
