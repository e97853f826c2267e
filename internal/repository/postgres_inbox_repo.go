package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/hiroba/internal/model"
)

// PostgresInboxRepo はPostgreSQLを使用した受信箱リポジトリ。
type PostgresInboxRepo struct {
	db *sql.DB
}

// NewPostgresInboxRepo はPostgresInboxRepoを生成する。
func NewPostgresInboxRepo(db *sql.DB) *PostgresInboxRepo {
	return &PostgresInboxRepo{db: db}
}

// Append は未読のエントリを1件追加する。
func (r *PostgresInboxRepo) Append(ctx context.Context, entry *model.InboxEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO inbox
			(sender, recipient, mail_type, content, origin_type, origin_id,
			 comment_id, read_status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8)`,
		entry.Sender, entry.Recipient, entry.MailType, entry.Content,
		entry.OriginType, entry.OriginID, entry.CommentID, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert inbox entry: %w", err)
	}
	return nil
}

// ListByRecipient は受信者のエントリを新しい順で返す。
func (r *PostgresInboxRepo) ListByRecipient(ctx context.Context, recipient string) ([]model.InboxEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, sender, recipient, mail_type, content, origin_type, origin_id,
		        comment_id, read_status, created_at
		 FROM inbox
		 WHERE recipient = $1
		 ORDER BY created_at DESC`,
		recipient,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list inbox entries: %w", err)
	}
	defer rows.Close()

	var entries []model.InboxEntry
	for rows.Next() {
		e := model.InboxEntry{}
		if err := rows.Scan(
			&e.ID, &e.Sender, &e.Recipient, &e.MailType, &e.Content,
			&e.OriginType, &e.OriginID, &e.CommentID, &e.ReadStatus, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan inbox row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate inbox rows: %w", err)
	}
	return entries, nil
}

// CountByRecipient は受信者のエントリ総数を返す。
func (r *PostgresInboxRepo) CountByRecipient(ctx context.Context, recipient string) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM inbox WHERE recipient = $1`, recipient).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count inbox entries: %w", err)
	}
	return total, nil
}

// CountUnread は受信者の未読エントリ数を返す。
func (r *PostgresInboxRepo) CountUnread(ctx context.Context, recipient string) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM inbox WHERE recipient = $1 AND read_status = FALSE`,
		recipient,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread entries: %w", err)
	}
	return total, nil
}

// MarkRead は受信者本人のエントリのみ既読化する。対象が無い場合はfalseを返す。
func (r *PostgresInboxRepo) MarkRead(ctx context.Context, id int64, recipient string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE inbox SET read_status = TRUE WHERE id = $1 AND recipient = $2`,
		id, recipient,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark inbox entry read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

// compile-time interface check
var _ InboxRepository = (*PostgresInboxRepo)(nil)
