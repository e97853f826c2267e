package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/hiroba/internal/model"
)

// PostgresPollRepo はPostgreSQLを使用した投票リポジトリ。
type PostgresPollRepo struct {
	db *sql.DB
}

// NewPostgresPollRepo はPostgresPollRepoを生成する。
func NewPostgresPollRepo(db *sql.DB) *PostgresPollRepo {
	return &PostgresPollRepo{db: db}
}

const pollColumns = `poll_id, question, author, view_count, created_at, last_modified`

func scanPoll(row interface{ Scan(...interface{}) error }) (*model.Poll, error) {
	p := &model.Poll{}
	err := row.Scan(&p.ID, &p.Question, &p.Author, &p.ViewCount, &p.CreatedAt, &p.LastModified)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create は投票と選択肢を同一トランザクションで作成し、投票IDを返す。
func (r *PostgresPollRepo) Create(ctx context.Context, poll *model.Poll, options []string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO polls (question, author, created_at, last_modified)
		 VALUES ($1, $2, $3, $4)
		 RETURNING poll_id`,
		poll.Question, poll.Author, poll.CreatedAt, poll.LastModified,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert poll: %w", err)
	}

	for _, option := range options {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO poll_options (poll_id, option) VALUES ($1, $2)`,
			id, option,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert poll option: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return id, nil
}

// FindByID は投票を取得する。見つからない場合は(nil, nil)を返す。
func (r *PostgresPollRepo) FindByID(ctx context.Context, id int64) (*model.Poll, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+pollColumns+` FROM polls WHERE poll_id = $1`, id)

	poll, err := scanPoll(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find poll: %w", err)
	}
	return poll, nil
}

// Options は投票の選択肢を登録順で返す。
func (r *PostgresPollRepo) Options(ctx context.Context, pollID int64) ([]model.PollOption, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT option_id, poll_id, option FROM poll_options
		 WHERE poll_id = $1
		 ORDER BY option_id ASC`,
		pollID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list poll options: %w", err)
	}
	defer rows.Close()

	var options []model.PollOption
	for rows.Next() {
		o := model.PollOption{}
		if err := rows.Scan(&o.OptionID, &o.PollID, &o.Option); err != nil {
			return nil, fmt.Errorf("failed to scan poll option row: %w", err)
		}
		options = append(options, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate poll option rows: %w", err)
	}
	return options, nil
}

// Tallies は選択肢ごとの得票集計を返す。得票0の選択肢も含まれる。
func (r *PostgresPollRepo) Tallies(ctx context.Context, pollID int64) ([]model.PollTally, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT po.option_id, po.option, COUNT(pv.option_id) AS votes
		 FROM poll_options AS po
		 LEFT JOIN poll_votes AS pv ON po.option_id = pv.option_id
		 WHERE po.poll_id = $1
		 GROUP BY po.option_id, po.option
		 ORDER BY po.option_id ASC`,
		pollID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to tally poll votes: %w", err)
	}
	defer rows.Close()

	var tallies []model.PollTally
	for rows.Next() {
		t := model.PollTally{}
		if err := rows.Scan(&t.OptionID, &t.Option, &t.Votes); err != nil {
			return nil, fmt.Errorf("failed to scan tally row: %w", err)
		}
		tallies = append(tallies, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tally rows: %w", err)
	}
	return tallies, nil
}

// UserVote はユーザーの投票先option_idを返す。未投票の場合は(nil, nil)。
func (r *PostgresPollRepo) UserVote(ctx context.Context, pollID, userID int64) (*int64, error) {
	var optionID int64
	err := r.db.QueryRowContext(ctx,
		`SELECT option_id FROM poll_votes WHERE poll_id = $1 AND user_id = $2`,
		pollID, userID,
	).Scan(&optionID)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user vote: %w", err)
	}
	return &optionID, nil
}

// ReplaceVote は(poll, user)の既存投票を削除して新しい投票を挿入する。
// 同一トランザクションで行うため、投票行は常にちょうど1件になる。
func (r *PostgresPollRepo) ReplaceVote(ctx context.Context, pollID, userID, optionID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM poll_votes WHERE poll_id = $1 AND user_id = $2`,
		pollID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete prior vote: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO poll_votes (poll_id, user_id, option_id) VALUES ($1, $2, $3)`,
		pollID, userID, optionID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert vote: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListPage は投票一覧を新しい順で返す。
func (r *PostgresPollRepo) ListPage(ctx context.Context, offset, limit int) ([]model.Poll, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+pollColumns+` FROM polls
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}
	defer rows.Close()

	var polls []model.Poll
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan poll row: %w", err)
		}
		polls = append(polls, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate poll rows: %w", err)
	}
	return polls, nil
}

// CountAll は全投票数を返す。
func (r *PostgresPollRepo) CountAll(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM polls`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count polls: %w", err)
	}
	return total, nil
}

// UpdateQuestion は投票の質問文と最終更新時刻を更新する。
func (r *PostgresPollRepo) UpdateQuestion(ctx context.Context, id int64, question, now string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE polls SET question = $1, last_modified = $2 WHERE poll_id = $3`,
		question, now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update poll question: %w", err)
	}
	return nil
}

// Delete は投票を削除する。選択肢と投票行はCASCADE削除される。
func (r *PostgresPollRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM polls WHERE poll_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete poll: %w", err)
	}
	return nil
}

// IncrementViewCount は投票の閲覧数を1加算する。
func (r *PostgresPollRepo) IncrementViewCount(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE polls SET view_count = view_count + 1 WHERE poll_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment poll view count: %w", err)
	}
	return nil
}

// Exists は投票の存在を確認する。
func (r *PostgresPollRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM polls WHERE poll_id = $1`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check poll existence: %w", err)
	}
	return true, nil
}

// compile-time interface check
var _ PollRepository = (*PostgresPollRepo)(nil)
