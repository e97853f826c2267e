package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/hiroba/internal/model"
)

// PostgresFollowRepo はPostgreSQLを使用したフォローリポジトリ。
type PostgresFollowRepo struct {
	db *sql.DB
}

// NewPostgresFollowRepo はPostgresFollowRepoを生成する。
func NewPostgresFollowRepo(db *sql.DB) *PostgresFollowRepo {
	return &PostgresFollowRepo{db: db}
}

// Create はフォロー関係を作成する。既に存在する場合は何もしない。
func (r *PostgresFollowRepo) Create(ctx context.Context, follower, following, now string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO follows (follower, following, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (follower, following) DO NOTHING`,
		follower, following, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert follow: %w", err)
	}
	return nil
}

// Delete はフォロー関係を削除する。
func (r *PostgresFollowRepo) Delete(ctx context.Context, follower, following string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM follows WHERE follower = $1 AND following = $2`,
		follower, following,
	)
	if err != nil {
		return fmt.Errorf("failed to delete follow: %w", err)
	}
	return nil
}

// Followers は指定ユーザーをフォローしているユーザーの一覧を返す。
func (r *PostgresFollowRepo) Followers(ctx context.Context, lowercaseFollowing string) ([]model.FollowEdge, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT follower, following, created_at FROM follows WHERE following = $1`,
		lowercaseFollowing,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list followers: %w", err)
	}
	defer rows.Close()

	return collectFollowEdges(rows)
}

// Following は指定ユーザーがフォローしているユーザーの一覧を返す。
func (r *PostgresFollowRepo) Following(ctx context.Context, lowercaseFollower string) ([]model.FollowEdge, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT follower, following, created_at FROM follows WHERE follower = $1`,
		lowercaseFollower,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list following: %w", err)
	}
	defer rows.Close()

	return collectFollowEdges(rows)
}

func collectFollowEdges(rows *sql.Rows) ([]model.FollowEdge, error) {
	var edges []model.FollowEdge
	for rows.Next() {
		e := model.FollowEdge{}
		if err := rows.Scan(&e.Follower, &e.Following, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan follow row: %w", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate follow rows: %w", err)
	}
	return edges, nil
}

// compile-time interface check
var _ FollowRepository = (*PostgresFollowRepo)(nil)
