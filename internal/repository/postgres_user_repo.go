package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/hiroba/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// Create はユーザーを作成し、採番されたIDを返す。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users
			(username, lowercase_username, password_hash, role, password_changed_at,
			 created_at, updated_at, last_login, last_activity)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		user.Username, user.LowercaseUsername, user.PasswordHash, user.Role,
		user.CreatedAt, user.CreatedAt, user.UpdatedAt, user.LastLogin, user.LastActivity,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}
	return id, nil
}

// FindByLowercaseUsername は小文字化済みユーザー名でユーザーを取得する。
// 見つからない場合は(nil, nil)を返す。
func (r *PostgresUserRepo) FindByLowercaseUsername(ctx context.Context, lowercase string) (*model.User, error) {
	user := &model.User{}
	var socialLinks, favArticles, music string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, lowercase_username, password_hash, role,
		        about_me, display_name, pfp_url, banner_url, signature, location, style,
		        view_count, social_links, fav_articles, music, theme_id,
		        created_at, updated_at, last_login, last_activity
		 FROM users WHERE lowercase_username = $1`,
		lowercase,
	).Scan(
		&user.ID, &user.Username, &user.LowercaseUsername, &user.PasswordHash, &user.Role,
		&user.AboutMe, &user.DisplayName, &user.PfpURL, &user.BannerURL, &user.Signature,
		&user.Location, &user.Style, &user.ViewCount, &socialLinks, &favArticles, &music,
		&user.ThemeID, &user.CreatedAt, &user.UpdatedAt, &user.LastLogin, &user.LastActivity,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	// シリアライズ済みテキストは読み出しのたびにパースする。
	// パース失敗は空コレクションにフォールバックする。
	user.SocialLinks = model.ParseStringArray(socialLinks)
	user.FavArticles = model.ParseInt64Array(favArticles)
	user.Music = model.ParseMusicList(music)

	return user, nil
}

// FindPublicProfile は公開プロフィールのスナップショットを取得する。
// 見つからない場合は(nil, nil)を返す。
func (r *PostgresUserRepo) FindPublicProfile(ctx context.Context, lowercase string) (*model.PublicProfile, error) {
	profile := &model.PublicProfile{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, about_me, display_name, pfp_url, signature, location
		 FROM users WHERE lowercase_username = $1`,
		lowercase,
	).Scan(
		&profile.ID, &profile.Username, &profile.AboutMe, &profile.DisplayName,
		&profile.PfpURL, &profile.Signature, &profile.Location,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find public profile: %w", err)
	}

	return profile, nil
}

// UpdateLastLogin は最終ログイン時刻と更新時刻を更新する。
func (r *PostgresUserRepo) UpdateLastLogin(ctx context.Context, lowercase, now string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_login = $1, updated_at = $1 WHERE lowercase_username = $2`,
		now, lowercase,
	)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// TouchLastActivity は最終アクティビティ時刻を更新する。
func (r *PostgresUserRepo) TouchLastActivity(ctx context.Context, lowercase, now string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_activity = $1 WHERE lowercase_username = $2`,
		now, lowercase,
	)
	if err != nil {
		return fmt.Errorf("failed to touch last activity: %w", err)
	}
	return nil
}

// UpdateProfile はnil以外のフィールドのみを部分更新する。
// SET句は$1からの連番で動的に構築する。
func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, lowercase string, update *ProfileUpdate) error {
	var sets []string
	var args []interface{}

	add := func(column string, val *string) {
		if val != nil {
			args = append(args, *val)
			sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
		}
	}

	add("about_me", update.AboutMe)
	add("display_name", update.DisplayName)
	add("pfp_url", update.PfpURL)
	add("banner_url", update.BannerURL)
	add("signature", update.Signature)
	add("location", update.Location)
	add("style", update.Style)
	add("social_links", update.SocialLinks)
	add("fav_articles", update.FavArticles)
	add("music", update.Music)

	if len(sets) == 0 {
		return nil
	}

	args = append(args, lowercase)
	query := fmt.Sprintf(
		"UPDATE users SET %s WHERE lowercase_username = $%d",
		strings.Join(sets, ", "), len(args),
	)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// IncrementViewCount はプロフィールの閲覧数を1加算する。
func (r *PostgresUserRepo) IncrementViewCount(ctx context.Context, lowercase string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET view_count = view_count + 1 WHERE lowercase_username = $1`,
		lowercase,
	)
	if err != nil {
		return fmt.Errorf("failed to increment user view count: %w", err)
	}
	return nil
}

// Exists はユーザーの存在を確認する。
func (r *PostgresUserRepo) Exists(ctx context.Context, lowercase string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM users WHERE lowercase_username = $1`,
		lowercase,
	).Scan(&one)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return true, nil
}

// CountAll は全ユーザー数を返す。
func (r *PostgresUserRepo) CountAll(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return total, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
