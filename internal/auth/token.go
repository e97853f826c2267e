// Package auth はベアラートークンの発行・検証とパスワードハッシュを提供する。
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/hiroba/internal/model"
)

// DefaultTokenTTL はトークンの有効期間のデフォルト値。
const DefaultTokenTTL = 24 * time.Hour

// ErrNoIdentity はヘッダ欠落・形式不正・検証失敗のすべてを表す。
// 公開ルートではこのエラーを「匿名アクセス」として扱い、拒否はしない。
var ErrNoIdentity = errors.New("no identity")

// tokenClaims はJWTペイロードの内部表現。
type tokenClaims struct {
	User string `json:"user"`
	UID  int64  `json:"id"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService はHS256署名のベアラートークンを発行・検証する。
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService はTokenServiceを生成する。
// ttlが0の場合はDefaultTokenTTL（24時間）を使用する。
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue はクレーム{user, id, role, exp}を持つ署名済みトークンを発行する。
// ユーザー名は小文字化してクレームに格納する。
func (s *TokenService) Issue(username string, id int64, role string) (string, error) {
	now := s.now()
	claims := &tokenClaims{
		User: strings.ToLower(username),
		UID:  id,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify は生のAuthorizationヘッダ値を検証し、クレームを返す。
// ヘッダ欠落・`Bearer <token>`形式でない・署名/期限の検証失敗は
// いずれもErrNoIdentityを返す。副作用は持たない。
func (s *TokenService) Verify(authHeader string) (*model.Claims, error) {
	if authHeader == "" {
		return nil, ErrNoIdentity
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return nil, ErrNoIdentity
	}

	parsed, err := jwt.ParseWithClaims(parts[1], &tokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, ErrNoIdentity
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, ErrNoIdentity
	}

	var exp int64
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Unix()
	}

	return &model.Claims{
		User: claims.User,
		ID:   claims.UID,
		Role: claims.Role,
		Exp:  exp,
	}, nil
}
