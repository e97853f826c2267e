// Package enrich はコメントやフォロー一覧にユーザープロフィールを付与する。
package enrich

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/hitoshi/hiroba/internal/model"
)

// ProfileStore は公開プロフィールの取得に必要な操作。
type ProfileStore interface {
	// FindPublicProfile は公開プロフィールを取得する。見つからない場合は(nil, nil)。
	FindPublicProfile(ctx context.Context, lowercase string) (*model.PublicProfile, error)
}

// Service はプロフィールエンリッチャー。同一リクエスト内で同じユーザー名を
// 複数回参照しても、ストアへの問い合わせはユーザー名ごとに1回で済む。
type Service struct {
	store ProfileStore
}

// NewService はServiceを作成する。
func NewService(store ProfileStore) *Service {
	return &Service{store: store}
}

// lookupAll は小文字化済みユーザー名ごとに1回だけプロフィールを引く。
// 取得失敗や未登録ユーザーはnilとして記録し、処理自体は中断しない。
func (s *Service) lookupAll(ctx context.Context, usernames []string) map[string]*model.PublicProfile {
	profiles := make(map[string]*model.PublicProfile, len(usernames))
	for _, name := range usernames {
		lower := strings.ToLower(name)
		if _, seen := profiles[lower]; seen {
			continue
		}
		profile, err := s.store.FindPublicProfile(ctx, lower)
		if err != nil {
			slog.Warn("failed to fetch profile for enrichment", "username", lower, "error", err)
			profiles[lower] = nil
			continue
		}
		if profile == nil {
			slog.Warn("profile not found during enrichment", "username", lower)
		}
		profiles[lower] = profile
	}
	return profiles
}

// Comments はコメント一覧に投稿者プロフィールを付与し、作成日時の新しい順に
// 並べ替えて返す。プロフィールが見つからないコメントのDataはnilのまま。
func (s *Service) Comments(ctx context.Context, comments []model.Comment) []model.Comment {
	names := make([]string, 0, len(comments))
	for _, c := range comments {
		names = append(names, c.Commenter)
	}
	profiles := s.lookupAll(ctx, names)

	for i := range comments {
		comments[i].Data = profiles[strings.ToLower(comments[i].Commenter)]
	}
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt > comments[j].CreatedAt
	})
	return comments
}

// Followers はフォロワー一覧にフォローする側のプロフィールを付与する。
func (s *Service) Followers(ctx context.Context, edges []model.FollowEdge) []model.FollowEdge {
	return s.enrichEdges(ctx, edges, func(e *model.FollowEdge) string { return e.Follower })
}

// Following はフォロー中一覧にフォローされる側のプロフィールを付与する。
func (s *Service) Following(ctx context.Context, edges []model.FollowEdge) []model.FollowEdge {
	return s.enrichEdges(ctx, edges, func(e *model.FollowEdge) string { return e.Following })
}

func (s *Service) enrichEdges(ctx context.Context, edges []model.FollowEdge, key func(*model.FollowEdge) string) []model.FollowEdge {
	names := make([]string, 0, len(edges))
	for i := range edges {
		names = append(names, key(&edges[i]))
	}
	profiles := s.lookupAll(ctx, names)

	for i := range edges {
		edges[i].Data = profiles[strings.ToLower(key(&edges[i]))]
	}
	sort.SliceStable(edges, func(i, j int) bool {
		return edges[i].CreatedAt > edges[j].CreatedAt
	})
	return edges
}
