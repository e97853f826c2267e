package enrich

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/hiroba/internal/model"
)

// mockProfileStore はProfileStoreのテスト用実装
type mockProfileStore struct {
	findFunc func(ctx context.Context, lowercase string) (*model.PublicProfile, error)
	calls    []string
}

func (m *mockProfileStore) FindPublicProfile(ctx context.Context, lowercase string) (*model.PublicProfile, error) {
	m.calls = append(m.calls, lowercase)
	if m.findFunc != nil {
		return m.findFunc(ctx, lowercase)
	}
	return nil, nil
}

func TestService_Comments_AttachesProfiles(t *testing.T) {
	store := &mockProfileStore{
		findFunc: func(_ context.Context, lowercase string) (*model.PublicProfile, error) {
			if lowercase == "alice" {
				return &model.PublicProfile{ID: 1, Username: "Alice"}, nil
			}
			return nil, nil
		},
	}
	svc := NewService(store)

	comments := []model.Comment{
		{ID: 1, Commenter: "Alice", CreatedAt: "2026-08-01T00:00:00Z"},
		{ID: 2, Commenter: "ghost", CreatedAt: "2026-08-02T00:00:00Z"},
	}
	got := svc.Comments(context.Background(), comments)

	if len(got) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(got))
	}
	// 新しい順に並べ替えられる
	if got[0].ID != 2 || got[1].ID != 1 {
		t.Errorf("expected newest-first ordering, got ids %d, %d", got[0].ID, got[1].ID)
	}
	if got[1].Data == nil || got[1].Data.Username != "Alice" {
		t.Errorf("expected alice comment to carry profile, got %+v", got[1].Data)
	}
	// 見つからないユーザーのDataはnilのまま
	if got[0].Data != nil {
		t.Errorf("expected nil data for missing user, got %+v", got[0].Data)
	}
}

func TestService_Comments_DeduplicatesLookups(t *testing.T) {
	store := &mockProfileStore{}
	svc := NewService(store)

	comments := []model.Comment{
		{ID: 1, Commenter: "Alice", CreatedAt: "2026-08-01T00:00:00Z"},
		{ID: 2, Commenter: "ALICE", CreatedAt: "2026-08-02T00:00:00Z"},
		{ID: 3, Commenter: "alice", CreatedAt: "2026-08-03T00:00:00Z"},
	}
	svc.Comments(context.Background(), comments)

	if len(store.calls) != 1 {
		t.Errorf("expected 1 store lookup for a single user, got %d: %v", len(store.calls), store.calls)
	}
	if len(store.calls) > 0 && store.calls[0] != "alice" {
		t.Errorf("expected lowercase lookup key, got %q", store.calls[0])
	}
}

func TestService_Comments_StoreErrorDoesNotAbort(t *testing.T) {
	store := &mockProfileStore{
		findFunc: func(_ context.Context, _ string) (*model.PublicProfile, error) {
			return nil, errors.New("db down")
		},
	}
	svc := NewService(store)

	got := svc.Comments(context.Background(), []model.Comment{
		{ID: 1, Commenter: "alice", CreatedAt: "2026-08-01T00:00:00Z"},
	})

	if len(got) != 1 {
		t.Fatalf("expected comment to survive store error, got %d comments", len(got))
	}
	if got[0].Data != nil {
		t.Errorf("expected nil data on store error, got %+v", got[0].Data)
	}
}

func TestService_Followers_UsesFollowerSide(t *testing.T) {
	store := &mockProfileStore{
		findFunc: func(_ context.Context, lowercase string) (*model.PublicProfile, error) {
			return &model.PublicProfile{Username: lowercase}, nil
		},
	}
	svc := NewService(store)

	edges := []model.FollowEdge{
		{Follower: "Bob", Following: "alice", CreatedAt: "2026-08-01T00:00:00Z"},
	}
	got := svc.Followers(context.Background(), edges)

	if got[0].Data == nil || got[0].Data.Username != "bob" {
		t.Errorf("expected follower profile, got %+v", got[0].Data)
	}
}

func TestService_Following_UsesFollowingSide(t *testing.T) {
	store := &mockProfileStore{
		findFunc: func(_ context.Context, lowercase string) (*model.PublicProfile, error) {
			return &model.PublicProfile{Username: lowercase}, nil
		},
	}
	svc := NewService(store)

	edges := []model.FollowEdge{
		{Follower: "bob", Following: "Carol", CreatedAt: "2026-08-01T00:00:00Z"},
	}
	got := svc.Following(context.Background(), edges)

	if got[0].Data == nil || got[0].Data.Username != "carol" {
		t.Errorf("expected following profile, got %+v", got[0].Data)
	}
}
