package authz

import (
	"testing"

	"github.com/hitoshi/hiroba/internal/model"
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name     string
		claims   *model.Claims
		author   string
		wantCode string // 空文字は許可を意味する
	}{
		{
			name:   "owner allowed",
			claims: &model.Claims{User: "alice", Role: model.RoleUser},
			author: "alice",
		},
		{
			name:   "owner allowed case insensitive",
			claims: &model.Claims{User: "Alice", Role: model.RoleUser},
			author: "ALICE",
		},
		{
			name:   "admin allowed for any author",
			claims: &model.Claims{User: "root", Role: model.RoleAdmin},
			author: "alice",
		},
		{
			name:     "non-owner rejected",
			claims:   &model.Claims{User: "bob", Role: model.RoleUser},
			author:   "alice",
			wantCode: model.ErrCodeNotOwner,
		},
		{
			name:     "nil claims rejected",
			claims:   nil,
			author:   "alice",
			wantCode: model.ErrCodeUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.claims, tt.author, "記事")
			if tt.wantCode == "" {
				if err != nil {
					t.Errorf("expected authorization, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected rejection, got nil")
			}
			if err.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, err.Code)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	if err := RequireAdmin(&model.Claims{User: "root", Role: model.RoleAdmin}, "テーマ"); err != nil {
		t.Errorf("expected admin to pass, got %v", err)
	}
	if err := RequireAdmin(&model.Claims{User: "alice", Role: model.RoleUser}, "テーマ"); err == nil {
		t.Error("expected regular user to be rejected")
	} else if err.Code != model.ErrCodeNotOwner {
		t.Errorf("expected code %s, got %s", model.ErrCodeNotOwner, err.Code)
	}
	if err := RequireAdmin(nil, "テーマ"); err == nil {
		t.Error("expected nil claims to be rejected")
	} else if err.Code != model.ErrCodeUnauthorized {
		t.Errorf("expected code %s, got %s", model.ErrCodeUnauthorized, err.Code)
	}
}
