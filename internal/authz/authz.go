// Package authz は所有者チェックと管理者権限の判定を提供する。
package authz

import (
	"strings"

	"github.com/hitoshi/hiroba/internal/model"
)

// Authorize は操作主体claimsがauthorのコンテンツを変更できるか判定する。
// 比較は小文字化したユーザー名同士で行い、管理者は常に許可される。
// 許可される場合はnilを返す。
func Authorize(claims *model.Claims, author, resource string) *model.APIError {
	if claims == nil {
		return model.NewUnauthorizedError()
	}
	if claims.Role == model.RoleAdmin {
		return nil
	}
	if strings.ToLower(claims.User) != strings.ToLower(author) {
		return model.NewNotOwnerError(resource)
	}
	return nil
}

// RequireAdmin は操作主体が管理者であることを要求する。
func RequireAdmin(claims *model.Claims, resource string) *model.APIError {
	if claims == nil {
		return model.NewUnauthorizedError()
	}
	if claims.Role != model.RoleAdmin {
		return model.NewNotOwnerError(resource)
	}
	return nil
}
