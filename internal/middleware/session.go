// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/hitoshi/taskmaster/internal/model"
)

type contextKey string

// userIDContextKey はリクエストコンテキストに格納するユーザーIDのキー。
const userIDContextKey contextKey = "user_id"

// ErrNoUserID はコンテキストにユーザーIDが存在しないことを示す。
var ErrNoUserID = errors.New("no user id in context")

// ActiveUserProvider はアクティブセッションのユーザーを参照するインターフェース。
// 認証ストアが実装する。
type ActiveUserProvider interface {
	CurrentUser() *model.User
}

// NewSessionMiddleware はアクティブセッションのユーザーIDをリクエストコンテキストに
// 注入するミドルウェアを返す。セッションが無い場合は401を返す。
// ローカルシングルユーザー構成のため、セッションはCookieではなく
// 認証ストアのアクティブアカウントそのもの。
func NewSessionMiddleware(provider ActiveUserProvider) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := provider.CurrentUser()
			if user == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			ctx := WithUserID(r.Context(), user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewOptionalSessionMiddleware はアクティブセッションがあればユーザーIDを
// コンテキストに注入し、無ければそのまま通すミドルウェアを返す。
// 未ログインでも閲覧できる読み取り系エンドポイントで使う。
func NewOptionalSessionMiddleware(provider ActiveUserProvider) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user := provider.CurrentUser(); user != nil {
				r = r.WithContext(WithUserID(r.Context(), user.ID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUserID はユーザーIDを格納した新しいコンテキストを返す。
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// UserIDFromContext はコンテキストからユーザーIDを取り出す。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", ErrNoUserID
	}
	return userID, nil
}
