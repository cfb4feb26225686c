package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/taskmaster/internal/middleware"
)

// HealthChecker はヘルスチェック用のDB疎通確認インターフェース。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// AuthStore は認証ストアがハンドラー層に対して提供する操作の合成インターフェース。
type AuthStore interface {
	AuthStoreInterface
	UserStoreInterface
	middleware.ActiveUserProvider
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	MetricsRecorder   middleware.HTTPMetricsRecorder
	MetricsHandler    http.Handler
	HealthChecker     HealthChecker

	// ストア・サービス
	AuthStore      AuthStore
	AccountService AccountServiceInterface
	TodoStore      TodoStoreInterface
	SocialStore    SocialStoreInterface
	CommunityStore CommunityStoreInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Metrics → Logging
//
// 認証が必要なルートはさらに Session → RateLimit(General) を通る。
// 認証ルート（/auth/*）と公開読み取りルートはセッションミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.MetricsRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.MetricsRecorder))
	}
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}

	authHandler := NewAuthHandler(deps.AuthStore)
	userHandler := NewUserHandler(deps.AuthStore, deps.AccountService)
	todoHandler := NewTodoHandler(deps.TodoStore)
	socialHandler := NewSocialHandler(deps.SocialStore, deps.AuthStore)
	communityHandler := NewCommunityHandler(deps.CommunityStore)

	// --- 認証不要のルート ---

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.PingContext(req.Context()); err != nil {
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// ローカル認証
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// 公開読み取りルート。ログイン中なら本人の非公開つぶやきも含まれる。
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewOptionalSessionMiddleware(deps.AuthStore))

		r.Get("/api/tweets", socialHandler.ListTweets)
		r.Get("/api/communities", communityHandler.List)
		r.Get("/api/users/{id}/followers", socialHandler.Followers)
		r.Get("/api/users/{id}/following", socialHandler.Following)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.AuthStore))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		// タスク管理
		r.Route("/api/todos", func(r chi.Router) {
			r.Get("/", todoHandler.List)
			r.Post("/", todoHandler.Create)
			r.Get("/upcoming", todoHandler.Upcoming)
			r.Get("/completed", todoHandler.Completed)
			r.Get("/stats/weekly", todoHandler.WeeklyStats)

			r.Route("/{id}", func(r chi.Router) {
				r.Patch("/", todoHandler.Update)
				r.Post("/toggle", todoHandler.Toggle)
				r.Put("/deadline", todoHandler.UpdateDeadline)
			})
		})

		// つぶやき（投稿には投稿専用レート制限を追加）。
		// GET /api/tweets は公開グループ側にあるため、ここはフラットに登録する。
		if deps.RateLimiter != nil {
			r.With(deps.RateLimiter.WriteMiddleware()).Post("/api/tweets", socialHandler.CreateTweet)
		} else {
			r.Post("/api/tweets", socialHandler.CreateTweet)
		}
		r.Get("/api/tweets/liked", socialHandler.LikedTweets)
		r.Delete("/api/tweets/{id}", socialHandler.DeleteTweet)
		r.Post("/api/tweets/{id}/like", socialHandler.ToggleLike)

		// フォロー管理
		r.Post("/api/follows/{userId}", socialHandler.Follow)
		r.Delete("/api/follows/{userId}", socialHandler.Unfollow)

		// コミュニティ管理
		r.Post("/api/communities", communityHandler.Create)
		r.Get("/api/communities/membership/count", communityHandler.MembershipCount)
		r.Post("/api/communities/{id}/join", communityHandler.Join)
		r.Post("/api/communities/{id}/leave", communityHandler.Leave)

		// ユーザー管理
		r.Patch("/api/users/me", userHandler.Rename)
		r.Delete("/api/users/me", userHandler.Delete)
	})

	return r
}
