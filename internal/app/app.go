// Package app はアプリケーションの起動と依存関係のワイヤリングを担う。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/taskmaster/internal/account"
	"github.com/hitoshi/taskmaster/internal/auth"
	"github.com/hitoshi/taskmaster/internal/community"
	"github.com/hitoshi/taskmaster/internal/config"
	"github.com/hitoshi/taskmaster/internal/handler"
	"github.com/hitoshi/taskmaster/internal/logger"
	"github.com/hitoshi/taskmaster/internal/metrics"
	"github.com/hitoshi/taskmaster/internal/middleware"
	"github.com/hitoshi/taskmaster/internal/security"
	"github.com/hitoshi/taskmaster/internal/social"
	"github.com/hitoshi/taskmaster/internal/storage"
	"github.com/hitoshi/taskmaster/internal/todo"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.SetupDefault(w, cfg.LogLevel)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// resolveDBPath は設定のDBパスを解決する。未指定の場合はデフォルト配置先を使う。
func resolveDBPath(cfg *config.Config) (string, error) {
	if cfg.DBPath != "" {
		return cfg.DBPath, nil
	}
	return storage.DefaultDBPath()
}

// runServe はAPIサーバーモードで起動する。
// SQLiteを開いてマイグレーションを適用し、スナップショットから4つのストアを復元して
// HTTPサーバーを起動する。SIGINTまたはSIGTERMを受信するとグレースフルシャットダウンを行い、
// 各ストアの最終スナップショットを書き出す。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return fmt.Errorf("failed to resolve database path: %w", err)
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	slog.Info("database opened", slog.String("path", dbPath))

	// 2. マイグレーション適用（ローカルアプリのため起動時に常に実行する）
	if err := storage.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// 3. メトリクスとスナップショットリポジトリの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	snapshotRepo := storage.NewInstrumentedSnapshotRepo(
		storage.NewSQLiteSnapshotRepo(db), collector,
	)

	// 4. ストアの初期化とスナップショットからの復元
	sanitizer := security.NewContentSanitizer()

	authStore := auth.NewStore(snapshotRepo)
	todoStore := todo.NewStore(snapshotRepo)
	socialStore := social.NewStore(snapshotRepo, sanitizer)
	communityStore := community.NewStore(snapshotRepo)

	loadCtx, loadCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer loadCancel()

	if err := authStore.Load(loadCtx); err != nil {
		return fmt.Errorf("failed to load auth snapshot: %w", err)
	}
	if err := todoStore.Load(loadCtx); err != nil {
		return fmt.Errorf("failed to load todo snapshot: %w", err)
	}
	if err := socialStore.Load(loadCtx); err != nil {
		return fmt.Errorf("failed to load social snapshot: %w", err)
	}
	if err := communityStore.Load(loadCtx); err != nil {
		return fmt.Errorf("failed to load community snapshot: %w", err)
	}

	slog.Info("stores restored from snapshots")

	// 5. サービス層の初期化
	accountService := account.NewService(
		authStore, todoStore, socialStore, communityStore, collector,
	)

	// 6. ルーターの構築
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	// configのレート制限値はreq/min単位なのでreq/secに変換する
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.WriteRate = rate.Limit(float64(cfg.RateLimitWrite) / 60.0)
	rateLimiterCfg.WriteBurst = cfg.RateLimitWrite

	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		MetricsRecorder:   collector,
		MetricsHandler:    metrics.Handler(registry),
		HealthChecker:     db,

		AuthStore:      authStore,
		AccountService: accountService,
		TodoStore:      todoStore,
		SocialStore:    socialStore,
		CommunityStore: communityStore,
	}

	router := handler.NewRouter(deps)

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// 最終スナップショットを書き出してから終了する
	flushStores(ctx, authStore, todoStore, socialStore, communityStore)

	slog.Info("API server stopped gracefully")
	return nil
}

// flusher はシャットダウン時にスナップショットを書き出すストアのインターフェース。
type flusher interface {
	Flush(ctx context.Context) error
}

func flushStores(ctx context.Context, stores ...flusher) {
	for _, s := range stores {
		if err := s.Flush(ctx); err != nil {
			slog.Error("store flush failed", slog.String("error", err.Error()))
		}
	}
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return fmt.Errorf("failed to resolve database path: %w", err)
	}

	slog.Info("running database migrations",
		slog.String("path", dbPath),
	)

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := storage.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
