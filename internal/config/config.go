// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
// ローカルシングルユーザーアプリのため必須環境変数はなく、すべてデフォルト値を持つ。
type Config struct {
	// Database
	DBPath string // 空の場合はデフォルトパス（~/.local/share/taskmaster/）を使う

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string

	// Rate Limit（req/min）
	RateLimitGeneral int
	RateLimitWrite   int

	// Logging
	LogLevel slog.Level
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envファイルがあれば先に読み込む（無くてもエラーにしない）。
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:            os.Getenv("TASKMASTER_DB_PATH"),
		ServerPort:        getEnvString("SERVER_PORT", "8080"),
		CORSAllowedOrigin: getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:5173"),
		RateLimitGeneral:  getEnvInt("RATE_LIMIT_GENERAL", 120),
		RateLimitWrite:    getEnvInt("RATE_LIMIT_WRITE", 30),
		LogLevel:          parseLogLevel(getEnvString("LOG_LEVEL", "info")),
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// parseLogLevel はログレベル文字列をslog.Levelに変換する。不明な値はinfo扱い。
func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
