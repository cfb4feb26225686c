package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// 各ストアが使用する永続化キー。
// 元のブラウザ版と同じキー名・同じペイロード形状を維持する。
const (
	KeyAuth      = "auth-storage"
	KeyTodo      = "todo-storage"
	KeySocial    = "social-storage"
	KeyCommunity = "community-storage"
)

// SnapshotRepository はストアスナップショットの永続化インターフェース。
// 各ストアは全状態をJSONにシリアライズし、変更のたびに自身のキーへ保存する。
type SnapshotRepository interface {
	// Load は指定キーのスナップショットを取得する。
	// 見つからない場合は (nil, nil) を返す。
	Load(ctx context.Context, key string) ([]byte, error)

	// Save は指定キーのスナップショットを上書き保存する。
	Save(ctx context.Context, key string, payload []byte) error
}

// SQLiteSnapshotRepo はSQLiteを使用したスナップショットリポジトリ。
type SQLiteSnapshotRepo struct {
	db *sql.DB
}

// NewSQLiteSnapshotRepo はSQLiteSnapshotRepoを生成する。
func NewSQLiteSnapshotRepo(db *sql.DB) *SQLiteSnapshotRepo {
	return &SQLiteSnapshotRepo{db: db}
}

// Load は指定キーのスナップショットを取得する。見つからない場合はnilを返す。
func (r *SQLiteSnapshotRepo) Load(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM snapshots WHERE key = ?`,
		key,
	).Scan(&payload)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %q: %w", key, err)
	}

	return payload, nil
}

// Save は指定キーのスナップショットを上書き保存する。
// updated_atはRFC 3339（ナノ秒精度）で記録する。
func (r *SQLiteSnapshotRepo) Save(ctx context.Context, key string, payload []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO snapshots (key, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		key, payload, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot %q: %w", key, err)
	}
	return nil
}

// compile-time interface check
var _ SnapshotRepository = (*SQLiteSnapshotRepo)(nil)
