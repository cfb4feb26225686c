package storage

import "context"

// SnapshotMetrics はスナップショット保存のメトリクス記録インターフェース。
type SnapshotMetrics interface {
	RecordSnapshotSave(key string)
	RecordSnapshotSaveFailure(key string)
}

// InstrumentedSnapshotRepo はSnapshotRepositoryをラップし、
// 保存の成否をメトリクスとして記録するデコレータ。
type InstrumentedSnapshotRepo struct {
	inner   SnapshotRepository
	metrics SnapshotMetrics
}

// NewInstrumentedSnapshotRepo はInstrumentedSnapshotRepoを生成する。
func NewInstrumentedSnapshotRepo(inner SnapshotRepository, metrics SnapshotMetrics) *InstrumentedSnapshotRepo {
	return &InstrumentedSnapshotRepo{inner: inner, metrics: metrics}
}

// Load は内側のリポジトリへ委譲する。
func (r *InstrumentedSnapshotRepo) Load(ctx context.Context, key string) ([]byte, error) {
	return r.inner.Load(ctx, key)
}

// Save は内側のリポジトリへ委譲し、成否を記録する。
func (r *InstrumentedSnapshotRepo) Save(ctx context.Context, key string, payload []byte) error {
	err := r.inner.Save(ctx, key, payload)
	if err != nil {
		r.metrics.RecordSnapshotSaveFailure(key)
		return err
	}
	r.metrics.RecordSnapshotSave(key)
	return nil
}

// compile-time interface check
var _ SnapshotRepository = (*InstrumentedSnapshotRepo)(nil)
