// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus           *prometheus.CounterVec
	httpLatency          prometheus.Histogram
	snapshotSaves        *prometheus.CounterVec
	snapshotSaveFailures *prometheus.CounterVec
	accountDeletions     prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskmaster_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taskmaster_http_latency_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		snapshotSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskmaster_snapshot_save_total",
			Help: "ストアスナップショット保存の合計数",
		}, []string{"key"}),
		snapshotSaveFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskmaster_snapshot_save_fail_total",
			Help: "ストアスナップショット保存失敗の合計数",
		}, []string{"key"}),
		accountDeletions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskmaster_account_deletions_total",
			Help: "アカウント削除サガ実行の合計数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.httpLatency,
		c.snapshotSaves,
		c.snapshotSaveFailures,
		c.accountDeletions,
	)

	return c
}

// RecordHTTPStatus はHTTPレスポンスのステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordHTTPLatency はHTTPリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordHTTPLatency(duration time.Duration) {
	c.httpLatency.Observe(duration.Seconds())
}

// RecordSnapshotSave はスナップショット保存の成功を記録する。
func (c *Collector) RecordSnapshotSave(key string) {
	c.snapshotSaves.WithLabelValues(key).Inc()
}

// RecordSnapshotSaveFailure はスナップショット保存の失敗を記録する。
func (c *Collector) RecordSnapshotSaveFailure(key string) {
	c.snapshotSaveFailures.WithLabelValues(key).Inc()
}

// RecordAccountDeletion はアカウント削除サガの実行を記録する。
func (c *Collector) RecordAccountDeletion() {
	c.accountDeletions.Inc()
}
