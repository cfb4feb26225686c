package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestCollector_RecordHTTPStatus はステータスコード別のカウントを検証する。
func TestCollector_RecordHTTPStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)

	if got := testutil.ToFloat64(c.httpStatus.WithLabelValues("200")); got != 2 {
		t.Errorf("status 200 count = %f, want 2", got)
	}
	if got := testutil.ToFloat64(c.httpStatus.WithLabelValues("404")); got != 1 {
		t.Errorf("status 404 count = %f, want 1", got)
	}
}

// TestCollector_RecordSnapshotSave はキー別の保存成功・失敗カウントを検証する。
func TestCollector_RecordSnapshotSave(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSnapshotSave("todo-storage")
	c.RecordSnapshotSave("todo-storage")
	c.RecordSnapshotSaveFailure("auth-storage")

	if got := testutil.ToFloat64(c.snapshotSaves.WithLabelValues("todo-storage")); got != 2 {
		t.Errorf("save count = %f, want 2", got)
	}
	if got := testutil.ToFloat64(c.snapshotSaveFailures.WithLabelValues("auth-storage")); got != 1 {
		t.Errorf("failure count = %f, want 1", got)
	}
}

// TestCollector_RecordAccountDeletion はアカウント削除カウンタを検証する。
func TestCollector_RecordAccountDeletion(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAccountDeletion()

	if got := testutil.ToFloat64(c.accountDeletions); got != 1 {
		t.Errorf("deletion count = %f, want 1", got)
	}
}

// TestCollector_RecordHTTPLatency はレイテンシの観測がpanicしないことを検証する。
func TestCollector_RecordHTTPLatency(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPLatency(150 * time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather returned error: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "taskmaster_http_latency_seconds" {
			found = true
		}
	}
	if !found {
		t.Error("latency histogram not registered")
	}
}
