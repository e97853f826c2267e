package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// counterValue は指定メトリクスの最初のカウンタ値を取得するヘルパー。
func counterValue(t *testing.T, reg *prometheus.Registry, name string, labelValue string) float64 {
	t.Helper()
	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelValue == "" && len(m.GetLabel()) == 0 {
				return m.GetCounter().GetValue()
			}
			for _, l := range m.GetLabel() {
				if l.GetValue() == labelValue {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	if NewCollector(reg) == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordHTTPStatus_IncrementsCounterWithLabel はHTTPステータスカウンタがラベル付きで増加することを検証する。
func TestRecordHTTPStatus_IncrementsCounterWithLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)

	if got := counterValue(t, reg, "hiroba_http_status_total", "200"); got != 2 {
		t.Errorf("http_status_total{status_code=200} = %v, want 2", got)
	}
	if got := counterValue(t, reg, "hiroba_http_status_total", "404"); got != 1 {
		t.Errorf("http_status_total{status_code=404} = %v, want 1", got)
	}
}

// TestRecordContentCreated_PerType はコンテンツ種別ごとに集計されることを検証する。
func TestRecordContentCreated_PerType(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordContentCreated("article")
	c.RecordContentCreated("article")
	c.RecordContentCreated("blog")

	if got := counterValue(t, reg, "hiroba_content_created_total", "article"); got != 2 {
		t.Errorf("content_created_total{article} = %v, want 2", got)
	}
	if got := counterValue(t, reg, "hiroba_content_created_total", "blog"); got != 1 {
		t.Errorf("content_created_total{blog} = %v, want 1", got)
	}
}

// TestRecordInboxDispatch はメール種別別の配送カウンタを検証する。
func TestRecordInboxDispatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordInboxDispatch("follow")
	c.RecordInboxDispatchFailure()

	if got := counterValue(t, reg, "hiroba_inbox_dispatch_total", "follow"); got != 1 {
		t.Errorf("inbox_dispatch_total{follow} = %v, want 1", got)
	}
	if got := counterValue(t, reg, "hiroba_inbox_dispatch_fail_total", ""); got != 1 {
		t.Errorf("inbox_dispatch_fail_total = %v, want 1", got)
	}
}

// TestRecordLogin_SuccessFailureLabels はログイン試行の成否ラベルを検証する。
func TestRecordLogin_SuccessFailureLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLogin(true)
	c.RecordLogin(false)
	c.RecordLogin(false)

	if got := counterValue(t, reg, "hiroba_login_attempts_total", "success"); got != 1 {
		t.Errorf("login_attempts_total{success} = %v, want 1", got)
	}
	if got := counterValue(t, reg, "hiroba_login_attempts_total", "failure"); got != 2 {
		t.Errorf("login_attempts_total{failure} = %v, want 2", got)
	}
}

// TestHTTPMiddleware_RecordsStatusAndLatency はミドルウェアがステータスとレイテンシを記録することを検証する。
func TestHTTPMiddleware_RecordsStatusAndLatency(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	handler := NewHTTPMiddleware(c)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Millisecond)
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/articles", nil))

	if got := counterValue(t, reg, "hiroba_http_status_total", "201"); got != 1 {
		t.Errorf("http_status_total{201} = %v, want 1", got)
	}
}

// TestHandler_ServesPrometheusFormat は/metricsハンドラーがスクレイプ可能な形式を返すことを検証する。
func TestHandler_ServesPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordHTTPStatus(200)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Error("expected non-empty metrics body")
	}
}
