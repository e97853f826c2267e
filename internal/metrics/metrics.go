// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordContentCreated(contentType string)
	RecordViewBump(contentType string)
	RecordInboxDispatch(mailType string)
	RecordInboxDispatchFailure()
	RecordLogin(success bool)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus       *prometheus.CounterVec
	requestLatency   prometheus.Histogram
	contentCreated   *prometheus.CounterVec
	viewBumps        *prometheus.CounterVec
	inboxDispatched  *prometheus.CounterVec
	inboxDispatchErr prometheus.Counter
	loginAttempts    *prometheus.CounterVec
}

var _ MetricsCollector = (*Collector)(nil)

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hiroba_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hiroba_request_latency_seconds",
			Help:    "リクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		contentCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hiroba_content_created_total",
			Help: "作成されたコンテンツ種別ごとの合計数",
		}, []string{"content_type"}),
		viewBumps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hiroba_view_bump_total",
			Help: "閲覧数加算のコンテンツ種別ごとの合計数",
		}, []string{"content_type"}),
		inboxDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hiroba_inbox_dispatch_total",
			Help: "配送された通知のメール種別ごとの合計数",
		}, []string{"mail_type"}),
		inboxDispatchErr: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hiroba_inbox_dispatch_fail_total",
			Help: "通知配送失敗の合計数",
		}),
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hiroba_login_attempts_total",
			Help: "ログイン試行の成否別合計数",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.contentCreated,
		c.viewBumps,
		c.inboxDispatched,
		c.inboxDispatchErr,
		c.loginAttempts,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordContentCreated はコンテンツ作成を記録する。
func (c *Collector) RecordContentCreated(contentType string) {
	c.contentCreated.WithLabelValues(contentType).Inc()
}

// RecordViewBump は閲覧数加算を記録する。
func (c *Collector) RecordViewBump(contentType string) {
	c.viewBumps.WithLabelValues(contentType).Inc()
}

// RecordInboxDispatch は通知配送を記録する。
func (c *Collector) RecordInboxDispatch(mailType string) {
	c.inboxDispatched.WithLabelValues(mailType).Inc()
}

// RecordInboxDispatchFailure は通知配送失敗を記録する。
func (c *Collector) RecordInboxDispatchFailure() {
	c.inboxDispatchErr.Inc()
}

// RecordLogin はログイン試行を成否別に記録する。
func (c *Collector) RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.loginAttempts.WithLabelValues(result).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
