package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics はサービスが公開するメトリクスの集合。
// テストごとに独立したレジストリを持てるようグローバル変数にはしない。
type Metrics struct {
	// registry はメトリクスの登録先。
	registry *prometheus.Registry
	// HTTPRequestsTotal はエンドポイント・ステータスコード別のリクエスト数。
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTPRequestDuration はエンドポイント別のレイテンシ。
	HTTPRequestDuration *prometheus.HistogramVec
	// TransitionsTotal は操作別に変更された通知の件数。
	TransitionsTotal *prometheus.CounterVec
}

// New は新しいレジストリにメトリクスを登録して返す。
func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed, labeled by endpoint and status code.",
			},
			[]string{"method", "endpoint", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Histogram of latencies for HTTP requests.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		TransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notification_transitions_total",
				Help:      "Total number of notifications changed, labeled by operation.",
			},
			[]string{"operation"},
		),
	}

	m.registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.TransitionsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveTransition は操作により変更された通知の件数を加算する。
// nilレシーバーでも呼び出せる。
func (m *Metrics) ObserveTransition(operation string, count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.TransitionsTotal.WithLabelValues(operation).Add(float64(count))
}

// Handler はメトリクス公開用のHTTPハンドラを返す。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
