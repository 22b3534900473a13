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
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordOrderPlaced(totalCents int64)
	RecordRescueContribution(amountCents int64)
	RecordPaymentFailure(method string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
	ordersPlaced   prometheus.Counter
	orderRevenue   prometheus.Counter
	rescueTotal    prometheus.Counter
	paymentFail    *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tajdo_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tajdo_request_latency_seconds",
			Help:    "HTTPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tajdo_orders_placed_total",
			Help: "作成された注文の合計数",
		}),
		orderRevenue: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tajdo_order_revenue_cents_total",
			Help: "注文総額の累計（セント）",
		}),
		rescueTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tajdo_rescue_contribution_cents_total",
			Help: "寄付額の累計（セント）",
		}),
		paymentFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tajdo_payment_failure_total",
			Help: "支払い方法別の決済失敗数",
		}, []string{"method"}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.ordersPlaced,
		c.orderRevenue,
		c.rescueTotal,
		c.paymentFail,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordOrderPlaced は注文作成を記録する。
func (c *Collector) RecordOrderPlaced(totalCents int64) {
	c.ordersPlaced.Inc()
	c.orderRevenue.Add(float64(totalCents))
}

// RecordRescueContribution は寄付額を記録する。
func (c *Collector) RecordRescueContribution(amountCents int64) {
	c.rescueTotal.Add(float64(amountCents))
}

// RecordPaymentFailure は決済失敗を記録する。
func (c *Collector) RecordPaymentFailure(method string) {
	c.paymentFail.WithLabelValues(method).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
