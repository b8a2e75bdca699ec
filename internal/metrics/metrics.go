package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "districtdash_requests_total",
		Help: "Total number of API requests by route",
	}, []string{"route"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "districtdash_request_duration_ms",
		Help:    "API request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"route"})
	BadRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "districtdash_bad_requests_total",
		Help: "Requests rejected with 4xx by route",
	}, []string{"route"})
	EmptyChartsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "districtdash_empty_charts_total",
		Help: "Charts rendered without any data points",
	}, []string{"chart"})
	ClicksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "districtdash_clicks_total",
		Help: "Map click interactions by resolved state",
	}, []string{"state"})
	DatasetRegions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "districtdash_dataset_regions",
		Help: "Number of boundary regions loaded at startup",
	})
	DatasetRows = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "districtdash_dataset_rows",
		Help: "Number of population rows loaded at startup",
	})
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "districtdash_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(BadRequestsTotal)
	prometheus.MustRegister(EmptyChartsTotal)
	prometheus.MustRegister(ClicksTotal)
	prometheus.MustRegister(DatasetRegions)
	prometheus.MustRegister(DatasetRows)
	prometheus.MustRegister(RateLimitedTotal)
}

// 文档注释：返回 Prometheus 指标处理器，挂载在 {API_BASE}/metrics
func Handler() http.Handler { return promhttp.Handler() }
