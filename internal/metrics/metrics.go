package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "twmap_requests_total",
		Help: "Total number of HTTP API requests by route",
	}, []string{"route"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "twmap_request_duration_ms",
		Help:    "HTTP API request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"route"})
	RenderDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "twmap_render_duration_ms",
		Help:    "Map snapshot render duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 2000},
	}, []string{"format"})
	SnapshotCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "twmap_snapshot_cache_hits_total",
		Help: "Total in-process snapshot cache hits",
	})
	SnapshotCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "twmap_snapshot_cache_misses_total",
		Help: "Total in-process snapshot cache misses",
	})
	RedisHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "twmap_redis_hits_total",
		Help: "Total redis cache hits",
	})
	RedisMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "twmap_redis_misses_total",
		Help: "Total redis cache misses",
	})
	GeometryLoadTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "twmap_geometry_load_total",
		Help: "Topology load attempts by result",
	}, []string{"result"})
	SessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "twmap_sessions_active",
		Help: "Number of open interactive map sessions",
	})
	SessionMessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "twmap_session_messages_total",
		Help: "Client messages received by type",
	}, []string{"type"})
	FramesSentTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "twmap_frames_sent_total",
		Help: "Total SVG frames pushed to sessions",
	})
	ColorIngestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "twmap_color_ingest_total",
		Help: "Election colour ingest runs by result",
	}, []string{"result"})
	LocateTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "twmap_locate_total",
		Help: "Client IP region lookups by result",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(RenderDurationMs)
	prometheus.MustRegister(SnapshotCacheHitsTotal)
	prometheus.MustRegister(SnapshotCacheMissesTotal)
	prometheus.MustRegister(RedisHitsTotal)
	prometheus.MustRegister(RedisMissesTotal)
	prometheus.MustRegister(GeometryLoadTotal)
	prometheus.MustRegister(SessionsActive)
	prometheus.MustRegister(SessionMessagesTotal)
	prometheus.MustRegister(FramesSentTotal)
	prometheus.MustRegister(ColorIngestTotal)
	prometheus.MustRegister(LocateTotal)
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：统一暴露注册指标到 /metrics 路径，供 Prometheus 抓取；在主入口挂载。
func Handler() http.Handler { return promhttp.Handler() }
