package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MetadataRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tubefetch",
		Name:      "metadata_requests_total",
		Help:      "Metadata requests by outcome",
	}, []string{"result"})

	Downloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tubefetch",
		Name:      "downloads_total",
		Help:      "Download requests by directive kind and outcome",
	}, []string{"kind", "result"})

	DownloadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tubefetch",
		Name:      "download_duration_seconds",
		Help:      "Time spent in the resolution engine per download",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
	}, []string{"kind"})

	ActiveDownloads = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tubefetch",
		Name:      "active_downloads",
		Help:      "Downloads currently running in the engine",
	})

	WorkspacesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tubefetch",
		Name:      "workspaces_active",
		Help:      "Download workspaces not yet released",
	})

	WorkspacesSwept = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tubefetch",
		Name:      "workspaces_swept_total",
		Help:      "Stale workspaces removed by the janitor",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tubefetch",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tubefetch",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
