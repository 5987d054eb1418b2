package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "ecotrack_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	importTotal   *prometheus.CounterVec
	importRows    *prometheus.CounterVec
	importLatency *prometheus.HistogramVec

	backupTotal *prometheus.CounterVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	oracleTotal   *prometheus.CounterVec
	oracleLatency *prometheus.HistogramVec

	storeReadFailures *prometheus.CounterVec
)

// Init registers the tracker metrics. Observe helpers are no-ops until Init runs.
func Init() {
	registerOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_latency_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		)

		importTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "import_total",
				Help: "Total spreadsheet imports by result",
			},
			[]string{"result"},
		)
		importRows = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "import_rows_total",
				Help: "Imported spreadsheet rows by outcome",
			},
			[]string{"outcome"},
		)
		importLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "import_latency_seconds",
				Help:    "Spreadsheet import latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		backupTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "backup_total",
				Help: "Total backup operations by op and result",
			},
			[]string{"op", "result"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total report exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		oracleTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "oracle_requests_total",
				Help: "Total forecast oracle calls by operation and result",
			},
			[]string{"op", "result"},
		)
		oracleLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "oracle_latency_seconds",
				Help:    "Forecast oracle latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op", "result"},
		)

		storeReadFailures = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "store_read_failures_total",
				Help: "Collection reads treated as empty because of an error",
			},
			[]string{"collection"},
		)

		prometheus.MustRegister(
			httpRequests,
			httpLatency,
			importTotal,
			importRows,
			importLatency,
			backupTotal,
			exportTotal,
			exportLatency,
			oracleTotal,
			oracleLatency,
			storeReadFailures,
		)
	})
}

// ObserveHTTP records one request.
func ObserveHTTP(route, code string, duration time.Duration) {
	if route == "" {
		route = "unknown"
	}
	if httpRequests != nil {
		httpRequests.WithLabelValues(route, code).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(route).Observe(duration.Seconds())
	}
}

// ObserveImport records an import with its kept and discarded row counts.
func ObserveImport(result string, imported, discarded int, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if importTotal != nil {
		importTotal.WithLabelValues(result).Inc()
	}
	if importRows != nil {
		if imported > 0 {
			importRows.WithLabelValues("imported").Add(float64(imported))
		}
		if discarded > 0 {
			importRows.WithLabelValues("discarded").Add(float64(discarded))
		}
	}
	if importLatency != nil {
		importLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncBackup counts a backup export or restore.
func IncBackup(op, result string) {
	if op == "" {
		op = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if backupTotal != nil {
		backupTotal.WithLabelValues(op, result).Inc()
	}
}

// ObserveExport records report export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// ObserveOracle records a forecast oracle call.
func ObserveOracle(op, result string, duration time.Duration) {
	if op == "" {
		op = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if oracleTotal != nil {
		oracleTotal.WithLabelValues(op, result).Inc()
	}
	if oracleLatency != nil {
		oracleLatency.WithLabelValues(op, result).Observe(duration.Seconds())
	}
}

// IncStoreReadFailure counts an unreadable collection.
func IncStoreReadFailure(collection string) {
	if collection == "" {
		collection = "unknown"
	}
	if storeReadFailures != nil {
		storeReadFailures.WithLabelValues(collection).Inc()
	}
}

// Result returns the result label for err.
func Result(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
