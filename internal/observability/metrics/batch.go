package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/document-organizer/internal/core/domain"
)

// BatchMetrics records per-file outcomes of a batch run. The organizer is a
// one-shot process, so FinishBatch exports the registry to a node_exporter
// textfile instead of serving it.
type BatchMetrics struct {
	registry     *prometheus.Registry
	textfilePath string

	filesTotal    *prometheus.CounterVec
	fileDuration  *prometheus.HistogramVec
	filesInFlight prometheus.Gauge
	lastRun       prometheus.Gauge
	lastRunFiles  *prometheus.GaugeVec
}

func NewBatchMetrics(service, textfilePath string) *BatchMetrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}

	filesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "docorg",
			Subsystem:   "batch",
			Name:        "files_total",
			Help:        "Processed files by status and category.",
			ConstLabels: constLabels,
		},
		[]string{"status", "category"},
	)
	fileDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "docorg",
			Subsystem:   "batch",
			Name:        "file_duration_seconds",
			Help:        "Per-file processing duration in seconds by status.",
			Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			ConstLabels: constLabels,
		},
		[]string{"status"},
	)
	filesInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "docorg",
			Subsystem:   "batch",
			Name:        "files_in_flight",
			Help:        "Files currently being processed.",
			ConstLabels: constLabels,
		},
	)
	lastRun := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "docorg",
			Subsystem:   "batch",
			Name:        "last_run_timestamp_seconds",
			Help:        "Unix time of the last finished batch.",
			ConstLabels: constLabels,
		},
	)
	lastRunFiles := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   "docorg",
			Subsystem:   "batch",
			Name:        "last_run_files",
			Help:        "Files of the last finished batch by outcome.",
			ConstLabels: constLabels,
		},
		[]string{"outcome"},
	)

	registry.MustRegister(filesTotal, fileDuration, filesInFlight, lastRun, lastRunFiles)

	return &BatchMetrics{
		registry:      registry,
		textfilePath:  textfilePath,
		filesTotal:    filesTotal,
		fileDuration:  fileDuration,
		filesInFlight: filesInFlight,
		lastRun:       lastRun,
		lastRunFiles:  lastRunFiles,
	}
}

func (m *BatchMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *BatchMetrics) StartFile() {
	m.filesInFlight.Inc()
}

func (m *BatchMetrics) FinishFile(result domain.ProcessingResult, duration time.Duration) {
	m.filesInFlight.Dec()

	category := string(result.Category)
	if category == "" {
		category = "none"
	}
	m.filesTotal.WithLabelValues(string(result.Status), category).Inc()
	m.fileDuration.WithLabelValues(string(result.Status)).Observe(duration.Seconds())
}

func (m *BatchMetrics) AbortFile() {
	m.filesInFlight.Dec()
}

func (m *BatchMetrics) FinishBatch(report domain.Report) error {
	m.lastRun.Set(float64(report.ExecutedAt.Unix()))
	review := report.ReviewCount()
	m.lastRunFiles.WithLabelValues("total").Set(float64(report.TotalFiles))
	m.lastRunFiles.WithLabelValues("filed").Set(float64(len(report.Files) - review))
	m.lastRunFiles.WithLabelValues("to_be_checked").Set(float64(review))
	m.lastRunFiles.WithLabelValues("error").Set(float64(len(report.Errors)))

	if m.textfilePath == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(m.textfilePath, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
