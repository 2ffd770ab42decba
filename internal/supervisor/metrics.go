package supervisor

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "openwhispr",
			Subsystem: "supervisor",
			Name:      "starts_total",
			Help:      "Successful whisper-server starts by binary variant",
		},
		[]string{"variant"},
	)

	metricStartFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "openwhispr",
			Subsystem: "supervisor",
			Name:      "start_failures_total",
			Help:      "Starts that failed before the server became ready",
		},
	)

	metricCrashes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "openwhispr",
			Subsystem: "supervisor",
			Name:      "crashes_total",
			Help:      "Server processes that exited while serving",
		},
	)

	metricTranscriptions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "openwhispr",
			Subsystem: "supervisor",
			Name:      "transcriptions_total",
			Help:      "Transcription requests by outcome",
		},
		[]string{"outcome"},
	)

	metricTranscriptionSecs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "openwhispr",
			Subsystem: "supervisor",
			Name:      "transcription_duration_seconds",
			Help:      "Wall-clock duration of successful transcriptions",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)
)

func init() {
	prometheus.MustRegister(
		metricStarts,
		metricStartFailures,
		metricCrashes,
		metricTranscriptions,
		metricTranscriptionSecs,
	)
}
