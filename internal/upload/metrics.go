package upload

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeStored   = "stored"
	outcomeRejected = "rejected"
)

// Metrics records upload outcomes. A nil *Metrics records nothing.
type Metrics struct {
	uploads *prometheus.CounterVec
	size    prometheus.Histogram
}

// NewMetrics creates the upload metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uploads_total",
				Help: "Total number of upload requests by outcome.",
			},
			[]string{"outcome"},
		),
		size: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "upload_size_bytes",
			Help:    "Size of stored uploads in bytes.",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		}),
	}

	for _, c := range []prometheus.Collector{m.uploads, m.size} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) stored(size int64) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(outcomeStored).Inc()
	m.size.Observe(float64(size))
}

func (m *Metrics) rejected() {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(outcomeRejected).Inc()
}
