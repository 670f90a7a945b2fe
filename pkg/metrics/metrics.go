// Package metrics tracks validation and compile statistics.
//
// Counters are kept twice: as lock-free atomics for in-process snapshots,
// and as Prometheus collectors on a private registry that callers may
// expose through Register or Gatherer.
package metrics

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "jsonschema"

// Label values.
const (
	ResultValid   = "valid"
	ResultInvalid = "invalid"
	CacheHit      = "hit"
	CacheMiss     = "miss"
)

// Metrics records validation performance. All methods are safe for
// concurrent use.
type Metrics struct {
	validationsTotal atomic.Uint64
	validationsValid atomic.Uint64
	errorsTotal      atomic.Uint64

	// Timing (stored as nanoseconds)
	validationTimeTotal atomic.Uint64
	validationTimeMin   atomic.Uint64
	validationTimeMax   atomic.Uint64

	cacheHits     atomic.Uint64
	cacheMisses   atomic.Uint64
	compileErrors atomic.Uint64

	registry    *prometheus.Registry
	validations *prometheus.CounterVec
	errors      prometheus.Counter
	compiles    *prometheus.CounterVec
	duration    prometheus.Histogram
}

// New creates a Metrics instance with its own Prometheus registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		validations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validations_total",
				Help:      "Total number of instance validations by result",
			},
			[]string{"result"},
		),
		errors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_errors_total",
				Help:      "Total number of top-level validation errors reported",
			},
		),
		compiles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "compile_total",
				Help:      "Total number of schema compiles by cache outcome",
			},
			[]string{"cache"},
		),
		duration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "validation_duration_seconds",
				Help:      "Time taken to validate one instance",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
		),
	}
	// Initialize min to max uint64 so the first value becomes the minimum
	m.validationTimeMin.Store(^uint64(0))
	return m
}

// Gatherer returns the private registry holding the collectors.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Register adds the collectors to reg, typically prometheus.DefaultRegisterer.
// Collectors already registered there are not an error.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.validations, m.errors, m.compiles, m.duration} {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return err
			}
		}
	}
	return nil
}

// RecordValidation records a completed validation and the number of errors
// it reported.
func (m *Metrics) RecordValidation(duration time.Duration, valid bool, errorCount int) {
	m.validationsTotal.Add(1)
	result := ResultInvalid
	if valid {
		m.validationsValid.Add(1)
		result = ResultValid
	}
	if errorCount > 0 {
		m.errorsTotal.Add(uint64(errorCount)) //nolint:gosec // Safe: checked positive
		m.errors.Add(float64(errorCount))
	}
	m.validations.WithLabelValues(result).Inc()
	m.duration.Observe(duration.Seconds())

	ns := uint64(duration.Nanoseconds()) //nolint:gosec // Safe: nanoseconds are always positive for valid durations
	m.validationTimeTotal.Add(ns)

	// Update min (CAS loop)
	for {
		old := m.validationTimeMin.Load()
		if ns >= old {
			break
		}
		if m.validationTimeMin.CompareAndSwap(old, ns) {
			break
		}
	}

	// Update max (CAS loop)
	for {
		old := m.validationTimeMax.Load()
		if ns <= old {
			break
		}
		if m.validationTimeMax.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordCacheHit records a compiled-schema cache hit.
func (m *Metrics) RecordCacheHit() {
	m.cacheHits.Add(1)
	m.compiles.WithLabelValues(CacheHit).Inc()
}

// RecordCacheMiss records a compiled-schema cache miss, that is, a compile.
func (m *Metrics) RecordCacheMiss() {
	m.cacheMisses.Add(1)
	m.compiles.WithLabelValues(CacheMiss).Inc()
}

// RecordCompileError records a schema that failed to compile.
func (m *Metrics) RecordCompileError() {
	m.compileErrors.Add(1)
}

// ValidationsTotal returns the total number of validations performed.
func (m *Metrics) ValidationsTotal() uint64 {
	return m.validationsTotal.Load()
}

// ValidationsValid returns the number of valid validations.
func (m *Metrics) ValidationsValid() uint64 {
	return m.validationsValid.Load()
}

// ValidationRate returns the share of valid validations (0.0 to 1.0).
func (m *Metrics) ValidationRate() float64 {
	total := m.validationsTotal.Load()
	if total == 0 {
		return 0
	}
	return float64(m.validationsValid.Load()) / float64(total)
}

// ErrorsTotal returns the total number of reported errors.
func (m *Metrics) ErrorsTotal() uint64 {
	return m.errorsTotal.Load()
}

// AverageValidationTime returns the average validation duration.
func (m *Metrics) AverageValidationTime() time.Duration {
	total := m.validationsTotal.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(m.validationTimeTotal.Load() / total) //nolint:gosec // Safe: nanoseconds within int64 range
}

// MinValidationTime returns the minimum validation duration.
func (m *Metrics) MinValidationTime() time.Duration {
	minVal := m.validationTimeMin.Load()
	if minVal == ^uint64(0) {
		return 0
	}
	return time.Duration(minVal) //nolint:gosec // Safe: nanoseconds within int64 range
}

// MaxValidationTime returns the maximum validation duration.
func (m *Metrics) MaxValidationTime() time.Duration {
	return time.Duration(m.validationTimeMax.Load()) //nolint:gosec // Safe: nanoseconds within int64 range
}

// CacheHitRate returns the compiled-schema cache hit rate (0.0 to 1.0).
func (m *Metrics) CacheHitRate() float64 {
	hits := m.cacheHits.Load()
	total := hits + m.cacheMisses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`

	ValidationsTotal uint64  `json:"validations_total"`
	ValidationsValid uint64  `json:"validations_valid"`
	ValidationRate   float64 `json:"validation_rate"`
	ErrorsTotal      uint64  `json:"errors_total"`

	AvgValidationTimeNs uint64 `json:"avg_validation_time_ns"`
	MinValidationTimeNs uint64 `json:"min_validation_time_ns"`
	MaxValidationTimeNs uint64 `json:"max_validation_time_ns"`

	CacheHits     uint64  `json:"cache_hits"`
	CacheMisses   uint64  `json:"cache_misses"`
	CacheHitRate  float64 `json:"cache_hit_rate"`
	CompileErrors uint64  `json:"compile_errors"`
}

// Snapshot returns a point-in-time snapshot of all counters.
func (m *Metrics) Snapshot() Snapshot {
	minTime := m.validationTimeMin.Load()
	if minTime == ^uint64(0) {
		minTime = 0
	}
	var avg uint64
	if total := m.validationsTotal.Load(); total > 0 {
		avg = m.validationTimeTotal.Load() / total
	}

	return Snapshot{
		Timestamp:           time.Now(),
		ValidationsTotal:    m.validationsTotal.Load(),
		ValidationsValid:    m.validationsValid.Load(),
		ValidationRate:      m.ValidationRate(),
		ErrorsTotal:         m.errorsTotal.Load(),
		AvgValidationTimeNs: avg,
		MinValidationTimeNs: minTime,
		MaxValidationTimeNs: m.validationTimeMax.Load(),
		CacheHits:           m.cacheHits.Load(),
		CacheMisses:         m.cacheMisses.Load(),
		CacheHitRate:        m.CacheHitRate(),
		CompileErrors:       m.compileErrors.Load(),
	}
}

// Reset clears the atomic counters. Prometheus counters are monotonic and
// keep their values.
func (m *Metrics) Reset() {
	m.validationsTotal.Store(0)
	m.validationsValid.Store(0)
	m.errorsTotal.Store(0)
	m.validationTimeTotal.Store(0)
	m.validationTimeMin.Store(^uint64(0))
	m.validationTimeMax.Store(0)
	m.cacheHits.Store(0)
	m.cacheMisses.Store(0)
	m.compileErrors.Store(0)
}
