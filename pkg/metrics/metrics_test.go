package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Basic(t *testing.T) {
	m := New()
	assert.Zero(t, m.ValidationsTotal())

	m.RecordValidation(100*time.Millisecond, true, 0)
	m.RecordValidation(100*time.Millisecond, false, 3)

	assert.Equal(t, uint64(2), m.ValidationsTotal())
	assert.Equal(t, uint64(1), m.ValidationsValid())
	assert.Equal(t, uint64(3), m.ErrorsTotal())
	assert.InDelta(t, 0.5, m.ValidationRate(), 0.001)
}

func TestMetrics_ValidationTime(t *testing.T) {
	m := New()
	assert.Zero(t, m.AverageValidationTime())
	assert.Zero(t, m.MinValidationTime())
	assert.Zero(t, m.MaxValidationTime())

	m.RecordValidation(100*time.Millisecond, true, 0)
	m.RecordValidation(200*time.Millisecond, true, 0)
	m.RecordValidation(300*time.Millisecond, true, 0)

	assert.Equal(t, 200*time.Millisecond, m.AverageValidationTime())
	assert.Equal(t, 100*time.Millisecond, m.MinValidationTime())
	assert.Equal(t, 300*time.Millisecond, m.MaxValidationTime())
}

func TestMetrics_Cache(t *testing.T) {
	m := New()
	assert.Zero(t, m.CacheHitRate())

	m.RecordCacheHit()
	m.RecordCacheHit()
	m.RecordCacheMiss()

	assert.InDelta(t, 2.0/3.0, m.CacheHitRate(), 0.01)
	assert.InDelta(t, 2, testutil.ToFloat64(m.compiles.WithLabelValues(CacheHit)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.compiles.WithLabelValues(CacheMiss)), 0)
}

func TestMetrics_Prometheus(t *testing.T) {
	m := New()
	m.RecordValidation(time.Millisecond, true, 0)
	m.RecordValidation(time.Millisecond, false, 2)

	assert.InDelta(t, 1, testutil.ToFloat64(m.validations.WithLabelValues(ResultValid)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.validations.WithLabelValues(ResultInvalid)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.errors), 0)

	count, err := testutil.GatherAndCount(m.Gatherer(), "jsonschema_validation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_Register(t *testing.T) {
	m := New()
	reg := prometheus.NewRegistry()

	require.NoError(t, m.Register(reg))
	// Registering the same collectors again is tolerated.
	require.NoError(t, m.Register(reg))

	m.RecordCacheMiss()
	count, err := testutil.GatherAndCount(reg, "jsonschema_compile_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_SnapshotAndReset(t *testing.T) {
	m := New()
	m.RecordValidation(100*time.Millisecond, false, 1)
	m.RecordCacheHit()
	m.RecordCompileError()

	s := m.Snapshot()
	assert.Equal(t, uint64(1), s.ValidationsTotal)
	assert.Equal(t, uint64(1), s.ErrorsTotal)
	assert.Equal(t, uint64(1), s.CacheHits)
	assert.Equal(t, uint64(1), s.CompileErrors)
	assert.Equal(t, uint64(100*time.Millisecond), s.AvgValidationTimeNs)
	assert.False(t, s.Timestamp.IsZero())

	m.Reset()
	s = m.Snapshot()
	assert.Zero(t, s.ValidationsTotal)
	assert.Zero(t, s.CacheHits)
	assert.Zero(t, s.MinValidationTimeNs)
}

func TestMetrics_Concurrent(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	n := 100

	for i := 0; i < n; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			m.RecordValidation(time.Duration(i)*time.Millisecond, i%2 == 0, i%2)
		}(i)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				m.RecordCacheHit()
			} else {
				m.RecordCacheMiss()
			}
		}(i)
	}
	wg.Wait()

	s := m.Snapshot()
	assert.Equal(t, uint64(n), s.ValidationsTotal)
	assert.Equal(t, uint64(n/2), s.ErrorsTotal)
	assert.Equal(t, uint64(n), s.CacheHits+s.CacheMisses)
	assert.Equal(t, uint64(99*time.Millisecond), s.MaxValidationTimeNs)
}

func BenchmarkMetrics_RecordValidation(b *testing.B) {
	m := New()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.RecordValidation(100*time.Millisecond, true, 0)
	}
}
