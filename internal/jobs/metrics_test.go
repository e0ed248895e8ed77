package jobs

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics()
	if m == nil {
		t.Fatal("NewMetrics() returned nil")
	}

	// Verify all collectors are initialized
	collectors := m.Collectors()
	if len(collectors) != 3 {
		t.Errorf("expected 3 collectors, got %d", len(collectors))
	}
}

func TestMetrics_Register(t *testing.T) {
	t.Run("successful registration", func(t *testing.T) {
		m := NewMetrics()
		reg := prometheus.NewRegistry()

		if err := m.Register(reg); err != nil {
			t.Errorf("Register() returned error: %v", err)
		}

		// Record some metrics to ensure they appear in Gather()
		m.IncJobsTotal(JobTypeTrustRecompute, StatusSuccess)
		m.ObserveJobDuration(JobTypeTrustRecompute, 1.0)
		m.IncJobErrors(JobTypeTrustRecompute, "test_error")

		families, err := reg.Gather()
		if err != nil {
			t.Errorf("Gather() returned error: %v", err)
		}

		expectedNames := map[string]bool{
			MetricBackgroundJobsTotal:      false,
			MetricBackgroundJobsDuration:   false,
			MetricBackgroundJobErrorsTotal: false,
		}

		for _, family := range families {
			if _, ok := expectedNames[family.GetName()]; ok {
				expectedNames[family.GetName()] = true
			}
		}

		for name, found := range expectedNames {
			if !found {
				t.Errorf("metric %s not found in gathered metrics", name)
			}
		}
	})

	t.Run("duplicate registration fails", func(t *testing.T) {
		m1 := NewMetrics()
		m2 := NewMetrics()
		reg := prometheus.NewRegistry()

		if err := m1.Register(reg); err != nil {
			t.Fatalf("first Register() returned error: %v", err)
		}

		if err := m2.Register(reg); err == nil {
			t.Error("second Register() should have returned an error")
		}
	})
}

func getCounterVecValue(vec *prometheus.CounterVec, labels ...string) float64 {
	metric, err := vec.GetMetricWithLabelValues(labels...)
	if err != nil {
		return -1
	}
	var m dto.Metric
	if err := metric.(prometheus.Metric).Write(&m); err != nil {
		return -1
	}
	return m.GetCounter().GetValue()
}

func getHistogramVecSampleCount(vec *prometheus.HistogramVec, labels ...string) uint64 {
	metric, err := vec.GetMetricWithLabelValues(labels...)
	if err != nil {
		return 0
	}
	var m dto.Metric
	if err := metric.(prometheus.Metric).Write(&m); err != nil {
		return 0
	}
	return m.GetHistogram().GetSampleCount()
}

func TestMetrics_IncJobsTotal(t *testing.T) {
	m := NewMetrics()

	testCases := []struct {
		jobType string
		status  string
		count   int
	}{
		{JobTypeTrustRecompute, StatusSuccess, 10},
		{JobTypeTrustRecompute, StatusFailure, 2},
		{JobTypeIndexEmbed, StatusSuccess, 5},
		{JobTypeIndexEmbed, StatusFailure, 1},
	}

	for _, tc := range testCases {
		initial := getCounterVecValue(m.jobsTotal, tc.jobType, tc.status)
		if initial != 0 {
			t.Errorf("initial value for %s/%s = %f, want 0", tc.jobType, tc.status, initial)
		}

		for i := 0; i < tc.count; i++ {
			m.IncJobsTotal(tc.jobType, tc.status)
		}

		final := getCounterVecValue(m.jobsTotal, tc.jobType, tc.status)
		if final != float64(tc.count) {
			t.Errorf("final value for %s/%s = %f, want %d", tc.jobType, tc.status, final, tc.count)
		}
	}
}

func TestMetrics_ObserveJobDuration(t *testing.T) {
	m := NewMetrics()

	durations := []float64{0.5, 1.2, 0.8, 2.5, 1.0}
	for _, d := range durations {
		m.ObserveJobDuration(JobTypeTrustRecompute, d)
	}

	count := getHistogramVecSampleCount(m.jobsDuration, JobTypeTrustRecompute)
	if count != uint64(len(durations)) {
		t.Errorf("sample count = %d, want %d", count, len(durations))
	}

	// Job types keep separate series.
	if other := getHistogramVecSampleCount(m.jobsDuration, JobTypeIndexEmbed); other != 0 {
		t.Errorf("sample count for %s = %d, want 0", JobTypeIndexEmbed, other)
	}
}

func TestMetrics_IncJobErrors(t *testing.T) {
	m := NewMetrics()

	testCases := []struct {
		jobType   string
		errorType string
		count     int
	}{
		{JobTypeTrustRecompute, "run_error", 3},
		{JobTypeIndexEmbed, "run_error", 2},
		{JobTypeIndexEmbed, "timeout", 1},
	}

	for _, tc := range testCases {
		for i := 0; i < tc.count; i++ {
			m.IncJobErrors(tc.jobType, tc.errorType)
		}
		final := getCounterVecValue(m.jobErrors, tc.jobType, tc.errorType)
		if final != float64(tc.count) {
			t.Errorf("final value for %s/%s = %f, want %d", tc.jobType, tc.errorType, final, tc.count)
		}
	}
}

func TestMetrics_Concurrency(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup
	iterations := 100
	goroutines := 10

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				m.IncJobsTotal(JobTypeTrustRecompute, StatusSuccess)
				m.ObserveJobDuration(JobTypeIndexEmbed, 1.5)
				m.IncJobErrors(JobTypeTrustRecompute, "test_error")
			}
		}()
	}

	wg.Wait()

	expected := float64(goroutines * iterations)
	if got := getCounterVecValue(m.jobsTotal, JobTypeTrustRecompute, StatusSuccess); got != expected {
		t.Errorf("jobsTotal success count = %f, want %f", got, expected)
	}
	if got := getHistogramVecSampleCount(m.jobsDuration, JobTypeIndexEmbed); got != uint64(goroutines*iterations) {
		t.Errorf("jobsDuration sample count = %d, want %d", got, goroutines*iterations)
	}
	if got := getCounterVecValue(m.jobErrors, JobTypeTrustRecompute, "test_error"); got != expected {
		t.Errorf("jobErrors count = %f, want %f", got, expected)
	}
}
