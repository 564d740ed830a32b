package bench

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	courierhttp "github.com/awalters-dev/courier/packages/http"
)

func newBenchClient(t *testing.T) *courierhttp.Client {
	t.Helper()
	client, err := courierhttp.NewClient()
	require.NoError(t, err)
	return client
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"fixed count", Options{Requests: 10, Concurrency: 2}, false},
		{"fixed duration", Options{Duration: time.Second, Concurrency: 1}, false},
		{"no budget", Options{Concurrency: 2}, true},
		{"zero concurrency", Options{Requests: 10}, true},
		{"negative rate", Options{Requests: 10, Concurrency: 1, Rate: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRunFixedCount(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	runner := NewRunner(newBenchClient(t))
	summary, err := runner.Run(context.Background(),
		courierhttp.NewGetRequest(server.URL),
		Options{Requests: 20, Concurrency: 4})

	require.NoError(t, err)
	assert.Equal(t, int64(20), summary.Total)
	assert.Equal(t, int64(20), summary.Successes)
	assert.Equal(t, int64(0), summary.Failures)
	assert.EqualValues(t, 20, hits.Load())

	assert.True(t, summary.P50 > 0)
	assert.True(t, summary.P95 >= summary.P50)
	assert.True(t, summary.P99 >= summary.P95)
	assert.True(t, summary.Max >= summary.P99)
	assert.True(t, summary.Throughput > 0)
}

func TestRunCountsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	runner := NewRunner(newBenchClient(t))
	summary, err := runner.Run(context.Background(),
		courierhttp.NewGetRequest(server.URL),
		Options{Requests: 5, Concurrency: 2})

	require.NoError(t, err)
	assert.Equal(t, int64(5), summary.Total)
	assert.Equal(t, int64(0), summary.Successes)
	assert.Equal(t, int64(5), summary.Failures)
}

func TestRunRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	runner := NewRunner(newBenchClient(t))
	summary, err := runner.Run(context.Background(),
		courierhttp.NewGetRequest(server.URL),
		Options{Requests: 6, Concurrency: 2, Rate: 100})

	require.NoError(t, err)
	assert.Equal(t, int64(6), summary.Total)
	// Six requests at 100 rps cannot finish instantly.
	assert.GreaterOrEqual(t, summary.Duration, 30*time.Millisecond)
}

func TestRunDurationMode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	runner := NewRunner(newBenchClient(t))
	summary, err := runner.Run(context.Background(),
		courierhttp.NewGetRequest(server.URL),
		Options{Duration: 150 * time.Millisecond, Concurrency: 2})

	require.NoError(t, err)
	assert.True(t, summary.Total > 0)
	assert.GreaterOrEqual(t, summary.Duration, 100*time.Millisecond)
}

func TestRunClonesRequestPerDispatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "acme", r.Header.Get("X-Tenant"))
		data, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"n":1}`, string(data))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	req := courierhttp.NewPostRequest(server.URL, `{"n":1}`)
	req.AddHeader("X-Tenant", "acme")

	runner := NewRunner(newBenchClient(t))
	summary, err := runner.Run(context.Background(), req, Options{Requests: 8, Concurrency: 4})

	require.NoError(t, err)
	assert.Equal(t, int64(8), summary.Successes)
	// The original request is untouched by the run.
	assert.Len(t, req.Headers, 1)
}

func TestRunInvalidOptions(t *testing.T) {
	runner := NewRunner(newBenchClient(t))

	_, err := runner.Run(context.Background(),
		courierhttp.NewGetRequest("http://example.com"), Options{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid bench options")
}

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics()
	m.Start()

	m.Record(100*time.Millisecond, nil)
	m.Record(150*time.Millisecond, nil)
	m.Record(50*time.Millisecond, errors.New("boom"))

	m.Stop()

	summary := m.Summary()
	assert.Equal(t, int64(3), summary.Total)
	assert.Equal(t, int64(2), summary.Successes)
	assert.Equal(t, int64(1), summary.Failures)
	assert.True(t, summary.Duration > 0)
}

func TestMetricsPercentiles(t *testing.T) {
	m := NewMetrics()
	m.Start()

	for i := 0; i < 100; i++ {
		m.Record(time.Duration(i+1)*time.Millisecond, nil)
	}

	m.Stop()

	summary := m.Summary()
	assert.True(t, summary.P50 > 0)
	assert.True(t, summary.P95 > summary.P50)
	assert.True(t, summary.P99 >= summary.P95)
	assert.True(t, summary.Max >= summary.P99)
	assert.True(t, summary.Mean > 0)
}

func TestMetricsEmpty(t *testing.T) {
	m := NewMetrics()
	m.Start()
	m.Stop()

	summary := m.Summary()
	assert.Zero(t, summary.Total)
	assert.Zero(t, summary.Max)
}
