package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/golang/snappy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/prometheus/prompb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nomis52/clubsignup/catalog"
)

// newRemoteWriteServer returns a server that decodes remote write requests onto a channel.
func newRemoteWriteServer(t *testing.T, status int) (*httptest.Server, <-chan []prompb.TimeSeries) {
	t.Helper()
	received := make(chan []prompb.TimeSeries, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/write", r.URL.Path)
		assert.Equal(t, "snappy", r.Header.Get("Content-Encoding"))
		assert.Equal(t, "application/x-protobuf", r.Header.Get("Content-Type"))
		assert.Equal(t, "0.1.0", r.Header.Get("X-Prometheus-Remote-Write-Version"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		decoded, err := snappy.Decode(nil, body)
		require.NoError(t, err)

		var writeReq prompb.WriteRequest
		require.NoError(t, proto.Unmarshal(decoded, &writeReq))

		received <- writeReq.Timeseries
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server, received
}

func receive(t *testing.T, ch <-chan []prompb.TimeSeries) []prompb.TimeSeries {
	t.Helper()
	select {
	case ts := <-ch:
		return ts
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for metrics to be received")
		return nil
	}
}

func findLabel(labels []prompb.Label, name string) string {
	for _, l := range labels {
		if l.Name == name {
			return l.Value
		}
	}
	return ""
}

func findSeries(series []prompb.TimeSeries, name string, labels map[string]string) *prompb.TimeSeries {
	for i := range series {
		if findLabel(series[i].Labels, "__name__") != name {
			continue
		}
		match := true
		for k, v := range labels {
			if findLabel(series[i].Labels, k) != v {
				match = false
				break
			}
		}
		if match {
			return &series[i]
		}
	}
	return nil
}

func TestNewPushRegistry(t *testing.T) {
	tests := []struct {
		name    string
		cfg     PushConfig
		wantURL string
	}{
		{
			name:    "minimal config",
			cfg:     PushConfig{URL: "http://localhost:8428"},
			wantURL: "http://localhost:8428/api/v1/write",
		},
		{
			name: "trailing slash",
			cfg: PushConfig{
				URL:      "http://localhost:8428/",
				Prefix:   "test",
				Job:      "testjob",
				Instance: "testinstance",
				Timeout:  5 * time.Second,
			},
			wantURL: "http://localhost:8428/api/v1/write",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewPushRegistry(tt.cfg)
			require.NotNil(t, registry)
			assert.Equal(t, tt.wantURL, registry.url)
		})
	}
}

func TestPushRegistry_FlushEmpty(t *testing.T) {
	// Nothing buffered, so no request is made to the unreachable URL
	registry := NewPushRegistry(PushConfig{URL: "http://127.0.0.1:1"})
	assert.NoError(t, registry.Flush(context.Background()))
}

func TestPushGauge_Set(t *testing.T) {
	server, received := newRemoteWriteServer(t, http.StatusNoContent)

	registry := NewPushRegistry(PushConfig{
		URL:      server.URL,
		Prefix:   "test",
		Job:      "testjob",
		Instance: "testinstance",
	})

	gauge, err := registry.NewGauge(prometheus.GaugeOpts{Name: "test_metric", Help: "A test metric"})
	require.NoError(t, err)
	gauge.Set(1.0)
	gauge.Set(42.0)

	require.NoError(t, registry.Flush(context.Background()))

	series := receive(t, received)
	require.Len(t, series, 1)
	ts := series[0]

	assert.Equal(t, "test_test_metric", findLabel(ts.Labels, "__name__"))
	assert.Equal(t, "testjob", findLabel(ts.Labels, "job"))
	assert.Equal(t, "testinstance", findLabel(ts.Labels, "instance"))
	require.Len(t, ts.Samples, 1)
	assert.Equal(t, 42.0, ts.Samples[0].Value)
	assert.NotZero(t, ts.Samples[0].Timestamp)
}

func TestPushGaugeVec_WithLabels(t *testing.T) {
	server, received := newRemoteWriteServer(t, http.StatusOK)

	registry := NewPushRegistry(PushConfig{URL: server.URL})

	gaugeVec, err := registry.NewGaugeVec(prometheus.GaugeOpts{Name: "participants"}, []string{"activity"})
	require.NoError(t, err)

	gaugeVec.With(prometheus.Labels{"activity": "Chess Club"}).Set(3)
	gaugeVec.With(prometheus.Labels{"activity": "Art Club"}).Set(5)

	require.NoError(t, registry.Flush(context.Background()))

	series := receive(t, received)
	require.Len(t, series, 2)

	chess := findSeries(series, "participants", map[string]string{"activity": "Chess Club"})
	require.NotNil(t, chess)
	assert.Equal(t, 3.0, chess.Samples[0].Value)

	art := findSeries(series, "participants", map[string]string{"activity": "Art Club"})
	require.NotNil(t, art)
	assert.Equal(t, 5.0, art.Samples[0].Value)
}

func TestPushCounter_Accumulates(t *testing.T) {
	server, received := newRemoteWriteServer(t, http.StatusOK)

	registry := NewPushRegistry(PushConfig{URL: server.URL})

	counter, err := registry.NewCounter(prometheus.CounterOpts{Name: "test_counter"})
	require.NoError(t, err)

	counter.Inc()
	counter.Inc()
	require.NoError(t, registry.Flush(context.Background()))

	counter.Add(3)
	require.NoError(t, registry.Flush(context.Background()))

	for _, want := range []float64{2, 5} {
		series := receive(t, received)
		require.Len(t, series, 1)
		assert.Equal(t, want, series[0].Samples[0].Value)
	}
}

func TestPushCounterVec_SharesSeries(t *testing.T) {
	server, received := newRemoteWriteServer(t, http.StatusOK)

	registry := NewPushRegistry(PushConfig{URL: server.URL})

	counterVec, err := registry.NewCounterVec(prometheus.CounterOpts{Name: "signups_total"}, []string{"activity"})
	require.NoError(t, err)

	counterVec.With(prometheus.Labels{"activity": "Chess Club"}).Inc()
	counterVec.With(prometheus.Labels{"activity": "Chess Club"}).Inc()

	require.NoError(t, registry.Flush(context.Background()))

	series := receive(t, received)
	require.Len(t, series, 1)
	assert.Equal(t, 2.0, series[0].Samples[0].Value)
}

func TestPushCounterVec_SeparatorsInLabelValues(t *testing.T) {
	server, received := newRemoteWriteServer(t, http.StatusOK)

	registry := NewPushRegistry(PushConfig{URL: server.URL})

	counterVec, err := registry.NewCounterVec(prometheus.CounterOpts{Name: "signups_total"}, []string{"activity", "result"})
	require.NoError(t, err)

	counterVec.With(prometheus.Labels{"activity": "Art, Craft,result=ok", "result": "error"}).Inc()
	counterVec.With(prometheus.Labels{"activity": "Art, Craft", "result": "ok,result=error"}).Add(2)

	require.NoError(t, registry.Flush(context.Background()))

	series := receive(t, received)
	require.Len(t, series, 2)

	first := findSeries(series, "signups_total", map[string]string{"activity": "Art, Craft,result=ok", "result": "error"})
	require.NotNil(t, first)
	assert.Equal(t, 1.0, first.Samples[0].Value)

	second := findSeries(series, "signups_total", map[string]string{"activity": "Art, Craft", "result": "ok,result=error"})
	require.NotNil(t, second)
	assert.Equal(t, 2.0, second.Samples[0].Value)
}

func TestSeriesKey(t *testing.T) {
	assert.NotEqual(t,
		seriesKey("signups_total", map[string]string{"activity": "a,result=b", "result": "c"}),
		seriesKey("signups_total", map[string]string{"activity": "a", "result": "b,result=c"}),
	)
	assert.Equal(t,
		seriesKey("participants", map[string]string{"activity": "Chess Club"}),
		seriesKey("participants", map[string]string{"activity": "Chess Club"}),
	)
}

func TestPushCounter_NegativePanics(t *testing.T) {
	registry := NewPushRegistry(PushConfig{URL: "http://localhost:8428"})
	counter, err := registry.NewCounter(prometheus.CounterOpts{Name: "test_counter"})
	require.NoError(t, err)

	assert.Panics(t, func() { counter.Add(-1) })
}

func TestPushRegistry_FlushErrorStatus(t *testing.T) {
	server, received := newRemoteWriteServer(t, http.StatusBadRequest)

	registry := NewPushRegistry(PushConfig{URL: server.URL})
	gauge, err := registry.NewGauge(prometheus.GaugeOpts{Name: "test_metric"})
	require.NoError(t, err)
	gauge.Set(1)

	err = registry.Flush(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 400")
	receive(t, received)
}

func scrape(t *testing.T, registry *ScrapeRegistry) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	registry.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestScrapeRegistry(t *testing.T) {
	registry, err := NewScrapeRegistry("")
	require.NoError(t, err)
	require.NotNil(t, registry)
	require.NotNil(t, registry.PrometheusRegistry())

	gauge, err := registry.NewGauge(prometheus.GaugeOpts{Name: "test_gauge", Help: "A test gauge"})
	require.NoError(t, err)
	gauge.Set(42.0)

	counter, err := registry.NewCounter(prometheus.CounterOpts{Name: "test_counter", Help: "A test counter"})
	require.NoError(t, err)
	counter.Inc()

	body := scrape(t, registry)
	assert.Contains(t, body, "test_gauge 42")
	assert.Contains(t, body, "test_counter 1")
	assert.Contains(t, body, "go_goroutines")
}

func TestScrapeRegistry_Prefix(t *testing.T) {
	registry, err := NewScrapeRegistry("clubsignup")
	require.NoError(t, err)

	gauge, err := registry.NewGauge(prometheus.GaugeOpts{Name: "test_gauge", Help: "A test gauge"})
	require.NoError(t, err)
	gauge.Set(7)

	assert.Contains(t, scrape(t, registry), "clubsignup_test_gauge 7")
}

func TestScrapeRegistry_DuplicateRegistration(t *testing.T) {
	registry, err := NewScrapeRegistry("")
	require.NoError(t, err)

	_, err = registry.NewCounter(prometheus.CounterOpts{Name: "dup", Help: "dup"})
	require.NoError(t, err)
	_, err = registry.NewCounter(prometheus.CounterOpts{Name: "dup", Help: "dup"})
	assert.Error(t, err)
}

func TestEnrollmentMetrics(t *testing.T) {
	registry, err := NewScrapeRegistry("clubsignup")
	require.NoError(t, err)

	m, err := NewEnrollmentMetrics(registry)
	require.NoError(t, err)

	reg, err := catalog.New(catalog.DefaultSeed(), catalog.WithObserver(m))
	require.NoError(t, err)
	m.Sync(reg.List())

	_, err = reg.Enroll("Chess Club", "new.student@mergington.edu")
	require.NoError(t, err)
	_, err = reg.Enroll("Chess Club", "new.student@mergington.edu")
	require.Error(t, err)
	_, err = reg.Enroll("NonexistentClub", "new.student@mergington.edu")
	require.Error(t, err)
	_, err = reg.Remove("Art Club", "nobody@mergington.edu")
	require.Error(t, err)

	body := scrape(t, registry)
	assert.Contains(t, body, `clubsignup_signups_total{activity="Chess Club",result="ok"} 1`)
	assert.Contains(t, body, `clubsignup_signups_total{activity="Chess Club",result="already_signed_up"} 1`)
	assert.Contains(t, body, `clubsignup_signups_total{activity="unknown",result="not_found"} 1`)
	assert.Contains(t, body, `clubsignup_removals_total{activity="Art Club",result="not_found"} 1`)
	assert.Contains(t, body, `clubsignup_participants{activity="Chess Club"} 3`)
	assert.Contains(t, body, `clubsignup_participants{activity="Debate Team"} 2`)
	assert.NotContains(t, body, "NonexistentClub")
}

type staticRoster []catalog.Activity

func (s staticRoster) List() []catalog.Activity {
	return s
}

func TestRosterReporter_Report(t *testing.T) {
	server, received := newRemoteWriteServer(t, http.StatusOK)

	registry := NewPushRegistry(PushConfig{URL: server.URL, Prefix: "clubsignup", Job: "clubsignup"})
	roster := staticRoster{
		{Name: "Chess Club", MaxParticipants: 12, Participants: []string{"a@x", "b@x"}},
		{Name: "Art Club", MaxParticipants: 15, Participants: []string{}},
	}

	reporter, err := NewRosterReporter(registry, roster)
	require.NoError(t, err)
	require.NoError(t, reporter.Report(context.Background()))

	series := receive(t, received)
	require.Len(t, series, 4)

	chess := findSeries(series, "clubsignup_participants", map[string]string{"activity": "Chess Club"})
	require.NotNil(t, chess)
	assert.Equal(t, 2.0, chess.Samples[0].Value)
	assert.Equal(t, "clubsignup", findLabel(chess.Labels, "job"))

	capacity := findSeries(series, "clubsignup_capacity", map[string]string{"activity": "Art Club"})
	require.NotNil(t, capacity)
	assert.Equal(t, 15.0, capacity.Samples[0].Value)
}

func TestRosterReporter_ReportError(t *testing.T) {
	server, _ := newRemoteWriteServer(t, http.StatusInternalServerError)

	registry := NewPushRegistry(PushConfig{URL: server.URL})
	reporter, err := NewRosterReporter(registry, staticRoster{{Name: "Chess Club"}})
	require.NoError(t, err)

	err = reporter.Report(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pushing roster metrics")
}
