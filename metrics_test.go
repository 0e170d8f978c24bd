package tmplstream

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Render(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("test"))
	e := NewEngine(WithObserver(m))

	_, err := e.Render(context.Background(), Build([]string{"ab", "c"}, "de")).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.chunksTotal.WithLabelValues("template")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.bytesTotal.WithLabelValues("template")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.streamsTotal.WithLabelValues("template", statusOK)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.activeStreams))
	assert.Equal(t, 1, testutil.CollectAndCount(m.streamDuration))
}

func TestMetrics_Outcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))
	e := NewEngine(WithObserver(m))

	open := e.Render(context.Background(), Build([]string{"a", "b"}, "x"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeStreams))
	open.Next()
	open.Close()

	_, err := e.Render(context.Background(), Build([]string{"", ""}, struct{}{})).ReadAll()
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.streamsTotal.WithLabelValues("template", statusCancelled)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.streamsTotal.WithLabelValues("template", statusError)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.activeStreams))
}

func TestMetrics_Registration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("app"), WithSubsystem("views"),
		WithConstLabels(prometheus.Labels{"service": "web"}), WithBuckets([]float64{0.1, 1}))
	m.StreamStarted("template")

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "app_views_active_streams")

	assert.Panics(t, func() {
		NewMetrics(WithRegistry(reg), WithNamespace("app"), WithSubsystem("views"))
	}, "registering twice on one registerer")
}

func TestStreamStatus(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, statusOK},
		{ErrClosed, statusCancelled},
		{context.Canceled, statusCancelled},
		{context.DeadlineExceeded, statusError},
		{&InvalidSlotValueError{Value: struct{}{}}, statusError},
	}
	for _, tt := range tests {
		if got := streamStatus(tt.err); got != tt.want {
			t.Errorf("streamStatus(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
