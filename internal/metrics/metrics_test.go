package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gatherFamily(t *testing.T, name string) *dto.MetricFamily {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func TestIntentsExpanded_Registered(t *testing.T) {
	IntentsExpanded.WithLabelValues("bedrock", "cartesian").Inc()
	IntentsExpanded.WithLabelValues("bedrock", "cartesian").Inc()

	mf := gatherFamily(t, "routegen_intents_expanded_total")
	if mf == nil {
		t.Fatal("routegen_intents_expanded_total not registered")
	}
	if mf.GetType() != dto.MetricType_COUNTER {
		t.Errorf("type = %v, want COUNTER", mf.GetType())
	}

	var found bool
	for _, m := range mf.GetMetric() {
		labels := map[string]string{}
		for _, lp := range m.GetLabel() {
			labels[lp.GetName()] = lp.GetValue()
		}
		if labels["provider"] == "bedrock" && labels["strategy"] == "cartesian" {
			found = true
			if m.GetCounter().GetValue() < 2 {
				t.Errorf("counter = %v, want >= 2", m.GetCounter().GetValue())
			}
		}
	}
	if !found {
		t.Error("no series with provider=bedrock strategy=cartesian")
	}
}

func TestRenderDuration_Observes(t *testing.T) {
	RenderDuration.Observe(0.002)

	mf := gatherFamily(t, "routegen_render_duration_seconds")
	if mf == nil {
		t.Fatal("routegen_render_duration_seconds not registered")
	}
	if mf.GetType() != dto.MetricType_HISTOGRAM {
		t.Fatalf("type = %v, want HISTOGRAM", mf.GetType())
	}
	h := mf.GetMetric()[0].GetHistogram()
	if h.GetSampleCount() == 0 {
		t.Error("histogram has no samples after Observe")
	}
}
