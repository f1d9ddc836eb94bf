package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func gatherNames(t *testing.T, r *prometheus.Registry) map[string]bool {
	t.Helper()
	families, err := r.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	return names
}

func TestManagerRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewManager(WithRegistry(reg))

	m.discoveriesRecorded.Inc()
	m.discoveriesDuplicate.Inc()
	m.participantsTotal.Set(3)
	m.storeOpLatency.WithLabelValues("record").Observe(0.01)
	m.httpRequests.WithLabelValues("discoveries", "POST", "201").Inc()

	names := gatherNames(t, reg)
	for _, want := range []string{
		"bugboard_leaderboard_discoveries_recorded_total",
		"bugboard_leaderboard_discoveries_duplicate_total",
		"bugboard_leaderboard_participants_total",
		"bugboard_leaderboard_store_op_duration_seconds",
		"bugboard_leaderboard_http_requests_total",
	} {
		if !names[want] {
			t.Errorf("metric %s not registered", want)
		}
	}
}

func TestManagerOptions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewManager(
		WithRegistry(reg),
		WithNamespace("custom"),
		WithSubsystem("engine"),
		WithHistogramBuckets([]float64{0.1, 1}),
	)
	m.discoveriesRecorded.Inc()

	for name := range gatherNames(t, reg) {
		if !strings.HasPrefix(name, "custom_engine_") {
			t.Errorf("metric %s does not carry custom namespace/subsystem", name)
		}
	}
}

func TestGlobalHelpers(t *testing.T) {
	// The global helpers must not panic and must show up in the registry.
	RecordDiscoveryCreated()
	RecordDiscoveryDuplicate()
	RecordDiscoveryRejected()
	RecordLockTimeout()
	ObserveStoreOp("record", 0.002)
	RecordStoreError("record", "timeout")
	UpdateParticipantsTotal(10)
	UpdateDiscoveriesTotal(25)
	RecordStatsRebuild(0.001)
	RecordHTTPRequest("stats", "GET", "200", 0.003)

	names := gatherNames(t, GetRegistry())
	if !names["bugboard_leaderboard_stats_rebuilds_total"] {
		t.Error("stats rebuild counter missing from global registry")
	}
}
