package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestJobStarted(t *testing.T) {
	Register()
	Register()

	before := testutil.ToFloat64(jobsTotal.WithLabelValues("separation", "completed"))

	done := JobStarted("separation")
	if got := testutil.ToFloat64(jobsRunning); got != 1 {
		t.Errorf("running = %v, want 1", got)
	}
	done("completed")

	if got := testutil.ToFloat64(jobsRunning); got != 0 {
		t.Errorf("running after done = %v, want 0", got)
	}
	if got := testutil.ToFloat64(jobsTotal.WithLabelValues("separation", "completed")); got != before+1 {
		t.Errorf("jobs_total = %v, want %v", got, before+1)
	}
}

func TestClientGauge(t *testing.T) {
	ClientConnected()
	ClientConnected()
	ClientDisconnected()
	if got := testutil.ToFloat64(wsClients); got != 1 {
		t.Errorf("clients = %v, want 1", got)
	}
	ClientDisconnected()
}
