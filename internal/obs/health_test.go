package obs

import (
	"context"
	"testing"
)

type fixedSizeTarget int

func (f fixedSizeTarget) Size() int { return int(f) }

func TestHealthCheckerHealthyWithNoExtras(t *testing.T) {
	hc := NewHealthChecker(fixedSizeTarget(10))
	status, err := hc.Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if status.Overall != HealthHealthy {
		t.Fatalf("Overall = %v, want HealthHealthy", status.Overall)
	}
	if !status.Checks["graph_reachable"].Healthy {
		t.Fatal("graph_reachable check should report healthy")
	}
}

func TestHealthCheckerDegradesOnFailingExtra(t *testing.T) {
	hc := NewHealthChecker(fixedSizeTarget(0))
	hc.Register("oracle_reachable", func(ctx context.Context) CheckResult {
		return CheckResult{Healthy: false, Message: "backend unreachable"}
	})

	status, err := hc.Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if status.Overall != HealthDegraded {
		t.Fatalf("Overall = %v, want HealthDegraded", status.Overall)
	}
	if status.Checks["oracle_reachable"].Healthy {
		t.Fatal("oracle_reachable check should report unhealthy")
	}
}

func TestHealthCheckerRespectsContextCancellation(t *testing.T) {
	hc := NewHealthChecker(fixedSizeTarget(0))
	hc.Register("slow", func(ctx context.Context) CheckResult {
		return CheckResult{Healthy: true}
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := hc.Check(ctx); err == nil {
		t.Fatal("expected Check to report the cancellation")
	}
}
