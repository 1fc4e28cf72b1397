package status

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/autopeer-io/carbridge/internal/bridge/payload"
	"github.com/autopeer-io/carbridge/internal/bridge/speed"
	"github.com/autopeer-io/carbridge/internal/pkg/metrics"
)

// step is either a record tag or a speed sample.
type step struct {
	tag   payload.Status
	speed *speed.Sample
}

func rec(s payload.Status) step { return step{tag: s} }

func spd(s speed.Sample) step { return step{speed: &s} }

func run(t *testing.T, r *Resolver, steps ...step) {
	t.Helper()
	ctx := context.Background()
	for _, s := range steps {
		var err error
		if s.speed != nil {
			err = r.OnSpeedUpdate(ctx, *s.speed)
		} else {
			err = r.OnRecordUpdate(ctx, s.tag)
		}
		if err != nil {
			t.Fatalf("update %+v: %v", s, err)
		}
	}
}

func TestResolverCascade(t *testing.T) {
	tests := []struct {
		name  string
		steps []step
		want  payload.Status
	}{
		{"initial", nil, payload.StatusUnknown},
		{"powered off is sticky", []step{rec(payload.StatusPoweredOff), spd(speed.Known(50))}, payload.StatusPoweredOff},
		{"started then zero", []step{rec(payload.StatusStarted), spd(speed.Known(0))}, payload.StatusIdle},
		{"started then moving", []step{rec(payload.StatusStarted), spd(speed.Known(45))}, payload.StatusDriving},
		{"started then unavailable", []step{rec(payload.StatusStarted), spd(speed.Unavailable())}, payload.StatusStarted},
		{"speed then started", []step{spd(speed.Known(30)), rec(payload.StatusStarted)}, payload.StatusDriving},
		{"started then speed", []step{rec(payload.StatusStarted), spd(speed.Known(30))}, payload.StatusDriving},
		{"new record releases power off", []step{rec(payload.StatusPoweredOff), spd(speed.Known(20)), rec(payload.StatusStarted)}, payload.StatusDriving},
		{"idle tag without speed retains unknown", []step{rec(payload.StatusIdle), spd(speed.Unavailable())}, payload.StatusUnknown},
		{"unknown tag retains held status", []step{spd(speed.Known(10)), spd(speed.Unavailable()), rec(payload.StatusUnknown)}, payload.StatusDriving},
		{"negative speed is unavailable", []step{rec(payload.StatusStarted), spd(speed.Known(-5))}, payload.StatusStarted},
		{"negative speed retains driving", []step{spd(speed.Known(60)), spd(speed.Known(-1))}, payload.StatusDriving},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver()
			run(t, r, tt.steps...)
			if got := r.Current(); got != tt.want {
				t.Errorf("Current() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolverRepeatedUnavailable(t *testing.T) {
	r := NewResolver()
	var changes []Change
	r.Observe(func(c Change) { changes = append(changes, c) })

	run(t, r, rec(payload.StatusStarted), spd(speed.Unavailable()))
	n := len(changes)
	run(t, r, spd(speed.Unavailable()), spd(speed.Unavailable()), spd(speed.Unavailable()))

	if r.Current() != payload.StatusStarted {
		t.Errorf("Current() = %q, want Started", r.Current())
	}
	if len(changes) != n {
		t.Errorf("repeated unavailable produced %d extra notifications", len(changes)-n)
	}
}

func TestResolverNotifiesOncePerChange(t *testing.T) {
	start := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	clk := clocktesting.NewFakePassiveClock(start)
	r := NewResolver(WithClock(clk))

	var order []string
	var changes []Change
	r.Observe(func(c Change) {
		order = append(order, "first")
		changes = append(changes, c)
	})
	r.Observe(func(Change) { order = append(order, "second") })

	run(t, r, rec(payload.StatusStarted), rec(payload.StatusStarted))
	clk.SetTime(start.Add(time.Minute))
	run(t, r, spd(speed.Known(40)), spd(speed.Known(80)), spd(speed.Known(0)))

	want := []Change{
		{From: payload.StatusUnknown, To: payload.StatusStarted, At: start},
		{From: payload.StatusStarted, To: payload.StatusDriving, At: start.Add(time.Minute)},
		{From: payload.StatusDriving, To: payload.StatusIdle, At: start.Add(time.Minute)},
	}
	if len(changes) != len(want) {
		t.Fatalf("changes = %+v, want %+v", changes, want)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("change[%d] = %+v, want %+v", i, changes[i], want[i])
		}
	}
	if len(order) != 6 || order[0] != "first" || order[1] != "second" {
		t.Errorf("observer order = %v", order)
	}
}

func TestResolverObserverCanRead(t *testing.T) {
	r := NewResolver()
	var seen Snapshot
	r.Observe(func(Change) { seen = r.Snapshot() })

	run(t, r, spd(speed.Known(12)))

	if seen.Status != payload.StatusDriving || seen.Speed == nil || *seen.Speed != 12 {
		t.Errorf("snapshot in observer = %+v", seen)
	}
}

func TestResolverCancelObserver(t *testing.T) {
	r := NewResolver()
	calls := 0
	cancel := r.Observe(func(Change) { calls++ })

	run(t, r, rec(payload.StatusStarted))
	cancel()
	run(t, r, rec(payload.StatusPoweredOff))

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestResolverRejectsInvalidTag(t *testing.T) {
	r := NewResolver()
	if err := r.OnRecordUpdate(context.Background(), payload.Status("Flying")); err == nil {
		t.Error("OnRecordUpdate() accepted an invalid tag")
	}
	if r.Current() != payload.StatusUnknown {
		t.Errorf("Current() = %q", r.Current())
	}
}

func TestResolverTransitionMetric(t *testing.T) {
	counter := metrics.StatusTransitionsTotal.WithLabelValues("Powered Off", "Started")
	before := testutil.ToFloat64(counter)

	r := NewResolver()
	run(t, r, rec(payload.StatusPoweredOff), rec(payload.StatusStarted))

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("transitions Powered Off->Started = %v, want 1", got)
	}
}
