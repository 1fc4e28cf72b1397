package feed

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/autopeer-io/carbridge/internal/bridge/speed"
	"github.com/autopeer-io/carbridge/internal/pkg/metrics"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		in   []byte
		want string
		ok   bool
	}{
		{[]byte(" 90.0\n"), "90.0", true},
		{[]byte("熄火提醒"), "熄火提醒", true},
		{[]byte{0xff, 0xfe}, "", false},
		{nil, "", true},
	}
	for _, tt := range tests {
		got, ok := Decode(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Decode(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestEnergyKWh(t *testing.T) {
	tests := []struct {
		capacity float64
		pct      int
		want     float64
	}{
		{60.48, 90, 54.43},
		{60.48, 100, 60.48},
		{60.48, 50, 30.24},
		{60.48, 0, 0},
		{44.9, 33, 14.82},
	}
	for _, tt := range tests {
		if got := EnergyKWh(tt.capacity, tt.pct); got != tt.want {
			t.Errorf("EnergyKWh(%v, %d) = %v, want %v", tt.capacity, tt.pct, got, tt.want)
		}
	}
}

func TestSOCFeed(t *testing.T) {
	f := NewSOCFeed(60.48)
	ctx := context.Background()

	var got []SOC
	f.Register(func(s SOC) { got = append(got, s) })

	rejected := testutil.ToFloat64(metrics.SamplesRejectedTotal.WithLabelValues(feedSOC, ReasonOutOfRange))

	f.Handle(ctx, "/dolphinc/SOC", []byte("90.0"))
	f.Handle(ctx, "/dolphinc/SOC", []byte("101"))
	f.Handle(ctx, "/dolphinc/SOC", []byte("-1"))
	f.Handle(ctx, "/dolphinc/SOC", []byte("abc"))
	f.Handle(ctx, "/dolphinc/SOC", []byte{0xff})

	if len(got) != 1 {
		t.Fatalf("accepted %d readings, want 1: %+v", len(got), got)
	}
	if want := (SOC{Percent: 90, EnergyKWh: 54.43}); got[0] != want {
		t.Errorf("reading = %+v, want %+v", got[0], want)
	}
	if cur, ok := f.Current(); !ok || cur.Percent != 90 {
		t.Errorf("Current() = %+v, %v; rejected samples must keep the previous value", cur, ok)
	}
	if d := testutil.ToFloat64(metrics.SamplesRejectedTotal.WithLabelValues(feedSOC, ReasonOutOfRange)) - rejected; d != 2 {
		t.Errorf("out_of_range rejections = %v, want 2", d)
	}
}

func TestSOCFeedNoReading(t *testing.T) {
	f := NewSOCFeed(60.48)
	if _, ok := f.Current(); ok {
		t.Error("Current() reported a reading before any sample")
	}
}

func TestSpeedFeed(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		accepted bool
		want     speed.Sample
	}{
		{"integer", "45", true, speed.Known(45)},
		{"decimal truncates", "45.9", true, speed.Known(45)},
		{"zero", "0", true, speed.Known(0)},
		{"unknown", "unknown", true, speed.Unavailable()},
		{"unavailable upper case", " UNAVAILABLE ", true, speed.Unavailable()},
		{"negative", "-3", false, speed.Sample{}},
		{"above max", "301", false, speed.Sample{}},
		{"garbage", "fast", false, speed.Sample{}},
		{"nan", "NaN", false, speed.Sample{}},
		{"empty", "", false, speed.Sample{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewSpeedFeed(300)
			var got []speed.Sample
			f.Register(func(s speed.Sample) { got = append(got, s) })

			f.Handle(context.Background(), "/dolphinc/speed", []byte(tt.payload))

			if !tt.accepted {
				if len(got) != 0 {
					t.Errorf("accepted %v", got)
				}
				return
			}
			if len(got) != 1 || got[0] != tt.want {
				t.Errorf("samples = %v, want [%v]", got, tt.want)
			}
			if f.Current() != tt.want {
				t.Errorf("Current() = %v, want %v", f.Current(), tt.want)
			}
		})
	}
}
