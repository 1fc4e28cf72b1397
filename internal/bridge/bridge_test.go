package bridge

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/autopeer-io/carbridge/internal/bridge/control"
	"github.com/autopeer-io/carbridge/internal/bridge/dilauncher"
	"github.com/autopeer-io/carbridge/internal/bridge/payload"
	"github.com/autopeer-io/carbridge/pkg/mqtt"
	"github.com/autopeer-io/carbridge/pkg/options"
)

type fakePublisher struct {
	mu       sync.Mutex
	payloads []string
}

func (f *fakePublisher) Publish(_ context.Context, _ string, _ int, _ bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, string(payload))
	return nil
}

func testConfig(carID string) *Config {
	vehicle := options.NewVehicleOptions()
	vehicle.CarUniqueID = carID
	return &Config{
		MqttOptions:    options.NewMqttOptions(),
		HttpOptions:    options.NewHttpOptions(),
		S3Options:      options.NewS3Options(),
		VehicleOptions: vehicle,
	}
}

func newTestBridge(t *testing.T) *Bridge {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dilauncher_automations.json")
	return testConfig("1734645381137").newBridge(&fakePublisher{}, &dilauncher.FileExporter{Path: path})
}

func handlerFor(t *testing.T, b *Bridge, topic string) mqtt.MessageHandler {
	t.Helper()
	for _, r := range b.Routes() {
		if r.Topic == topic {
			return r.Handler
		}
	}
	t.Fatalf("no route for %s", topic)
	return nil
}

func deliver(t *testing.T, b *Bridge, topic, data string) {
	t.Helper()
	handlerFor(t, b, topic)(context.Background(), topic, []byte(data))
}

func TestRoutes(t *testing.T) {
	b := newTestBridge(t)

	want := []string{
		"/dolphinc", "/dolphinc/speed", "/dolphinc/SOC",
		"/dolphinc/fanspeed", "/dolphinc/drivervent", "/dolphinc/passengervent",
		"/dolphinc/actemp", "/dolphinc/sunroof/position",
	}
	routes := b.Routes()
	if len(routes) != len(want) {
		t.Fatalf("got %d routes, want %d", len(routes), len(want))
	}
	for i, r := range routes {
		if r.Topic != want[i] {
			t.Errorf("route[%d] = %q, want %q", i, r.Topic, want[i])
		}
	}

	disabled := testConfig("").newBridge(&fakePublisher{}, nil)
	if n := len(disabled.Routes()); n != 3 {
		t.Errorf("without car id got %d routes, want 3", n)
	}
}

func TestStatusPushFillsStore(t *testing.T) {
	b := newTestBridge(t)

	deliver(t, b, "/dolphinc", "启动提醒\n检测时间：2024-03-01 08:15:30\n电量(%)：85\n车外温度：21")

	if got := b.Resolver().Current(); got != payload.StatusStarted {
		t.Errorf("status = %q, want Started", got)
	}
	if v, _ := b.Store().Get(payload.KeyCarStatus); v != payload.StatusStarted {
		t.Errorf("store car_status = %v", v)
	}
	if v, _ := b.Store().Get(payload.KeyBatteryPercentReport); v != int64(85) {
		t.Errorf("battery_percent_report = %v", v)
	}

	// A later push without the field keeps the last known value.
	deliver(t, b, "/dolphinc", "车外温度：22")
	if v, _ := b.Store().Get(payload.KeyBatteryPercentReport); v != int64(85) {
		t.Errorf("battery_percent_report after partial push = %v", v)
	}
	if v, _ := b.Store().Get(payload.KeyExternalTemperatureCelsius); v != int64(22) {
		t.Errorf("external temperature = %v", v)
	}
}

func TestInvalidUTF8IsDropped(t *testing.T) {
	b := newTestBridge(t)
	deliver(t, b, "/dolphinc", "\xff\xfe")

	if got := len(b.Store().Keys()); got != 0 {
		t.Errorf("store has %d keys after an undecodable push", got)
	}
	if got := b.Resolver().Current(); got != payload.StatusUnknown {
		t.Errorf("status = %q, want Unknown", got)
	}
}

func TestSpeedAndPowerOff(t *testing.T) {
	b := newTestBridge(t)

	steps := []struct {
		topic string
		data  string
		want  payload.Status
	}{
		{"/dolphinc", "启动提醒", payload.StatusStarted},
		{"/dolphinc/speed", "45.9", payload.StatusDriving},
		{"/dolphinc/speed", "0", payload.StatusIdle},
		{"/dolphinc/speed", "unavailable", payload.StatusStarted},
		{"/dolphinc", "车外温度：20", payload.StatusStarted},
		{"/dolphinc/speed", "30", payload.StatusDriving},
		{"/dolphinc", "熄火提醒", payload.StatusPoweredOff},
		{"/dolphinc/speed", "12", payload.StatusPoweredOff},
	}
	for i, s := range steps {
		deliver(t, b, s.topic, s.data)
		if got := b.Resolver().Current(); got != s.want {
			t.Fatalf("step %d (%s %q): status = %q, want %q", i, s.topic, s.data, got, s.want)
		}
	}

	if v, _ := b.Store().Get(payload.KeySpeedKmh); v != int64(12) {
		t.Errorf("speed_kmh = %v, want 12", v)
	}
	if v, _ := b.Store().Get(payload.KeyCarStatus); v != payload.StatusPoweredOff {
		t.Errorf("store car_status = %v", v)
	}
}

func TestSOCFeedFillsStore(t *testing.T) {
	b := newTestBridge(t)
	deliver(t, b, "/dolphinc/SOC", "90")

	if v, _ := b.Store().Get(payload.KeyBatteryPercent); v != int64(90) {
		t.Errorf("battery_percent = %v", v)
	}
	if v, _ := b.Store().Get(payload.KeyBatteryEnergyKWhNow); v != 54.43 {
		t.Errorf("battery energy = %v, want 54.43", v)
	}

	deliver(t, b, "/dolphinc/SOC", "150")
	if v, _ := b.Store().Get(payload.KeyBatteryPercent); v != int64(90) {
		t.Errorf("battery_percent after out-of-range sample = %v", v)
	}
}

func TestActuatorStatusTopics(t *testing.T) {
	b := newTestBridge(t)
	deliver(t, b, "/dolphinc/fanspeed", "5")
	deliver(t, b, "/dolphinc/actemp", "23.6")

	fan, err := b.Panel().Get(control.NameACFan)
	if err != nil {
		t.Fatal(err)
	}
	if level, ok := fan.Level(); !ok || level != 5 {
		t.Errorf("fan level = %d, %v", level, ok)
	}
	temp, _ := b.Panel().Get(control.NameACTemperature)
	if level, _ := temp.Level(); level != 24 {
		t.Errorf("temperature = %d, want 24", level)
	}
}

func TestExport(t *testing.T) {
	b := newTestBridge(t)

	location, err := b.Export(context.Background())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	data, err := os.ReadFile(location)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "MQTT:/dolphinc/actemp+17") {
		t.Error("exported file does not use the status topic")
	}
}

func TestNewExporter(t *testing.T) {
	cfg := testConfig("1")
	exp, err := cfg.NewExporter()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := exp.(*dilauncher.FileExporter); !ok {
		t.Errorf("NewExporter() = %T, want file exporter", exp)
	}

	cfg.S3Options.Enabled = true
	exp, err = cfg.NewExporter()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := exp.(*dilauncher.S3Exporter); !ok {
		t.Errorf("NewExporter() = %T, want S3 exporter", exp)
	}
}
