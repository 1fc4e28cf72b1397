package fields

import (
	"reflect"
	"testing"
	"time"

	"github.com/autopeer-io/carbridge/internal/bridge/payload"
)

func TestApplyKeepsLastKnownValue(t *testing.T) {
	s := NewStore()

	changed := s.Apply(payload.Record{
		payload.KeyMileageKm:     12345.6,
		payload.KeyBatteryHealth: int64(100),
		payload.KeyCarStatus:     payload.StatusIdle,
	})
	if want := []string{payload.KeyBatteryHealth, payload.KeyCarStatus, payload.KeyMileageKm}; !reflect.DeepEqual(changed, want) {
		t.Errorf("changed = %v, want %v", changed, want)
	}

	// nil and absent keys never overwrite.
	changed = s.Apply(payload.Record{
		payload.KeyMileageKm: nil,
		payload.KeyCarStatus: payload.StatusIdle,
	})
	if len(changed) != 0 {
		t.Errorf("changed = %v, want none", changed)
	}

	if v, _ := s.Get(payload.KeyMileageKm); v != 12345.6 {
		t.Errorf("mileage = %v, want 12345.6", v)
	}
	if v, _ := s.Get(payload.KeyBatteryHealth); v != int64(100) {
		t.Errorf("battery_health = %v, want 100", v)
	}
	if _, ok := s.Get(payload.KeyFanSpeed); ok {
		t.Error("fan_speed known without a report")
	}
}

func TestObserveNotifiesOnChangeOnly(t *testing.T) {
	s := NewStore()

	var got []any
	var order []string
	s.Observe(payload.KeyFanSpeed, func(v any) {
		got = append(got, v)
		order = append(order, "a")
	})
	cancel := s.Observe(payload.KeyFanSpeed, func(any) { order = append(order, "b") })
	s.Observe(payload.KeyMileageKm, func(any) { t.Error("mileage observer called") })

	s.Apply(payload.Record{payload.KeyFanSpeed: int64(3)})
	s.Apply(payload.Record{payload.KeyFanSpeed: int64(3)})
	s.Apply(payload.Record{payload.KeyFanSpeed: nil})
	cancel()
	s.Apply(payload.Record{payload.KeyFanSpeed: int64(5)})

	if want := []any{int64(3), int64(5)}; !reflect.DeepEqual(got, want) {
		t.Errorf("values = %v, want %v", got, want)
	}
	if want := []string{"a", "b", "a"}; !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestTimestampEquality(t *testing.T) {
	s := NewStore()
	ts := time.Date(2024, 1, 5, 10, 0, 0, 0, payload.Location)

	s.Set(payload.KeyDetectionTime, ts)
	if s.Set(payload.KeyDetectionTime, ts.UTC()) {
		t.Error("same instant in another zone reported as a change")
	}
	if !s.Set(payload.KeyDetectionTime, ts.Add(time.Second)) {
		t.Error("new instant not reported as a change")
	}
}

func TestSubscribeAndSnapshot(t *testing.T) {
	s := NewStore()
	ch, cancel := s.Subscribe(4)
	defer cancel()

	s.Set(payload.KeySpeedKmh, 42)
	s.Set(payload.KeySpeedKmh, 42)

	u := <-ch
	if u.Key != payload.KeySpeedKmh || u.Value != 42 {
		t.Errorf("update = %+v", u)
	}
	select {
	case extra := <-ch:
		t.Errorf("unexpected update %+v", extra)
	default:
	}

	snap := s.Snapshot()
	snap[payload.KeySpeedKmh] = 0
	if v, _ := s.Get(payload.KeySpeedKmh); v != 42 {
		t.Error("Snapshot() is not a copy")
	}
	if keys := s.Keys(); len(keys) != 1 || keys[0] != payload.KeySpeedKmh {
		t.Errorf("Keys() = %v", keys)
	}
}

func TestObserverMayReadStore(t *testing.T) {
	s := NewStore()
	var seen any
	s.Observe(payload.KeyFanSpeed, func(any) { seen, _ = s.Get(payload.KeyFanSpeed) })

	s.Set(payload.KeyFanSpeed, int64(2))
	if seen != int64(2) {
		t.Errorf("observer read %v", seen)
	}
}

func TestCatalogCoversParserKeys(t *testing.T) {
	raw := "熄火提醒 补能提醒 充能时间：2024-01-05 12:30:00 检测时间：2024-01-05 12:30:00 总里程(km)：1 电量(%)：1 " +
		"电量(kwh)：1 电量剩余里程(km)：1 电池健康：1 近50KM电耗(kWh)：1 车外温度：1 空调风量：1 起始电量(%)：1 " +
		"结束电量(%)：1 充电量(%)：1 充电量(kWh)：1 充电里程(km)：1 各项胎压(kpa)：左前：1 右前：1 左后：1 右后：1 " +
		"轮胎温度(℃)：左前：1 右前：1 左后：1 右后：1 车窗状态：左前：1 右前：1 左后：1 右后：1 天窗：1"

	rec := payload.Parse(raw)
	if len(rec) != 29 {
		t.Fatalf("parsed %d keys, want 29: %v", len(rec), rec.Keys())
	}
	for _, key := range rec.Keys() {
		if _, ok := Lookup(key); !ok {
			t.Errorf("key %q missing from catalog", key)
		}
	}
	if d, _ := Lookup(payload.KeyCarStatus); d.Kind != KindEnum || len(d.Options) != 5 {
		t.Errorf("car_status descriptor = %+v", d)
	}
}
