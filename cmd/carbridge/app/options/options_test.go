package options

import (
	"strings"
	"testing"
)

func TestBridgeOptionsValidate(t *testing.T) {
	o := NewBridgeOptions()
	if err := o.Validate(); err != nil {
		t.Fatalf("defaults are invalid: %v", err)
	}

	o.MqttOptions.SubscribeTopic = "/dolphinc/#"
	o.HttpOptions.Addr = "localhost"
	o.Log.Format = "xml"
	err := o.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want aggregated errors")
	}
	for _, want := range []string{"subscribe-topic", "localhost", "log.format"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q lacks %q", err, want)
		}
	}
}

func TestBridgeOptionsComplete(t *testing.T) {
	o := NewBridgeOptions()
	o.VehicleOptions.CarUniqueID = " 1734645381137\n"
	if err := o.Complete(); err != nil {
		t.Fatal(err)
	}
	if o.VehicleOptions.CarUniqueID != "1734645381137" {
		t.Errorf("CarUniqueID = %q", o.VehicleOptions.CarUniqueID)
	}

	cfg, err := o.Config()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.VehicleOptions != o.VehicleOptions || cfg.MqttOptions != o.MqttOptions {
		t.Error("Config() does not share the option structs")
	}
}

func TestFlagSections(t *testing.T) {
	fss := NewBridgeOptions().Flags()
	for _, name := range []string{"mqtt", "http", "s3", "vehicle", "log"} {
		if _, ok := fss.FlagSets[name]; !ok {
			t.Errorf("missing flag section %q", name)
		}
	}
	if fss.FlagSet("vehicle").Lookup("vehicle.car-unique-id") == nil {
		t.Error("vehicle.car-unique-id flag missing")
	}
}
