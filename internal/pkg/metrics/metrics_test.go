package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSetConnected(t *testing.T) {
	SetConnected(true)
	if got := testutil.ToFloat64(MQTTConnected); got != 1 {
		t.Errorf("MQTTConnected = %v, want 1", got)
	}
	SetConnected(false)
	if got := testutil.ToFloat64(MQTTConnected); got != 0 {
		t.Errorf("MQTTConnected = %v, want 0", got)
	}
}

func TestRegistryGathers(t *testing.T) {
	MessagesTotal.WithLabelValues("status", "parsed").Inc()
	n, err := testutil.GatherAndCount(Registry, "carbridge_messages_total")
	if err != nil {
		t.Fatal(err)
	}
	if n == 0 {
		t.Error("carbridge_messages_total not gathered")
	}
}
