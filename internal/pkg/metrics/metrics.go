// Package metrics defines the Prometheus collectors of the bridge.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry is the dedicated registry served on /metrics.
var Registry = prometheus.NewRegistry()

var (
	// MessagesTotal counts inbound MQTT messages.
	// topic_kind: status/speed/soc/actuator, result: parsed/dropped/rejected
	MessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carbridge_messages_total",
			Help: "Total number of MQTT messages received, by topic kind and result.",
		},
		[]string{"topic_kind", "result"},
	)

	// ParsedFieldsTotal counts record keys produced by the payload parser.
	ParsedFieldsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carbridge_parsed_fields_total",
			Help: "Total number of fields extracted from status payloads.",
		},
		[]string{"key"},
	)

	StatusTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carbridge_status_transitions_total",
			Help: "Total number of car status transitions.",
		},
		[]string{"from", "to"},
	)

	SamplesRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carbridge_samples_rejected_total",
			Help: "Total number of feed samples rejected, by feed and reason.",
		},
		[]string{"feed", "reason"},
	)

	// CommandsSentTotal counts actuator commands. status: success/failed
	CommandsSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carbridge_commands_sent_total",
			Help: "Total number of actuator commands published.",
		},
		[]string{"actuator", "status"},
	)

	CommandLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "carbridge_command_latency_seconds",
			Help:    "Latency of publishing actuator commands to the broker.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"actuator"},
	)

	// MQTTConnected is 1 while the broker connection is up.
	MQTTConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "carbridge_mqtt_connected",
			Help: "The connectivity status to the MQTT broker (1=Connected, 0=Disconnected).",
		},
	)
)

func init() {
	Registry.MustRegister(
		MessagesTotal,
		ParsedFieldsTotal,
		StatusTransitionsTotal,
		SamplesRejectedTotal,
		CommandsSentTotal,
		CommandLatency,
		MQTTConnected,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// SetConnected records the broker connection state.
func SetConnected(connected bool) {
	if connected {
		MQTTConnected.Set(1)
		return
	}
	MQTTConnected.Set(0)
}
