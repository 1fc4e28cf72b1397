// Package bridge assembles the car-to-broker bridge: it routes the car's
// MQTT topics into the field store and the status resolver, and exposes the
// actuators and DiLauncher export over HTTP.
package bridge

import (
	"context"

	"github.com/autopeer-io/carbridge/internal/bridge/control"
	"github.com/autopeer-io/carbridge/internal/bridge/dilauncher"
	"github.com/autopeer-io/carbridge/internal/bridge/feed"
	"github.com/autopeer-io/carbridge/internal/bridge/fields"
	"github.com/autopeer-io/carbridge/internal/bridge/payload"
	"github.com/autopeer-io/carbridge/internal/bridge/server"
	mqttserver "github.com/autopeer-io/carbridge/internal/bridge/server/mqtt"
	"github.com/autopeer-io/carbridge/internal/bridge/speed"
	"github.com/autopeer-io/carbridge/internal/bridge/status"
	"github.com/autopeer-io/carbridge/internal/pkg/metrics"
	"github.com/autopeer-io/carbridge/pkg/log"
	"github.com/autopeer-io/carbridge/pkg/mqtt/topic"
)

const topicKindStatus = "status"

// Bridge is the main application struct.
type Bridge struct {
	topics   *topic.Builder
	store    *fields.Store
	resolver *status.Resolver
	soc      *feed.SOCFeed
	speed    *feed.SpeedFeed
	panel    *control.Panel
	exporter dilauncher.Exporter
	logger   log.Logger

	serverManager *server.Manager
}

// Run starts the servers and blocks until ctx is done or one of them fails.
func (b *Bridge) Run(ctx context.Context) error {
	log.Info("Starting carbridge...", "status_topic", b.topics.Status(), "actuators", b.panel.Len())
	return b.serverManager.Start(ctx)
}

func (b *Bridge) Store() *fields.Store       { return b.store }
func (b *Bridge) Resolver() *status.Resolver { return b.resolver }
func (b *Bridge) Panel() *control.Panel      { return b.panel }

// wire connects the feeds and the resolver to the field store.
func (b *Bridge) wire() {
	b.resolver.Observe(func(c status.Change) {
		b.store.Set(payload.KeyCarStatus, c.To)
	})

	b.soc.Register(func(s feed.SOC) {
		b.store.Set(payload.KeyBatteryPercent, int64(s.Percent))
		b.store.Set(payload.KeyBatteryEnergyKWhNow, s.EnergyKWh)
	})

	b.speed.Register(func(s speed.Sample) {
		if v, ok := s.Value(); ok {
			b.store.Set(payload.KeySpeedKmh, int64(v))
		}
		if err := b.resolver.OnSpeedUpdate(context.Background(), s); err != nil {
			b.logger.Error(err, "Failed to resolve status from speed", "speed", s.String())
		}
	})
}

// Routes returns the MQTT subscriptions of the bridge.
func (b *Bridge) Routes() []mqttserver.Route {
	routes := []mqttserver.Route{
		{Topic: b.topics.Status(), Handler: b.HandleStatus},
		{Topic: b.topics.Speed(), Handler: b.speed.Handle},
		{Topic: b.topics.SOC(), Handler: b.soc.Handle},
	}
	for _, l := range b.panel.All() {
		routes = append(routes, mqttserver.Route{Topic: b.topics.Sub(l.Spec().Subtopic), Handler: l.Handle})
	}
	return routes
}

// HandleStatus parses a free-text status push, merges it into the store and
// hands its status tag to the resolver.
func (b *Bridge) HandleStatus(ctx context.Context, topic string, data []byte) {
	logger := log.FromContext(ctx)

	text, ok := feed.Decode(data)
	if !ok {
		metrics.MessagesTotal.WithLabelValues(topicKindStatus, "dropped").Inc()
		logger.Warn("Received unprocessable payload", "payload", data)
		return
	}

	rec := payload.Parse(text)
	tag, _ := rec.Status()
	// car_status in the store is the resolved status, not the raw tag.
	delete(rec, payload.KeyCarStatus)

	for key, v := range rec {
		if v != nil {
			metrics.ParsedFieldsTotal.WithLabelValues(key).Inc()
		}
	}
	changed := b.store.Apply(rec)

	if err := b.resolver.OnRecordUpdate(ctx, tag); err != nil {
		logger.Error(err, "Failed to resolve status from record", "tag", tag)
	}

	metrics.MessagesTotal.WithLabelValues(topicKindStatus, "parsed").Inc()
	logger.Debug("Processed status payload", "tag", tag, "fields", len(rec), "changed", changed)
}

// Export generates the DiLauncher automations for the status topic.
func (b *Bridge) Export(ctx context.Context) (string, error) {
	return dilauncher.Export(ctx, b.topics.Status(), b.exporter)
}
