package bridge

import (
	"fmt"

	"github.com/autopeer-io/carbridge/internal/bridge/control"
	"github.com/autopeer-io/carbridge/internal/bridge/dilauncher"
	"github.com/autopeer-io/carbridge/internal/bridge/feed"
	"github.com/autopeer-io/carbridge/internal/bridge/fields"
	"github.com/autopeer-io/carbridge/internal/bridge/notifier"
	"github.com/autopeer-io/carbridge/internal/bridge/server"
	httpserver "github.com/autopeer-io/carbridge/internal/bridge/server/http"
	mqttserver "github.com/autopeer-io/carbridge/internal/bridge/server/mqtt"
	"github.com/autopeer-io/carbridge/internal/bridge/status"
	"github.com/autopeer-io/carbridge/internal/pkg/metrics"
	"github.com/autopeer-io/carbridge/pkg/log"
	pkgmqtt "github.com/autopeer-io/carbridge/pkg/mqtt"
	"github.com/autopeer-io/carbridge/pkg/options"
)

type Config struct {
	MqttOptions    *options.MqttOptions
	HttpOptions    *options.HttpOptions
	S3Options      *options.S3Options
	VehicleOptions *options.VehicleOptions
}

// NewExporter returns the S3 exporter when S3 is enabled and the file
// exporter otherwise.
func (cfg *Config) NewExporter() (dilauncher.Exporter, error) {
	if cfg.S3Options.Enabled {
		return dilauncher.NewS3Exporter(cfg.S3Options)
	}
	return &dilauncher.FileExporter{Path: cfg.VehicleOptions.OutputPath}, nil
}

// newBridge builds the domain components around pub without any transport.
func (cfg *Config) newBridge(pub control.Publisher, exporter dilauncher.Exporter) *Bridge {
	topics := cfg.MqttOptions.Topics()
	target := control.Target{
		CommandTopic: cfg.MqttOptions.CommandTopic,
		DeviceName:   cfg.VehicleOptions.DeviceName(),
		CarUniqueID:  cfg.VehicleOptions.CarUniqueID,
	}

	b := &Bridge{
		topics:   topics,
		store:    fields.NewStore(),
		resolver: status.NewResolver(),
		soc:      feed.NewSOCFeed(cfg.VehicleOptions.BatteryCapacityKWh),
		speed:    feed.NewSpeedFeed(cfg.VehicleOptions.MaxSpeedKmh),
		panel: control.NewPanel(target, pub,
			control.Builtin(cfg.VehicleOptions.EnableDriverVent, cfg.VehicleOptions.EnablePassengerVent)...),
		exporter: exporter,
		logger:   log.WithName("bridge"),
	}
	b.wire()
	return b
}

// NewBridge builds the bridge with its MQTT and HTTP servers.
func (cfg *Config) NewBridge() (*Bridge, error) {
	exporter, err := cfg.NewExporter()
	if err != nil {
		return nil, fmt.Errorf("failed to init automation exporter: %w", err)
	}

	var mqttServer *mqttserver.Server
	clientCfg := cfg.MqttOptions.ToClientConfig()
	clientCfg.OnConnectionChange = func(connected bool) {
		metrics.SetConnected(connected)
		mqttServer.OnConnectionChange(connected)
	}

	mqttClient, err := pkgmqtt.NewClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init mqtt client: %w", err)
	}

	b := cfg.newBridge(mqttClient, exporter)

	availability := notifier.NewAvailability(mqttClient, clientCfg.WillTopic)
	mqttServer = mqttserver.NewServer(mqttClient, availability, b.Routes()...)

	httpServer := httpserver.NewServer(cfg.HttpOptions, httpserver.Deps{
		Fields:     b.store,
		Status:     b.resolver,
		Actuators:  b.panel,
		Connection: mqttClient,
		Export:     b.Export,
	})

	b.serverManager = server.NewManager(mqttServer, httpServer)
	return b, nil
}
