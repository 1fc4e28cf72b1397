package app

import (
	"fmt"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/carbridge/cmd/carbridge/app/options"
	"github.com/autopeer-io/carbridge/pkg/app"
)

const (
	commandName = "carbridge"
	commandDesc = `carbridge connects a BYD car that pushes DiLink notifications over MQTT
to the rest of the house. It parses the free-text status pushes and the
numeric speed and SOC feeds into named fields, resolves the car status,
publishes climate and sunroof commands, and serves everything over HTTP.`
)

func NewApp() *app.App {
	opts := options.NewBridgeOptions()
	application := app.NewApp(
		commandName,
		"Run the BYD car MQTT bridge",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
		app.WithSubCommands(
			newParseCommand(),
			newDiLauncherCommand(opts),
		),
	)
	return application
}

func run(opts *options.BridgeOptions) app.RunFunc {
	return func() error {
		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		server, err := cfg.NewBridge()
		if err != nil {
			return fmt.Errorf("failed to create bridge: %w", err)
		}

		return server.Run(ctx)
	}
}
