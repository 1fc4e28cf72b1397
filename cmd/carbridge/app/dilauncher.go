package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/autopeer-io/carbridge/cmd/carbridge/app/options"
	"github.com/autopeer-io/carbridge/internal/bridge/dilauncher"
)

func newDiLauncherCommand(opts *options.BridgeOptions) *cobra.Command {
	var (
		output string
		toS3   bool
	)

	cmd := &cobra.Command{
		Use:   "dilauncher",
		Short: "Generate the DiLauncher automations for the configured status topic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exporter, err := newExporter(opts, output, toS3)
			if err != nil {
				return err
			}

			location, err := dilauncher.Export(context.Background(), opts.MqttOptions.SubscribeTopic, exporter)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), location)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the automations to this path (default vehicle.output-path).")
	cmd.Flags().BoolVar(&toS3, "s3", false, "Upload the automations to the configured S3 bucket.")
	cmd.MarkFlagsMutuallyExclusive("output", "s3")
	return cmd
}

func newExporter(opts *options.BridgeOptions, output string, toS3 bool) (dilauncher.Exporter, error) {
	if toS3 {
		opts.S3Options.Enabled = true
		if err := utilerrors.NewAggregate(opts.S3Options.Validate()); err != nil {
			return nil, err
		}
		return dilauncher.NewS3Exporter(opts.S3Options)
	}

	if output == "" {
		output = opts.VehicleOptions.OutputPath
	}
	return &dilauncher.FileExporter{Path: output}, nil
}
