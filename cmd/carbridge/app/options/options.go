package options

import (
	"strings"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/carbridge/internal/bridge"
	"github.com/autopeer-io/carbridge/pkg/app"
	"github.com/autopeer-io/carbridge/pkg/log"
	"github.com/autopeer-io/carbridge/pkg/options"
)

type BridgeOptions struct {
	MqttOptions    *options.MqttOptions    `json:"mqtt" mapstructure:"mqtt"`
	HttpOptions    *options.HttpOptions    `json:"http" mapstructure:"http"`
	S3Options      *options.S3Options      `json:"s3" mapstructure:"s3"`
	VehicleOptions *options.VehicleOptions `json:"vehicle" mapstructure:"vehicle"`
	Log            *log.Options            `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*BridgeOptions)(nil)

func NewBridgeOptions() *BridgeOptions {
	o := &BridgeOptions{
		MqttOptions:    options.NewMqttOptions(),
		HttpOptions:    options.NewHttpOptions(),
		S3Options:      options.NewS3Options(),
		VehicleOptions: options.NewVehicleOptions(),
		Log:            log.NewOptions(),
	}

	return o
}

func (o *BridgeOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.S3Options.AddFlags(fss.FlagSet("s3"))
	o.VehicleOptions.AddFlags(fss.FlagSet("vehicle"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *BridgeOptions) Complete() error {
	o.VehicleOptions.CarUniqueID = strings.TrimSpace(o.VehicleOptions.CarUniqueID)
	o.MqttOptions.CommandTopic = strings.TrimSpace(o.MqttOptions.CommandTopic)
	return nil
}

func (o *BridgeOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.S3Options.Validate()...)
	errs = append(errs, o.VehicleOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

// LogOptions lets the app initialize logging once options are resolved.
func (o *BridgeOptions) LogOptions() *log.Options {
	return o.Log
}

func (o *BridgeOptions) Config() (*bridge.Config, error) {
	return &bridge.Config{
		MqttOptions:    o.MqttOptions,
		HttpOptions:    o.HttpOptions,
		S3Options:      o.S3Options,
		VehicleOptions: o.VehicleOptions,
	}, nil
}
