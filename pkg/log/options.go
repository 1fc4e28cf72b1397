// Copyright 2025 The Autopeer Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"fmt"

	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options configures the process-wide logger.
type Options struct {
	// Name prefixes every logger name, e.g. "carbridge.parser".
	Name string `json:"name,omitempty" mapstructure:"name"`

	Level  string `json:"level,omitempty" mapstructure:"level"`
	Format string `json:"format,omitempty" mapstructure:"format"`

	// EnableColor colors the level in console output.
	EnableColor bool `json:"enable-color,omitempty" mapstructure:"enable-color"`

	DisableCaller bool `json:"disable-caller,omitempty" mapstructure:"disable-caller"`

	// PayloadPreview caps how many bytes of a logged MQTT payload are kept.
	// Zero logs payloads in full.
	PayloadPreview int `json:"payload-preview,omitempty" mapstructure:"payload-preview"`

	OutputPaths []string `json:"output-paths,omitempty" mapstructure:"output-paths"`
}

// NewOptions returns the defaults: info level, colored console output on stdout.
func NewOptions() *Options {
	return &Options{
		Level:          "info",
		Format:         FormatConsole,
		EnableColor:    true,
		PayloadPreview: 256,
		OutputPaths:    []string{"stdout"},
	}
}

// Validate validates all the required options.
func (o *Options) Validate() []error {
	var errs []error

	if o.Format != FormatConsole && o.Format != FormatJSON {
		errs = append(errs, fmt.Errorf("--log.format must be %q or %q, got %q", FormatConsole, FormatJSON, o.Format))
	}

	if _, err := zapcore.ParseLevel(o.Level); err != nil {
		errs = append(errs, fmt.Errorf("--log.level: %w", err))
	}

	if o.PayloadPreview < 0 {
		errs = append(errs, fmt.Errorf("--log.payload-preview must not be negative, got %d", o.PayloadPreview))
	}

	return errs
}

// AddFlags binds command-line flags to the Options fields.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Name, "log.name", o.Name, "Name prefixed to every component logger.")
	fs.StringVar(&o.Level, "log.level", o.Level, "Minimum level to output: debug, info, warn or error.")
	fs.StringVar(&o.Format, "log.format", o.Format, "Output format: console or json.")
	fs.BoolVar(&o.EnableColor, "log.enable-color", o.EnableColor, "Color the level in console output.")
	fs.BoolVar(&o.DisableCaller, "log.disable-caller", o.DisableCaller, "Omit the file:line caller field.")
	fs.IntVar(&o.PayloadPreview, "log.payload-preview", o.PayloadPreview,
		"Bytes of an MQTT payload kept in log lines; 0 keeps the whole payload.")
	fs.StringSliceVar(&o.OutputPaths, "log.output-paths", o.OutputPaths, "Log sinks, e.g. stdout or /var/log/carbridge.log.")
}
