package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*HttpOptions)(nil)

// HttpOptions configures the REST, metrics and stream listener.
type HttpOptions struct {
	Network string `json:"network" mapstructure:"network"`
	Addr    string `json:"addr" mapstructure:"addr"`

	// Timeout bounds reading a request and writing its response.
	// The WebSocket stream and /metrics are exempt.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// ShutdownTimeout bounds draining open requests and running exports on exit.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

func NewHttpOptions() *HttpOptions {
	return &HttpOptions{
		Network:         "tcp",
		Addr:            "0.0.0.0:8080",
		Timeout:         30 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Validate checks the listen address and the timeouts.
func (o *HttpOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if err := ValidateAddress(o.Addr); err != nil {
		errs = append(errs, err)
	}
	if o.Timeout < 0 {
		errs = append(errs, fmt.Errorf("--http.timeout must not be negative, got %s", o.Timeout))
	}
	if o.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("--http.shutdown-timeout must be positive, got %s", o.ShutdownTimeout))
	}
	return errs
}

func (o *HttpOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Network, "http.network", o.Network, "Network of the HTTP listener (tcp, tcp4, tcp6 or unix).")
	fs.StringVar(&o.Addr, "http.addr", o.Addr, "HTTP listen address.")
	fs.DurationVar(&o.Timeout, "http.timeout", o.Timeout, "Per-request timeout; 0 disables it. The stream is exempt.")
	fs.DurationVar(&o.ShutdownTimeout, "http.shutdown-timeout", o.ShutdownTimeout, "Time allowed for requests and exports to finish on shutdown.")
}
