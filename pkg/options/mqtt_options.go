package options

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/autopeer-io/carbridge/pkg/mqtt"
	"github.com/autopeer-io/carbridge/pkg/mqtt/topic"
)

var _ IOptions = (*MqttOptions)(nil)

// AvailabilitySubtopic is published retained under the subscribe topic:
// "true" while the bridge is connected, "false" as the will message.
const AvailabilitySubtopic = "bridge/online"

// MqttOptions contains configuration for MQTT client and topics.
type MqttOptions struct {
	Broker   string `json:"broker" mapstructure:"broker"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	ClientID string `json:"client-id" mapstructure:"client-id"`

	// Client behavior
	KeepAlive      time.Duration `json:"keep-alive" mapstructure:"keep-alive"`
	ConnectTimeout time.Duration `json:"connect-timeout" mapstructure:"connect-timeout"`
	SessionExpiry  uint32        `json:"session-expiry" mapstructure:"session-expiry"`
	CleanStart     bool          `json:"clean-start" mapstructure:"clean-start"`

	// InsecureSkipVerify controls whether a client verifies the server's certificate chain and host name.
	// This should be used only for testing.
	InsecureSkipVerify bool `json:"insecure-skip-verify" mapstructure:"insecure-skip-verify"`

	// SubscribeTopic is the base status topic pushed by the car; dedicated
	// feeds live under it ({SubscribeTopic}/speed, {SubscribeTopic}/SOC, ...).
	SubscribeTopic string `json:"subscribe-topic" mapstructure:"subscribe-topic"`

	// CommandTopic receives actuator commands. Empty disables the actuators.
	CommandTopic string `json:"command-topic" mapstructure:"command-topic"`

	// Debug logs paho protocol traffic; needs --log.level=debug to show.
	Debug bool `json:"debug" mapstructure:"debug"`
}

// NewMqttOptions creates a new MqttOptions with default values.
func NewMqttOptions() *MqttOptions {
	return &MqttOptions{
		Broker:             "tcp://localhost:1883",
		ClientID:           "carbridge",
		KeepAlive:          60 * time.Second,
		ConnectTimeout:     5 * time.Second,
		SessionExpiry:      60,
		CleanStart:         true,
		InsecureSkipVerify: false,
		SubscribeTopic:     "/dolphinc",
		CommandTopic:       "/dolphinc/command",
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *MqttOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if u, err := url.Parse(o.Broker); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, fmt.Errorf("--mqtt.broker %q must be of the form scheme://host:port", o.Broker))
	}
	if o.KeepAlive < 0 || o.KeepAlive.Seconds() > math.MaxUint16 {
		errors = append(errors, fmt.Errorf("--mqtt.keep-alive %s is out of range", o.KeepAlive))
	}
	if strings.Trim(o.SubscribeTopic, "/") == "" {
		errors = append(errors, fmt.Errorf("--mqtt.subscribe-topic must not be empty"))
	} else if strings.ContainsAny(o.SubscribeTopic, topic.Wildcard+topic.MultiWildcard) {
		errors = append(errors, fmt.Errorf("--mqtt.subscribe-topic %q must not contain wildcards", o.SubscribeTopic))
	}
	if strings.ContainsAny(o.CommandTopic, topic.Wildcard+topic.MultiWildcard) {
		errors = append(errors, fmt.Errorf("--mqtt.command-topic %q must not contain wildcards", o.CommandTopic))
	}

	return errors
}

// AddFlags adds flags for MqttOptions to the specified FlagSet.
func (o *MqttOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Broker, "mqtt.broker", o.Broker, "The URL of the MQTT broker.")
	fs.StringVar(&o.Username, "mqtt.username", o.Username, "The username for MQTT authentication.")
	fs.StringVar(&o.Password, "mqtt.password", o.Password, "The password for MQTT authentication.")
	fs.StringVar(&o.ClientID, "mqtt.client-id", o.ClientID, "Client ID presented to the broker.")

	fs.DurationVar(&o.KeepAlive, "mqtt.keep-alive", o.KeepAlive, "MQTT Keep Alive interval.")
	fs.DurationVar(&o.ConnectTimeout, "mqtt.connect-timeout", o.ConnectTimeout, "Timeout for establishing MQTT connection.")
	fs.Uint32Var(&o.SessionExpiry, "mqtt.session-expiry", o.SessionExpiry, "MQTT Session Expiry Interval in seconds.")
	fs.BoolVar(&o.CleanStart, "mqtt.clean-start", o.CleanStart, "Start a clean MQTT session on the first connection.")
	fs.BoolVar(&o.InsecureSkipVerify, "mqtt.insecure-skip-verify", o.InsecureSkipVerify, "If true, skips the TLS certificate verification.")

	// Topics
	fs.StringVar(&o.SubscribeTopic, "mqtt.subscribe-topic", o.SubscribeTopic, "Base status topic published by the car.")
	fs.StringVar(&o.CommandTopic, "mqtt.command-topic", o.CommandTopic, "Topic for actuator commands. Empty disables actuators.")

	fs.BoolVar(&o.Debug, "mqtt.debug", o.Debug, "Log MQTT protocol traffic at debug level.")
}

// Topics returns the topic builder for the configured subscribe topic.
func (o *MqttOptions) Topics() *topic.Builder {
	return topic.NewBuilder(o.SubscribeTopic)
}

func (o *MqttOptions) ToClientConfig() *mqtt.ClientConfig {
	return &mqtt.ClientConfig{
		BrokerURL:          o.Broker,
		Username:           o.Username,
		Password:           o.Password,
		ClientID:           o.ClientID,
		KeepAlive:          uint16(o.KeepAlive.Seconds()),
		SessionExpiry:      o.SessionExpiry,
		ConnectTimeout:     o.ConnectTimeout,
		CleanStart:         o.CleanStart,
		InsecureSkipVerify: o.InsecureSkipVerify,
		WillTopic:          o.Topics().Sub(AvailabilitySubtopic),
		WillPayload:        []byte("false"),
		WillQoS:            mqtt.AtLeastOnce,
		WillRetain:         true,
		Debug:              o.Debug,
	}
}
