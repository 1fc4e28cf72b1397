package mqtt

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/eclipse/paho.golang/paho"
)

// ClientConfig holds the configuration for creating a new MQTT Client.
type ClientConfig struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string

	// KeepAlive in seconds. Default is 60.
	KeepAlive      uint16
	ConnectTimeout time.Duration // default 5s
	// SessionExpiry in seconds, sent with CONNECT.
	SessionExpiry uint32
	CleanStart    bool

	InsecureSkipVerify bool

	// ReconnectBackoff is the constant delay between reconnect attempts. Default is 3s.
	ReconnectBackoff time.Duration

	// Will message published by the broker on unexpected disconnect.
	// Empty WillTopic sends no will.
	WillTopic   string
	WillPayload []byte
	WillQoS     byte
	WillRetain  bool

	// Debug logs paho protocol traffic at debug level.
	Debug bool

	// OnConnectionChange is called with true when the connection comes up and
	// false when it is lost.
	OnConnectionChange func(connected bool)
}

func (c *ClientConfig) setDefaults() {
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 5 * time.Second
	}
	if c.KeepAlive == 0 {
		c.KeepAlive = 60
	}
	if c.ReconnectBackoff == 0 {
		c.ReconnectBackoff = 3 * time.Second
	}
}

func (c *ClientConfig) Validate() error {
	if c.BrokerURL == "" {
		return errors.New("broker url is required")
	}
	u, err := url.Parse(c.BrokerURL)
	if err != nil {
		return fmt.Errorf("broker url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return errors.New("broker url must be of the form scheme://host[:port]")
	}
	if c.WillQoS > ExactlyOnce {
		return fmt.Errorf("will qos must be 0, 1 or 2, got %d", c.WillQoS)
	}
	return nil
}

func (c *ClientConfig) will() *paho.WillMessage {
	if c.WillTopic == "" {
		return nil
	}
	return &paho.WillMessage{
		Topic:   c.WillTopic,
		Payload: c.WillPayload,
		QoS:     c.WillQoS,
		Retain:  c.WillRetain,
	}
}
