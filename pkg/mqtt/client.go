package mqtt

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"

	"github.com/autopeer-io/carbridge/pkg/log"
)

type pahoClient struct {
	cfg    *ClientConfig
	cm     *autopaho.ConnectionManager
	logger log.Logger

	connected atomic.Bool

	mu   sync.RWMutex
	subs map[string]subscription // keyed by filter
}

type subscription struct {
	filter  string
	match   string // filter without the $share/<group>/ prefix
	qos     int
	handler MessageHandler
}

// NewClient validates cfg and returns an unstarted Client.
func NewClient(cfg *ClientConfig) (Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mqtt config is required")
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mqtt config: %w", err)
	}
	return newPahoClient(cfg), nil
}

func newPahoClient(cfg *ClientConfig) *pahoClient {
	return &pahoClient{
		cfg:    cfg,
		logger: log.WithName("mqtt").WithValues("broker", cfg.BrokerURL, "clientID", cfg.ClientID),
		subs:   make(map[string]subscription),
	}
}

func (c *pahoClient) Start(ctx context.Context) error {
	broker, _ := url.Parse(c.cfg.BrokerURL) // validated in NewClient

	errLog := pahoLogger{logger: c.logger, errors: true}
	cfg := autopaho.ClientConfig{
		ServerUrls:                    []*url.URL{broker},
		KeepAlive:                     c.cfg.KeepAlive,
		CleanStartOnInitialConnection: c.cfg.CleanStart,
		SessionExpiryInterval:         c.cfg.SessionExpiry,
		ReconnectBackoff:              autopaho.NewConstantBackoff(c.cfg.ReconnectBackoff),
		ConnectTimeout:                c.cfg.ConnectTimeout,
		ConnectUsername:               c.cfg.Username,
		ConnectPassword:               []byte(c.cfg.Password),
		TlsCfg:                        &tls.Config{InsecureSkipVerify: c.cfg.InsecureSkipVerify},
		WillMessage:                   c.cfg.will(),
		OnConnectionUp:                c.onConnectionUp,
		OnConnectError:                c.onConnectError,
		OnConnectionDown:              c.onConnectionDown,
		Errors:                        errLog,
		PahoErrors:                    errLog,
		ClientConfig: paho.ClientConfig{
			ClientID:           c.cfg.ClientID,
			OnClientError:      c.onClientError,
			OnServerDisconnect: c.onServerDisconnect,
			OnPublishReceived:  []func(paho.PublishReceived) (bool, error){c.router},
		},
	}
	if c.cfg.Debug {
		cfg.Debug = pahoLogger{logger: c.logger.WithName("autopaho")}
		cfg.PahoDebug = pahoLogger{logger: c.logger.WithName("paho")}
	}

	c.logger.Info("Starting MQTT client")
	cm, err := autopaho.NewConnection(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create connection manager: %w", err)
	}
	c.cm = cm
	return nil
}

func (c *pahoClient) Disconnect(ctx context.Context) {
	if c.cm == nil {
		return
	}
	if err := c.cm.Disconnect(ctx); err != nil {
		c.logger.Debug("Disconnect returned", "err", err)
	}
	c.setConnected(false)
	c.logger.Info("MQTT client disconnected")
}

func (c *pahoClient) Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error {
	if c.cm == nil {
		return ErrNotStarted
	}
	_, err := c.cm.Publish(ctx, &paho.Publish{
		Topic:   topic,
		QoS:     byte(qos),
		Retain:  retain,
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	c.logger.Debug("Published", "topic", topic, "qos", qos, "retain", retain, "payload", payload)
	return nil
}

func (c *pahoClient) Subscribe(ctx context.Context, filter string, qos int, handler MessageHandler) error {
	if c.cm == nil {
		return ErrNotStarted
	}

	c.mu.Lock()
	c.subs[filter] = subscription{filter: filter, match: shareless(filter), qos: qos, handler: handler}
	c.mu.Unlock()

	if !c.IsConnected() {
		c.logger.Debug("Subscription queued until connected", "topic", filter)
		return nil
	}

	_, err := c.cm.Subscribe(ctx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{{Topic: filter, QoS: byte(qos)}},
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", filter, err)
	}
	c.logger.Info("Subscribed", "topic", filter, "qos", qos)
	return nil
}

func (c *pahoClient) Unsubscribe(ctx context.Context, filter string) error {
	if c.cm == nil {
		return ErrNotStarted
	}

	c.mu.Lock()
	delete(c.subs, filter)
	c.mu.Unlock()

	if _, err := c.cm.Unsubscribe(ctx, &paho.Unsubscribe{Topics: []string{filter}}); err != nil {
		return fmt.Errorf("unsubscribe from %s: %w", filter, err)
	}
	return nil
}

func (c *pahoClient) AwaitConnection(ctx context.Context) error {
	if c.cm == nil {
		return ErrNotStarted
	}
	return c.cm.AwaitConnection(ctx)
}

func (c *pahoClient) IsConnected() bool {
	return c.connected.Load()
}

// setConnected reports edges only, so a reconnect without a noticed drop
// does not fire OnConnectionChange twice.
func (c *pahoClient) setConnected(v bool) {
	if c.connected.Swap(v) != v && c.cfg.OnConnectionChange != nil {
		c.cfg.OnConnectionChange(v)
	}
}

// onConnectionUp re-sends every registered subscription in one packet.
func (c *pahoClient) onConnectionUp(cm *autopaho.ConnectionManager, _ *paho.Connack) {
	c.logger.Info("MQTT connection established")
	c.setConnected(true)

	subs := c.snapshot()
	if len(subs) == 0 {
		return
	}

	pkt := &paho.Subscribe{Subscriptions: make([]paho.SubscribeOptions, 0, len(subs))}
	for _, s := range subs {
		pkt.Subscriptions = append(pkt.Subscriptions, paho.SubscribeOptions{Topic: s.filter, QoS: byte(s.qos)})
	}
	if _, err := cm.Subscribe(context.Background(), pkt); err != nil {
		c.logger.Error(err, "Failed to re-subscribe", "topics", len(subs))
		return
	}
	c.logger.Info("Re-subscribed", "topics", len(subs))
}

func (c *pahoClient) onConnectionDown() bool {
	c.logger.Warn("MQTT connection lost")
	c.setConnected(false)
	return true
}

func (c *pahoClient) onConnectError(err error) {
	c.logger.Error(err, "MQTT connection attempt failed, retrying", "backoff", c.cfg.ReconnectBackoff)
}

func (c *pahoClient) onClientError(err error) {
	c.logger.Error(err, "MQTT client error")
}

func (c *pahoClient) onServerDisconnect(d *paho.Disconnect) {
	reason := ""
	if d.Properties != nil {
		reason = d.Properties.ReasonString
	}
	c.logger.Warn("Broker requested disconnect", "code", d.ReasonCode, "reason", reason)
}

// snapshot returns the subscriptions sorted by filter, which fixes the
// handler order for a message matching several filters.
func (c *pahoClient) snapshot() []subscription {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]subscription, 0, len(c.subs))
	for _, s := range c.subs {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b subscription) int { return strings.Compare(a.filter, b.filter) })
	return out
}

// router hands a message to every matching handler before returning, so
// paho delivers the next message only after this one is processed.
func (c *pahoClient) router(p paho.PublishReceived) (bool, error) {
	topic := p.Packet.Topic
	logger := c.logger.WithValues("topic", topic)
	ctx := log.NewContext(context.Background(), logger)

	matched := 0
	for _, s := range c.snapshot() {
		if topicsMatch(s.match, topic) {
			s.handler(ctx, topic, p.Packet.Payload)
			matched++
		}
	}
	if matched == 0 {
		logger.Debug("No handler for message", "payload", p.Packet.Payload)
	}
	return true, nil
}

// topicsMatch reports whether topic matches filter, honoring "+" and "#".
func topicsMatch(filter, topic string) bool {
	if filter == topic {
		return true
	}
	if !strings.ContainsAny(filter, "+#") {
		return false
	}

	fparts := strings.Split(filter, "/")
	tparts := strings.Split(topic, "/")
	for i, f := range fparts {
		switch {
		case f == "#":
			return true
		case i >= len(tparts):
			return false
		case f != "+" && f != tparts[i]:
			return false
		}
	}
	return len(fparts) == len(tparts)
}

// shareless strips a "$share/<group>/" prefix from a shared subscription.
func shareless(filter string) string {
	rest, ok := strings.CutPrefix(filter, "$share/")
	if !ok {
		return filter
	}
	if _, topic, ok := strings.Cut(rest, "/"); ok {
		return topic
	}
	return filter
}
