// Package notifier publishes the bridge's own state to the broker.
package notifier

import (
	"context"
	"strconv"

	"github.com/autopeer-io/carbridge/pkg/log"
	"github.com/autopeer-io/carbridge/pkg/mqtt"
)

// Publisher sends a payload to the broker. mqtt.Client satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error
}

// Availability publishes "true" or "false" retained on the availability
// topic. The broker publishes "false" itself through the will message when
// the bridge drops off without a clean disconnect.
type Availability struct {
	client Publisher
	topic  string
}

func NewAvailability(client Publisher, topic string) *Availability {
	return &Availability{
		client: client,
		topic:  topic,
	}
}

func (n *Availability) Topic() string { return n.topic }

func (n *Availability) Notify(ctx context.Context, online bool) error {
	if err := n.client.Publish(ctx, n.topic, mqtt.AtLeastOnce, true, []byte(strconv.FormatBool(online))); err != nil {
		return err
	}
	log.Info("Published availability", "topic", n.topic, "online", online)
	return nil
}
