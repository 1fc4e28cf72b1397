// Package mqtt is a reconnecting MQTT v5 client built on paho autopaho.
// Subscriptions survive reconnects and incoming messages are dispatched to
// their handlers inline, in arrival order.
package mqtt

import (
	"context"
	"errors"
)

// Delivery guarantees accepted by Publish and Subscribe.
const (
	AtMostOnce  = 0
	AtLeastOnce = 1
	ExactlyOnce = 2
)

// ErrNotStarted is returned by operations called before Start.
var ErrNotStarted = errors.New("mqtt client not started")

// MessageHandler processes one message. It runs on the receive goroutine and
// blocks delivery of the next message until it returns. ctx carries a logger
// tagged with the topic (see log.FromContext).
type MessageHandler func(ctx context.Context, topic string, payload []byte)

// Client is the broker connection used by the bridge.
type Client interface {
	// Start connects in the background and returns immediately.
	Start(ctx context.Context) error
	Disconnect(ctx context.Context)

	Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error

	// Subscribe registers handler for a topic filter ("+", "#" and
	// "$share/<group>/" are understood). It is re-sent after every reconnect;
	// while offline it is only queued.
	Subscribe(ctx context.Context, topic string, qos int, handler MessageHandler) error
	Unsubscribe(ctx context.Context, topic string) error

	AwaitConnection(ctx context.Context) error
	IsConnected() bool
}
