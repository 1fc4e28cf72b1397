package mqtt

import (
	"context"
	"fmt"
	"time"

	"github.com/autopeer-io/carbridge/internal/bridge/notifier"
	"github.com/autopeer-io/carbridge/pkg/log"
	pkgmqtt "github.com/autopeer-io/carbridge/pkg/mqtt"
)

// Route binds a topic filter to its handler.
type Route struct {
	Topic   string
	QoS     int
	Handler pkgmqtt.MessageHandler
}

// Server implements the MQTT ingress layer.
type Server struct {
	client       pkgmqtt.Client
	availability *notifier.Availability
	routes       []Route
}

// NewServer creates a new MQTT server (client).
func NewServer(client pkgmqtt.Client, availability *notifier.Availability, routes ...Route) *Server {
	return &Server{
		client:       client,
		availability: availability,
		routes:       routes,
	}
}

// Start connects to the broker, subscribes every route and serves until ctx
// is done.
func (s *Server) Start(ctx context.Context) error {
	// The connection outlives ctx so the offline notice can still be sent.
	if err := s.client.Start(context.WithoutCancel(ctx)); err != nil {
		return err
	}

	defer func() {
		// Use a fresh context with timeout to ensure the last packets are sent
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if s.availability != nil && s.client.IsConnected() {
			if err := s.availability.Notify(shutdownCtx, false); err != nil {
				log.Error(err, "Failed to publish offline availability")
			}
		}
		log.Info("Disconnecting MQTT client...")
		s.client.Disconnect(shutdownCtx)
	}()

	// Subscriptions made before the first connection are sent once it is up.
	for _, r := range s.routes {
		if err := s.client.Subscribe(ctx, r.Topic, r.QoS, r.Handler); err != nil {
			return fmt.Errorf("failed to subscribe to topic: %s, err: %w", r.Topic, err)
		}
	}
	log.Info("MQTT routes registered", "routes", len(s.routes))

	<-ctx.Done()
	return nil
}

// OnConnectionChange announces the bridge as online after every (re)connect.
// It is meant for mqtt.ClientConfig.OnConnectionChange and does not block.
func (s *Server) OnConnectionChange(connected bool) {
	if !connected || s.availability == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.availability.Notify(ctx, true); err != nil {
			log.Error(err, "Failed to publish online availability")
		}
	}()
}
