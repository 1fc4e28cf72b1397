package feed

import (
	"context"
	"strings"
	"sync"

	"github.com/autopeer-io/carbridge/internal/bridge/speed"
	"github.com/autopeer-io/carbridge/internal/pkg/broadcast"
	"github.com/autopeer-io/carbridge/internal/pkg/metrics"
	"github.com/autopeer-io/carbridge/internal/pkg/validate"
	"github.com/autopeer-io/carbridge/pkg/log"
)

const feedSpeed = "speed"

// SpeedFeed converts {base}/speed samples into speed.Sample values.
type SpeedFeed struct {
	valid  validate.Range
	logger log.Logger

	mu      sync.RWMutex
	current speed.Sample

	listeners *broadcast.Broadcaster[speed.Sample]
}

// NewSpeedFeed creates a feed accepting readings in [0, maxKmh].
func NewSpeedFeed(maxKmh int) *SpeedFeed {
	return &SpeedFeed{
		valid:     validate.Range{Min: 0, Max: maxKmh},
		logger:    log.WithName("feed.speed"),
		current:   speed.Unavailable(),
		listeners: broadcast.New[speed.Sample](),
	}
}

// Register adds a listener for accepted samples, including Unavailable.
func (f *SpeedFeed) Register(fn func(speed.Sample)) (deregister func()) {
	return f.listeners.Register(fn)
}

// Current returns the last accepted sample.
func (f *SpeedFeed) Current() speed.Sample {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.current
}

// Handle is the mqtt.MessageHandler of the speed topic.
func (f *SpeedFeed) Handle(_ context.Context, topic string, payload []byte) {
	text, ok := Decode(payload)
	if !ok {
		f.reject(ReasonDecode)
		f.logger.Warn("Received unprocessable payload", "topic", topic, "payload", payload)
		return
	}

	var sample speed.Sample
	switch strings.ToLower(text) {
	case "unknown", "unavailable":
		sample = speed.Unavailable()
	default:
		kmh, err := truncate(text)
		if err != nil {
			f.reject(ReasonNonNumeric)
			f.logger.Error(err, "Received non-numeric payload", "topic", topic, "payload", text)
			return
		}
		if err := f.valid.Check(kmh); err != nil {
			f.reject(ReasonOutOfRange)
			f.logger.Warn("Received speed is outside the valid range", "topic", topic, "speed", kmh, "range", f.valid.String())
			return
		}
		sample = speed.Known(kmh)
	}

	f.mu.Lock()
	f.current = sample
	f.mu.Unlock()

	metrics.MessagesTotal.WithLabelValues(feedSpeed, "accepted").Inc()
	f.listeners.Publish(sample)
}

func (f *SpeedFeed) reject(reason string) {
	metrics.MessagesTotal.WithLabelValues(feedSpeed, "rejected").Inc()
	metrics.SamplesRejectedTotal.WithLabelValues(feedSpeed, reason).Inc()
}
