package feed

import (
	"context"
	"math"
	"sync"

	"github.com/autopeer-io/carbridge/internal/pkg/broadcast"
	"github.com/autopeer-io/carbridge/internal/pkg/metrics"
	"github.com/autopeer-io/carbridge/internal/pkg/validate"
	"github.com/autopeer-io/carbridge/pkg/log"
)

const feedSOC = "soc"

// SOC is one accepted state-of-charge reading.
type SOC struct {
	Percent   int     `json:"percent"`
	EnergyKWh float64 `json:"energy_kwh"`
}

// SOCFeed converts {base}/SOC samples into battery level and energy.
type SOCFeed struct {
	capacityKWh float64
	valid       validate.Range
	logger      log.Logger

	mu      sync.RWMutex
	current *SOC

	listeners *broadcast.Broadcaster[SOC]
}

// NewSOCFeed creates a feed for a battery of the given usable capacity.
func NewSOCFeed(capacityKWh float64) *SOCFeed {
	return &SOCFeed{
		capacityKWh: capacityKWh,
		valid:       validate.Range{Min: 0, Max: 100},
		logger:      log.WithName("feed.soc"),
		listeners:   broadcast.New[SOC](),
	}
}

// Register adds a listener for accepted readings.
func (f *SOCFeed) Register(fn func(SOC)) (deregister func()) {
	return f.listeners.Register(fn)
}

// Current returns the last accepted reading.
func (f *SOCFeed) Current() (SOC, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.current == nil {
		return SOC{}, false
	}
	return *f.current, true
}

// Handle is the mqtt.MessageHandler of the SOC topic.
func (f *SOCFeed) Handle(_ context.Context, topic string, payload []byte) {
	text, ok := Decode(payload)
	if !ok {
		f.reject(ReasonDecode)
		f.logger.Warn("Received unprocessable payload", "topic", topic, "payload", payload)
		return
	}

	pct, err := truncate(text)
	if err != nil {
		f.reject(ReasonNonNumeric)
		f.logger.Error(err, "Received non-numeric payload", "topic", topic, "payload", text)
		return
	}
	if err := f.valid.Check(pct); err != nil {
		f.reject(ReasonOutOfRange)
		f.logger.Warn("Received SoC is outside the valid range", "topic", topic, "soc", pct, "range", f.valid.String())
		return
	}

	soc := SOC{Percent: pct, EnergyKWh: EnergyKWh(f.capacityKWh, pct)}

	f.mu.Lock()
	f.current = &soc
	f.mu.Unlock()

	metrics.MessagesTotal.WithLabelValues(feedSOC, "accepted").Inc()
	f.listeners.Publish(soc)
}

func (f *SOCFeed) reject(reason string) {
	metrics.MessagesTotal.WithLabelValues(feedSOC, "rejected").Inc()
	metrics.SamplesRejectedTotal.WithLabelValues(feedSOC, reason).Inc()
}

// EnergyKWh returns the stored energy for pct of capacity, rounded to two
// decimals.
func EnergyKWh(capacityKWh float64, pct int) float64 {
	return math.Round(capacityKWh*(float64(pct)/100)*100) / 100
}
