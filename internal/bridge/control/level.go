// Package control implements the car actuators driven through the command topic.
package control

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/autopeer-io/carbridge/internal/bridge/feed"
	"github.com/autopeer-io/carbridge/internal/pkg/broadcast"
	"github.com/autopeer-io/carbridge/internal/pkg/metrics"
	"github.com/autopeer-io/carbridge/internal/pkg/validate"
	"github.com/autopeer-io/carbridge/pkg/log"
	"github.com/autopeer-io/carbridge/pkg/mqtt"
)

// ErrNotSwitchable is returned by on/off and percentage operations on
// actuators that have no off state.
var ErrNotSwitchable = errors.New("actuator cannot be switched on or off")

// Publisher sends a payload to the broker. mqtt.Client satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error
}

// Target identifies the car a command is addressed to.
type Target struct {
	CommandTopic string
	DeviceName   string
	CarUniqueID  string
}

// Payload renders the command text for action.
func (t Target) Payload(action string) []byte {
	return fmt.Appendf(nil, "%s=%s联动=%s", t.DeviceName, t.CarUniqueID, action)
}

// State is a point-in-time view of a level actuator.
type State struct {
	Name       string `json:"name"`
	Level      *int   `json:"level"`
	Percentage *int   `json:"percentage,omitempty"`
	Min        int    `json:"min"`
	Max        int    `json:"max"`
	Switchable bool   `json:"switchable"`
}

// Level is an actuator whose state is an integer level in [Min, Max].
// The level is updated optimistically after each command and corrected by
// the status subtopic.
type Level struct {
	spec   Spec
	valid  validate.Range
	target Target
	pub    Publisher
	logger log.Logger

	mu    sync.RWMutex
	level *int
	// notifyMu is taken before mu is released so listeners see levels in
	// the order they were stored.
	notifyMu sync.Mutex

	listeners *broadcast.Broadcaster[int]
}

// NewLevel creates the actuator described by spec.
func NewLevel(spec Spec, target Target, pub Publisher) *Level {
	return &Level{
		spec:      spec,
		valid:     validate.Range{Min: spec.Min, Max: spec.Max},
		target:    target,
		pub:       pub,
		logger:    log.WithName("control").WithValues("actuator", spec.Name),
		listeners: broadcast.New[int](),
	}
}

// Spec returns the actuator description.
func (l *Level) Spec() Spec { return l.spec }

// Register adds a listener for level changes.
func (l *Level) Register(fn func(level int)) (deregister func()) {
	return l.listeners.Register(fn)
}

// Level returns the last known level.
func (l *Level) Level() (int, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.level == nil {
		return 0, false
	}
	return *l.level, true
}

// Percentage maps the current level onto 0-100. Unknown levels report 0.
func (l *Level) Percentage() int {
	level, ok := l.Level()
	if !ok {
		return 0
	}
	return l.toPercentage(level)
}

// State returns a snapshot for the API.
func (l *Level) State() State {
	s := State{
		Name:       l.spec.Name,
		Min:        l.spec.Min,
		Max:        l.spec.Max,
		Switchable: l.spec.Switchable,
	}
	if level, ok := l.Level(); ok {
		s.Level = &level
		if l.spec.Switchable {
			pct := l.toPercentage(level)
			s.Percentage = &pct
		}
	}
	return s
}

// Set publishes the command for level and records it as the current level.
func (l *Level) Set(ctx context.Context, level int) error {
	if err := l.valid.Check(level); err != nil {
		return fmt.Errorf("%s: %w", l.spec.Name, err)
	}

	payload := l.target.Payload(l.spec.Action(level))
	start := time.Now()
	err := l.pub.Publish(ctx, l.target.CommandTopic, mqtt.AtMostOnce, false, payload)
	metrics.CommandLatency.WithLabelValues(l.spec.Name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CommandsSentTotal.WithLabelValues(l.spec.Name, "failed").Inc()
		l.logger.Error(err, "Failed to publish command", "level", level)
		return fmt.Errorf("publish %s command: %w", l.spec.Name, err)
	}
	metrics.CommandsSentTotal.WithLabelValues(l.spec.Name, "success").Inc()
	l.logger.Info("Sent command", "level", level, "payload", string(payload))

	l.store(level)
	return nil
}

// SetPercentage sets the level matching pct. Zero turns the actuator off;
// any other value maps to at least the first level above Min.
func (l *Level) SetPercentage(ctx context.Context, pct int) error {
	if !l.spec.Switchable {
		return ErrNotSwitchable
	}
	if pct < 0 || pct > 100 {
		return fmt.Errorf("%s: %w: percentage %d", l.spec.Name, validate.ErrOutOfRange, pct)
	}
	return l.Set(ctx, l.fromPercentage(pct))
}

// TurnOn switches the actuator on. A nil or zero percentage selects the
// lowest running level.
func (l *Level) TurnOn(ctx context.Context, pct *int) error {
	if !l.spec.Switchable {
		return ErrNotSwitchable
	}
	if pct == nil || *pct == 0 {
		return l.Set(ctx, l.spec.Min+1)
	}
	return l.SetPercentage(ctx, *pct)
}

// TurnOff switches the actuator off.
func (l *Level) TurnOff(ctx context.Context) error {
	if !l.spec.Switchable {
		return ErrNotSwitchable
	}
	return l.Set(ctx, l.spec.Off)
}

// Handle is the mqtt.MessageHandler of the actuator's status subtopic.
func (l *Level) Handle(_ context.Context, topic string, payload []byte) {
	text, ok := feed.Decode(payload)
	if !ok {
		l.reject(feed.ReasonDecode)
		l.logger.Warn("Received unprocessable payload", "topic", topic, "payload", payload)
		return
	}

	level, err := l.parseStatus(text)
	if err != nil {
		l.reject(feed.ReasonNonNumeric)
		l.logger.Error(err, "Received non-numeric status", "topic", topic, "payload", text)
		return
	}
	if !l.valid.Contains(level) {
		l.reject(feed.ReasonOutOfRange)
		l.logger.Warn("Received status is outside the valid range", "topic", topic, "level", level, "range", l.valid.String())
		return
	}

	metrics.MessagesTotal.WithLabelValues(l.spec.Name, "accepted").Inc()
	l.store(level)
}

func (l *Level) parseStatus(text string) (int, error) {
	if !l.spec.FloatStatus {
		return strconv.Atoi(text)
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid status %q", text)
	}
	r := math.Round(f)
	if r > math.MaxInt32 || r < math.MinInt32 {
		return 0, fmt.Errorf("invalid status %q", text)
	}
	return int(r), nil
}

func (l *Level) reject(reason string) {
	metrics.MessagesTotal.WithLabelValues(l.spec.Name, "rejected").Inc()
	metrics.SamplesRejectedTotal.WithLabelValues(l.spec.Name, reason).Inc()
}

func (l *Level) store(level int) {
	l.mu.Lock()
	changed := l.level == nil || *l.level != level
	l.level = &level
	if !changed {
		l.mu.Unlock()
		return
	}

	l.notifyMu.Lock()
	l.mu.Unlock()
	defer l.notifyMu.Unlock()
	l.listeners.Publish(level)
}

func (l *Level) toPercentage(level int) int {
	if level <= l.spec.Off {
		return 0
	}
	return int(math.Round(float64(level*100) / float64(l.spec.Max)))
}

func (l *Level) fromPercentage(pct int) int {
	if pct == 0 {
		return l.spec.Off
	}
	// ceil(pct*max/100) in integers
	level := (pct*l.spec.Max + 99) / 100
	return max(l.spec.Min+1, min(l.spec.Max, level))
}
