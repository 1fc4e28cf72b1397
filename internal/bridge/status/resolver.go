// Package status derives the vehicle-wide status from the tag of the latest
// parsed record and the latest speed sample.
package status

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"k8s.io/utils/clock"

	"github.com/autopeer-io/carbridge/internal/bridge/payload"
	"github.com/autopeer-io/carbridge/internal/bridge/speed"
	"github.com/autopeer-io/carbridge/internal/pkg/broadcast"
	"github.com/autopeer-io/carbridge/internal/pkg/metrics"
	fsmutil "github.com/autopeer-io/carbridge/internal/pkg/util/fsm"
	"github.com/autopeer-io/carbridge/pkg/log"
)

// One event per target state; every state is a valid source.
const (
	eventPowerOff = "power_off"
	eventStart    = "start"
	eventHalt     = "halt"
	eventDrive    = "drive"
)

var eventFor = map[payload.Status]string{
	payload.StatusPoweredOff: eventPowerOff,
	payload.StatusStarted:    eventStart,
	payload.StatusIdle:       eventHalt,
	payload.StatusDriving:    eventDrive,
}

// Change describes one transition of the held status.
type Change struct {
	From payload.Status `json:"from"`
	To   payload.Status `json:"to"`
	At   time.Time      `json:"at"`
}

// Snapshot is the resolver state as seen by readers.
type Snapshot struct {
	Status     payload.Status `json:"status"`
	ReportedAs payload.Status `json:"reported,omitempty"`
	Speed      *int           `json:"speed_kmh,omitempty"`
	ChangedAt  time.Time      `json:"changed_at,omitzero"`
}

// Resolver combines the two asynchronous inputs into the held status.
// Observers are invoked synchronously in registration order, after the state
// lock is released. They may read the resolver but must not call
// OnRecordUpdate or OnSpeedUpdate.
type Resolver struct {
	mu       sync.Mutex
	notifyMu sync.Mutex

	machine *fsm.FSM
	clock   clock.PassiveClock
	logger  log.Logger

	reported  payload.Status // empty until the first record
	lastSpeed speed.Sample
	changedAt time.Time

	observers *broadcast.Broadcaster[Change]
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock sets the clock used to stamp transitions.
func WithClock(c clock.PassiveClock) Option {
	return func(r *Resolver) { r.clock = c }
}

// NewResolver creates a Resolver holding Unknown.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		clock:     clock.RealClock{},
		logger:    log.WithName("status"),
		lastSpeed: speed.Unavailable(),
		observers: broadcast.New[Change](),
	}
	for _, o := range opts {
		o(r)
	}

	all := []string{
		payload.StatusUnknown.String(),
		payload.StatusPoweredOff.String(),
		payload.StatusStarted.String(),
		payload.StatusIdle.String(),
		payload.StatusDriving.String(),
	}
	events := fsm.Events{}
	for to, name := range eventFor {
		events = append(events, fsm.EventDesc{Name: name, Src: all, Dst: to.String()})
	}

	r.machine = fsm.NewFSM(
		payload.StatusUnknown.String(),
		events,
		fsm.Callbacks{
			"enter_state": fsmutil.WrapEvent(r.enterState),
		},
	)
	return r
}

func (r *Resolver) enterState(_ context.Context, e *fsm.Event) error {
	r.changedAt = r.clock.Now()
	metrics.StatusTransitionsTotal.WithLabelValues(e.Src, e.Dst).Inc()
	r.logger.Info("Car status changed", "from", e.Src, "to", e.Dst, "event", e.Event)
	return nil
}

// Observe registers fn for every change of the held status.
func (r *Resolver) Observe(fn func(Change)) (cancel func()) {
	return r.observers.Register(fn)
}

// Subscribe returns a buffered channel of changes; see broadcast.Subscribe.
func (r *Resolver) Subscribe(buffer int) (<-chan Change, func()) {
	return r.observers.Subscribe(buffer)
}

// Current returns the held status.
func (r *Resolver) Current() payload.Status {
	return payload.Status(r.machine.Current())
}

// Snapshot returns the held status with its inputs.
func (r *Resolver) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Snapshot{
		Status:     r.Current(),
		ReportedAs: r.reported,
		ChangedAt:  r.changedAt,
	}
	if v, ok := r.lastSpeed.Value(); ok {
		s.Speed = &v
	}
	return s
}

// OnRecordUpdate records the car_status tag of a freshly parsed record.
func (r *Resolver) OnRecordUpdate(ctx context.Context, tag payload.Status) error {
	if !tag.Valid() {
		return fmt.Errorf("invalid status tag %q", tag)
	}
	return r.update(ctx, func() { r.reported = tag })
}

// OnSpeedUpdate records a speed sample.
func (r *Resolver) OnSpeedUpdate(ctx context.Context, s speed.Sample) error {
	return r.update(ctx, func() { r.lastSpeed = s })
}

// update applies mutate, resolves and notifies observers of a change.
// notifyMu is taken before mu is released so notifications keep the order
// of the updates that caused them.
func (r *Resolver) update(ctx context.Context, mutate func()) error {
	r.mu.Lock()
	mutate()
	change, changed, err := r.resolve(ctx)
	if !changed {
		r.mu.Unlock()
		return err
	}

	r.notifyMu.Lock()
	r.mu.Unlock()
	defer r.notifyMu.Unlock()

	r.observers.Publish(change)
	return nil
}

// target applies the priority cascade. ok is false when the held status is
// retained.
func (r *Resolver) target() (payload.Status, bool) {
	if r.reported == payload.StatusPoweredOff {
		return payload.StatusPoweredOff, true
	}
	if r.lastSpeed.Usable() {
		if v, _ := r.lastSpeed.Value(); v > 0 {
			return payload.StatusDriving, true
		}
		return payload.StatusIdle, true
	}
	if r.reported == payload.StatusStarted {
		return payload.StatusStarted, true
	}
	return "", false
}

// resolve must be called with r.mu held.
func (r *Resolver) resolve(ctx context.Context) (Change, bool, error) {
	to, ok := r.target()
	if !ok {
		return Change{}, false, nil
	}

	from := r.Current()
	if err := r.machine.Event(ctx, eventFor[to]); err != nil {
		if fsmutil.Unchanged(err) {
			return Change{}, false, nil
		}
		return Change{}, false, fmt.Errorf("failed to move car status from %s to %s: %w", from, to, err)
	}

	return Change{From: from, To: to, At: r.changedAt}, true, nil
}
