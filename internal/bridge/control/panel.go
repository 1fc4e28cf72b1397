package control

import (
	"errors"
	"fmt"
	"strings"

	"github.com/autopeer-io/carbridge/pkg/log"
)

// ErrUnknownActuator is returned by Panel.Get for unregistered names.
var ErrUnknownActuator = errors.New("unknown actuator")

// Panel holds the actuators of one car in registration order.
type Panel struct {
	byName map[string]*Level
	order  []*Level
}

// NewPanel builds one actuator per spec. It returns an empty panel when the
// target has no command topic or car id, since commands could not be routed.
func NewPanel(target Target, pub Publisher, specs ...Spec) *Panel {
	p := &Panel{byName: make(map[string]*Level, len(specs))}
	if strings.Trim(target.CommandTopic, "/") == "" || target.CarUniqueID == "" {
		log.Warn("Actuators disabled: command topic and car unique id are required",
			"command_topic", target.CommandTopic, "car_unique_id", target.CarUniqueID)
		return p
	}
	for _, spec := range specs {
		l := NewLevel(spec, target, pub)
		p.byName[spec.Name] = l
		p.order = append(p.order, l)
	}
	return p
}

// Get returns the actuator with the given name.
func (p *Panel) Get(name string) (*Level, error) {
	l, ok := p.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownActuator, name)
	}
	return l, nil
}

// All returns the actuators in registration order.
func (p *Panel) All() []*Level {
	return p.order
}

// States returns the state of every actuator.
func (p *Panel) States() []State {
	states := make([]State, 0, len(p.order))
	for _, l := range p.order {
		states = append(states, l.State())
	}
	return states
}

func (p *Panel) Len() int { return len(p.order) }
