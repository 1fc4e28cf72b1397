// Package dilauncher generates the DiLauncher automations that make the car
// head unit mirror A/C state changes onto MQTT subtopics.
package dilauncher

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/autopeer-io/carbridge/pkg/mqtt/topic"
)

// DiLauncher condition codes.
const (
	TaskTypeACTemperature = 54
	TaskTypeFanSpeed      = 35
	CompareEqual          = 4
)

const (
	minTemperature = 17
	maxTemperature = 33
	maxFanSpeed    = 7
)

var ErrEmptyTopic = errors.New("status topic is empty")

type Condition struct {
	TaskType    int `json:"taskType"`
	CompareType int `json:"compareType"`
	Expect      int `json:"expect"`
}

// Automation publishes runTask when every condition holds.
type Automation struct {
	Name       string      `json:"name"`
	State      int         `json:"state"`
	DelayTime  int         `json:"delayTime"`
	RunTask    string      `json:"runTask"`
	Conditions []Condition `json:"conditions"`
}

// Generate returns the automations for the car publishing on statusTopic:
// one per A/C temperature (17-33 °C) followed by one per fan speed (0-7).
func Generate(statusTopic string) ([]Automation, error) {
	b := topic.NewBuilder(statusTopic)
	normalized := b.Normalized()
	if normalized == "" {
		return nil, ErrEmptyTopic
	}

	automations := make([]Automation, 0, (maxTemperature-minTemperature+1)+(maxFanSpeed+1))
	for t := minTemperature; t <= maxTemperature; t++ {
		automations = append(automations, newAutomation(
			fmt.Sprintf("AC temperature %d", t), normalized, topic.SubACTemp, TaskTypeACTemperature, t))
	}
	for s := 0; s <= maxFanSpeed; s++ {
		automations = append(automations, newAutomation(
			fmt.Sprintf("fan speed %d", s), normalized, topic.SubFanSpeed, TaskTypeFanSpeed, s))
	}
	return automations, nil
}

func newAutomation(name, normalized, subtopic string, taskType, value int) Automation {
	return Automation{
		Name:      name,
		State:     1,
		DelayTime: 1,
		RunTask:   fmt.Sprintf("MQTT:/%s/%s+%d", normalized, subtopic, value),
		Conditions: []Condition{
			{TaskType: taskType, CompareType: CompareEqual, Expect: value},
		},
	}
}

// Render encodes the automations the way DiLauncher imports them.
func Render(automations []Automation) ([]byte, error) {
	return json.MarshalIndent(automations, "", "    ")
}
