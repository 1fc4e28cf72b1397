package fsm

import (
	"context"
	"errors"
	"testing"

	"github.com/looplab/fsm"
)

func TestWrapEventAndUnchanged(t *testing.T) {
	var entered []string
	m := fsm.NewFSM("off",
		fsm.Events{
			{Name: "on", Src: []string{"off", "on"}, Dst: "on"},
		},
		fsm.Callbacks{
			"enter_state": WrapEvent(func(_ context.Context, e *fsm.Event) error {
				entered = append(entered, e.Src+"->"+e.Dst)
				return nil
			}),
		},
	)

	ctx := context.Background()
	if err := m.Event(ctx, "on"); err != nil {
		t.Fatalf("first Event() error = %v", err)
	}
	err := m.Event(ctx, "on")
	if !Unchanged(err) {
		t.Fatalf("second Event() error = %v, want NoTransitionError", err)
	}
	if Unchanged(errors.New("boom")) || Unchanged(nil) {
		t.Error("Unchanged() matched an unrelated error")
	}
	if len(entered) != 1 || entered[0] != "off->on" {
		t.Errorf("entered = %v", entered)
	}
}

func TestWrapEventStoresError(t *testing.T) {
	boom := errors.New("boom")
	cb := WrapEvent(func(context.Context, *fsm.Event) error { return boom })
	e := &fsm.Event{}
	cb(context.Background(), e)
	if !errors.Is(e.Err, boom) {
		t.Errorf("event.Err = %v, want %v", e.Err, boom)
	}
}
