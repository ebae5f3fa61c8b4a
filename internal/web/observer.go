package web

import (
	"fmt"

	"github.com/cjeanneret/SprayGo/internal/logic/machine"
	"github.com/cjeanneret/SprayGo/internal/logic/pattern"
)

// StatusSource exposes the latest machine status.
type StatusSource interface {
	Snapshot() machine.Snapshot
}

var _ machine.Observer = (*EventObserver)(nil)

// EventObserver forwards machine events to the broadcaster.
// Status is read after the tick that raised the event has published it,
// so events carry the snapshot of the previous tick.
type EventObserver struct {
	machine.NopObserver
	b      *StatusBroadcaster
	status StatusSource
}

// NewEventObserver creates an observer publishing on b.
func NewEventObserver(b *StatusBroadcaster, status StatusSource) *EventObserver {
	return &EventObserver{b: b, status: status}
}

func (o *EventObserver) snapshot() *machine.Snapshot {
	if o.status == nil {
		return nil
	}
	s := o.status.Snapshot()
	return &s
}

func (o *EventObserver) StateChanged(from, to machine.State) {
	o.b.Publish(StatusEvent{
		Type:   EventState,
		Msg:    fmt.Sprintf("%s -> %s", from, to),
		Status: o.snapshot(),
	})
}

func (o *EventObserver) SelectionChanged(sel pattern.Selection) {
	o.b.Publish(StatusEvent{Type: EventSelection, Msg: "Selected sides to paint: " + sel.String()})
}

func (o *EventObserver) EmergencyStop(from machine.State) {
	o.b.Publish(StatusEvent{Type: EventEmergency, Level: "error", Msg: "Emergency stop in state " + from.String()})
}

func (o *EventObserver) Fault(err error) {
	o.b.Publish(StatusEvent{Type: EventFault, Level: "error", Msg: err.Error()})
}

func (o *EventObserver) CycleCompleted(cycleID string) {
	o.b.Publish(StatusEvent{Type: EventCycle, Msg: "Cycle complete " + cycleID})
}
