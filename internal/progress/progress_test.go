package progress

import (
	"testing"
)

func TestBusPublishesToAllObservers(t *testing.T) {
	bus := NewBus()
	var a, b []Event

	bus.Subscribe(func(e Event) { a = append(a, e) })
	bus.Subscribe(func(e Event) { b = append(b, e) })

	bus.Publish(Event{Stage: "normalize", Partition: "2025Q2", Done: 1, Total: 4})

	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("expected both observers to receive one event, got %d and %d", len(a), len(b))
	}
	if a[0].Stage != "normalize" || a[0].Partition != "2025Q2" {
		t.Errorf("unexpected event: %+v", a[0])
	}
}

func TestNoopBusDoesNotPanic(t *testing.T) {
	bus := Noop()
	bus.Publish(Event{Stage: "rank"})
}
