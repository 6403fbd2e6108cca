package game

import "testing"

func TestBusDeliversInRegistrationOrder(t *testing.T) {
	bus := NewBus()
	var order []int

	bus.Subscribe(EventTypeJump, func(Event) { order = append(order, 1) })
	bus.Subscribe(EventTypeJump, func(Event) { order = append(order, 2) })
	bus.Subscribe(EventTypeJump, func(Event) { order = append(order, 3) })

	bus.Emit(EventTypeJump, 1, "test", nil)

	if len(order) != 3 {
		t.Fatalf("Expected 3 deliveries, got %d", len(order))
	}
	for i, v := range order {
		if v != i+1 {
			t.Errorf("Delivery %d out of order: got handler %d", i, v)
		}
	}
}

func TestBusTypeFiltering(t *testing.T) {
	bus := NewBus()
	jumps := 0

	bus.Subscribe(EventTypeJump, func(Event) { jumps++ })

	bus.Emit(EventTypeJump, 1, "test", nil)
	bus.Emit(EventTypeCollision, 2, "test", nil)

	if jumps != 1 {
		t.Errorf("Expected 1 jump delivery, got %d", jumps)
	}
}

func TestBusSubscribeAllSeesEverything(t *testing.T) {
	bus := NewBus()
	seen := 0

	bus.SubscribeAll(func(Event) { seen++ })

	bus.Emit(EventTypeJump, 1, "test", nil)
	bus.Emit(EventTypeCollision, 2, "test", nil)
	bus.Emit(EventTypeHint, 3, "test", nil)

	if seen != 3 {
		t.Errorf("Expected 3 deliveries, got %d", seen)
	}
}

func TestBusAllHandlersRunAfterTyped(t *testing.T) {
	bus := NewBus()
	var order []string

	bus.SubscribeAll(func(Event) { order = append(order, "all") })
	bus.Subscribe(EventTypeJump, func(Event) { order = append(order, "typed") })

	bus.Emit(EventTypeJump, 1, "test", nil)

	if len(order) != 2 || order[0] != "typed" || order[1] != "all" {
		t.Errorf("Expected typed before all, got %v", order)
	}
}

func TestBusReentrantPublishIsDepthFirst(t *testing.T) {
	bus := NewBus()
	var order []string

	bus.Subscribe(EventTypeJump, func(Event) {
		order = append(order, "jump")
		bus.Emit(EventTypeHint, 1, "test", nil)
		order = append(order, "jump-done")
	})
	bus.Subscribe(EventTypeHint, func(Event) {
		order = append(order, "hint")
	})

	bus.Emit(EventTypeJump, 1, "test", nil)

	want := []string{"jump", "hint", "jump-done"}
	if len(order) != len(want) {
		t.Fatalf("Expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, order)
		}
	}
}

func TestBusNoHandlersIsNoOp(t *testing.T) {
	bus := NewBus()
	// Must not panic
	bus.Emit(EventTypeCollision, 1, "test", nil)
}
