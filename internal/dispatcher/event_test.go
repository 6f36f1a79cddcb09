package dispatcher

import (
	"testing"

	"github.com/Rorical/RoriBuddy/internal/eventbus"
	"github.com/Rorical/RoriBuddy/internal/update"
)

func TestListenForUIEvents(t *testing.T) {
	eb := eventbus.NewEventBus()
	ed := NewEventDispatcher(eb)
	defer ed.Stop()

	if err := eb.SendToUI(eventbus.RoamingStateEvent{Enabled: true}); err != nil {
		t.Fatal(err)
	}
	msg := ed.ListenForUIEvents()()
	core, ok := msg.(update.CoreEventMsg)
	if !ok {
		t.Fatalf("expected CoreEventMsg, got %T", msg)
	}
	if e, ok := core.Event.(eventbus.RoamingStateEvent); !ok || !e.Enabled {
		t.Errorf("unexpected event %#v", core.Event)
	}
}

func TestListenStopsWhenClosed(t *testing.T) {
	eb := eventbus.NewEventBus()
	ed := NewEventDispatcher(eb)
	eb.Close()
	if msg := ed.ListenForUIEvents()(); msg != nil {
		t.Errorf("expected nil after close, got %#v", msg)
	}

	ed2 := NewEventDispatcher(eventbus.NewEventBus())
	ed2.Stop()
	if msg := ed2.ListenForUIEvents()(); msg != nil {
		t.Errorf("expected nil after stop, got %#v", msg)
	}
}
