package manager

import "testing"

func TestMemoryPublisher_ReturnsCopy(t *testing.T) {
	pub := NewMemoryPublisher(0)
	pub.Publish(Event{Name: "a"})
	pub.Publish(Event{Name: "b"})
	evts := pub.Events()
	if len(evts) != 2 || evts[0].Name != "a" || evts[1].Name != "b" {
		t.Fatalf("unexpected events: %+v", evts)
	}
	evts[0].Name = "z"
	if pub.Events()[0].Name != "a" {
		t.Fatalf("internal events mutated via returned slice")
	}
}

func TestMemoryPublisher_Limit(t *testing.T) {
	pub := NewMemoryPublisher(2)
	for _, n := range []string{"auth_ok", "model_loaded", "invoke_done"} {
		pub.Publish(Event{Name: n})
	}
	names := pub.Names()
	if len(names) != 2 || names[0] != "model_loaded" || names[1] != "invoke_done" {
		t.Fatalf("names=%v", names)
	}
	if _, ok := pub.Last("auth_ok"); ok {
		t.Fatalf("evicted event still visible")
	}
}

func TestPublisherFunc(t *testing.T) {
	var got []string
	m := newTestManager(t, newFakeRuntime(), func(cfg *ManagerConfig) {
		cfg.Publisher = PublisherFunc(func(e Event) { got = append(got, e.Name) })
	})
	if _, err := m.Invoke(testCtx(t), "Hello", "ko"); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if len(got) != 2 || got[0] != "model_loaded" || got[1] != "invoke_done" {
		t.Fatalf("events=%v", got)
	}
}
