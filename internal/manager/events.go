package manager

// Lifecycle event names.
const (
	EventAuthOK       = "auth_ok"
	EventAuthFailed   = "auth_failed"
	EventModelLoaded  = "model_loaded"
	EventInitFailed   = "init_failed"
	EventInvokeDone   = "invoke_done"
	EventInvokeFailed = "invoke_failed"
)

// Event is a manager lifecycle notification. Fields carries event specific
// values such as lang_code, device or error.
type Event struct {
	Name    string
	ModelID string
	Fields  map[string]any
}

// EventPublisher receives manager events synchronously on the calling
// goroutine, so Publish must be quick and must not panic.
type EventPublisher interface {
	Publish(Event)
}

type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// PublisherFunc adapts a plain function to EventPublisher.
type PublisherFunc func(Event)

func (f PublisherFunc) Publish(e Event) { f(e) }

func (m *Manager) emit(name string, fields map[string]any) {
	m.publisher.Publish(Event{Name: name, ModelID: m.modelID, Fields: fields})
}
