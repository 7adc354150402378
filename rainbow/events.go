package rainbow

import "sync"

// Event topics emitted by the Harness.
const (
	EventRunStarted    = "run_started"
	EventRunEnded      = "run_ended"
	EventTrialFinished = "trial_finished"
	EventPreimageFound = "preimage_found"
)

// A Callback receives trial results for the topics it subscribed to.
// Callbacks run on the worker that produced the result and must be safe for
// concurrent use.
type Callback interface {
	Call(TrialResult)
}

// CallbackFunc adapts a plain function to the Callback interface.
type CallbackFunc func(TrialResult)

// Call calls f(r).
func (f CallbackFunc) Call(r TrialResult) { f(r) }

// EventManager dispatches harness events to subscribers.
type EventManager struct {
	mu     sync.RWMutex
	events map[string][]Callback
}

func NewEventManager() *EventManager {
	return &EventManager{
		events: make(map[string][]Callback),
	}
}

func (em *EventManager) Subscribe(eventName string, callback Callback) {
	em.mu.Lock()
	defer em.mu.Unlock()
	em.events[eventName] = append(em.events[eventName], callback)
}

func (em *EventManager) Emit(eventName string, r TrialResult) {
	em.mu.RLock()
	calls := em.events[eventName]
	em.mu.RUnlock()
	for _, call := range calls {
		call.Call(r)
	}
}
