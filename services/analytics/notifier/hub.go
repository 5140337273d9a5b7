package notifier

import (
	"encoding/json"
	"sync"

	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("notifier")

const (
	// EventAppended is sent after records were appended to the ledger
	EventAppended = "appended"
	// EventCleared is sent after the ledger was cleared
	EventCleared = "cleared"
)

// Notification tells subscribers the ledger changed and should be queried again
type Notification struct {
	Event string `json:"event"`
	Size  int    `json:"size"`
}

// Subscriber abstracts a streaming client
type Subscriber interface {
	Send(payload []byte) error
	Close()
}

// hub fans out ledger change notifications to all registered subscribers
type hub struct {
	mut         sync.RWMutex
	subscribers map[Subscriber]struct{}
}

// NewHub creates an empty hub
func NewHub() *hub {
	return &hub{
		subscribers: make(map[Subscriber]struct{}),
	}
}

// Register adds a subscriber
func (h *hub) Register(subscriber Subscriber) {
	h.mut.Lock()
	h.subscribers[subscriber] = struct{}{}
	h.mut.Unlock()
}

// Unregister removes a subscriber
func (h *hub) Unregister(subscriber Subscriber) {
	h.mut.Lock()
	delete(h.subscribers, subscriber)
	h.mut.Unlock()
}

// Notify broadcasts the event to all subscribers. Subscribers that fail to accept the message are dropped
func (h *hub) Notify(event string, size int) {
	payload, err := json.Marshal(Notification{Event: event, Size: size})
	if err != nil {
		log.Warn("failed to marshal notification", "error", err)
		return
	}

	h.mut.Lock()
	defer h.mut.Unlock()

	for subscriber := range h.subscribers {
		err = subscriber.Send(payload)
		if err != nil {
			log.Debug("dropping subscriber", "error", err)
			subscriber.Close()
			delete(h.subscribers, subscriber)
		}
	}
}

// NumSubscribers returns the number of registered subscribers
func (h *hub) NumSubscribers() int {
	h.mut.RLock()
	defer h.mut.RUnlock()

	return len(h.subscribers)
}

// Close closes and removes all subscribers
func (h *hub) Close() error {
	h.mut.Lock()
	defer h.mut.Unlock()

	for subscriber := range h.subscribers {
		subscriber.Close()
		delete(h.subscribers, subscriber)
	}

	return nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (h *hub) IsInterfaceNil() bool {
	return h == nil
}
