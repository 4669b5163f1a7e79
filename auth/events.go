package auth

import (
	"sync"

	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
	EventUserUpdated    EventType = "USER_UPDATED"
)

// Event is a session change. Session and Identity are nil for EventSignedOut.
type Event struct {
	Type     EventType
	Session  *Session
	Identity *Identity
}

const subscriberBuffer = 16

type broker struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Event
}

func (b *broker) subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[int]chan Event)
	}
	id := b.next
	b.next++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

// publish never blocks; a subscriber that stopped draining loses events.
func (b *broker) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			log.Warn().Str("event", string(ev.Type)).Msg("Dropping auth event for slow subscriber")
		}
	}
}
