package directory

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"signal-directory/code"
)

type notification struct {
	To    ConnectionID
	Event Event
}

// fakeTransport records notifications and answers liveness from a set.
type fakeTransport struct {
	mu           sync.Mutex
	alive        map[ConnectionID]bool
	sent         []notification
	disconnected []ConnectionID
}

func newFakeTransport(alive ...ConnectionID) *fakeTransport {
	f := &fakeTransport{alive: make(map[ConnectionID]bool)}
	for _, id := range alive {
		f.alive[id] = true
	}
	return f
}

func (f *fakeTransport) Notify(to ConnectionID, event Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, notification{to, event})
}

func (f *fakeTransport) IsAlive(id ConnectionID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alive[id]
}

func (f *fakeTransport) Disconnect(id ConnectionID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected = append(f.disconnected, id)
}

func (f *fakeTransport) kill(ids ...ConnectionID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.alive, id)
	}
}

// received lists the event types sent to id, in order.
func (f *fakeTransport) received(id ConnectionID) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var types []string
	for _, n := range f.sent {
		if n.To == id {
			types = append(types, n.Event.Type)
		}
	}
	return types
}

func (f *fakeTransport) last(id ConnectionID) (Event, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].To == id {
			return f.sent[i].Event, true
		}
	}
	return Event{}, false
}

func (f *fakeTransport) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
}

type clock struct {
	at time.Time
}

func (c *clock) Now() time.Time { return c.at }

func (c *clock) Advance(d time.Duration) { c.at = c.at.Add(d) }

func newTestDirectory(t *testing.T, transport Transport, c *clock) *Directory {
	t.Helper()
	logger := zerolog.Nop()
	return New(transport, Options{
		MaxMembers:    3,
		IdleThreshold: 20 * time.Minute,
		FullThreshold: 4 * time.Hour,
		Generator:     code.NewGenerator(bytes.NewReader(bytes.Repeat([]byte{0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1, 2, 2, 2, 2, 2, 2, 3, 3, 3, 3, 3, 3}, 4))),
		Now:           c.Now,
		Logger:        &logger,
	})
}
