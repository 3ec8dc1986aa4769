package directory

import "encoding/json"

const (
	EventRoomCreated       = "roomcreated"
	EventGarbageCollected  = "garbageCollected"
	EventBecomeHost        = "becomeHost"
	EventHostMigration     = "hostMigration"
	EventJoinRoom          = "joinroom"
	EventJoinAccepted      = "joinAccepted"
	EventJoinTrySuccessful = "joinTrySuccessful"
	EventNoSuchCode        = "noSuchCode"
	EventTooManyInRoom     = "tooManyInRoom"
	EventError             = "error"
)

// Event is the envelope of every notification the directory emits.
type Event struct {
	Type    string          `json:"type"`
	Code    string          `json:"code,omitempty"`
	Signal  json.RawMessage `json:"signal,omitempty"`
	From    ConnectionID    `json:"from,omitempty"`
	Name    string          `json:"name,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Transport is the connection layer the directory talks back through.
// Notify and Disconnect are called while the directory holds its lock and
// must not block or call back into the directory.
type Transport interface {
	Notify(to ConnectionID, event Event)
	IsAlive(id ConnectionID) bool
	Disconnect(id ConnectionID)
}
