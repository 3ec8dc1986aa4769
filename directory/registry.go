package directory

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrRoomExists = errors.New("connection already hosts a room")

// Registry holds rooms by stable id and indexes them by current owner.
type Registry struct {
	rooms map[RoomID]*Room
	owned map[ConnectionID]RoomID
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[RoomID]*Room),
		owned: make(map[ConnectionID]RoomID),
	}
}

func (r *Registry) Create(owner ConnectionID, now time.Time) (*Room, error) {
	if _, exists := r.owned[owner]; exists {
		return nil, ErrRoomExists
	}
	room := &Room{
		ID:        RoomID(uuid.NewString()),
		Owner:     owner,
		CreatedAt: now,
	}
	r.rooms[room.ID] = room
	r.owned[owner] = room.ID
	return room, nil
}

func (r *Registry) ByOwner(owner ConnectionID) (*Room, bool) {
	id, ok := r.owned[owner]
	if !ok {
		return nil, false
	}
	return r.rooms[id], true
}

func (r *Registry) Hosts(id ConnectionID) bool {
	_, ok := r.owned[id]
	return ok
}

// Reassign moves the owner pointer of room. newOwner must not host a room.
func (r *Registry) Reassign(room *Room, newOwner ConnectionID) {
	delete(r.owned, room.Owner)
	room.Owner = newOwner
	r.owned[newOwner] = room.ID
}

func (r *Registry) Delete(room *Room) {
	delete(r.rooms, room.ID)
	if r.owned[room.Owner] == room.ID {
		delete(r.owned, room.Owner)
	}
}

// MemberOf returns every room that lists id as a member.
func (r *Registry) MemberOf(id ConnectionID) []*Room {
	var rooms []*Room
	for _, room := range r.rooms {
		if room.Has(id) {
			rooms = append(rooms, room)
		}
	}
	return rooms
}

func (r *Registry) All() []*Room {
	rooms := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

func (r *Registry) Len() int {
	return len(r.rooms)
}
