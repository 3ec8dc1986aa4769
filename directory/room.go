package directory

import (
	"slices"
	"time"
)

// ConnectionID is assigned by the transport and unique per live connection.
type ConnectionID string

// RoomID is stable for the lifetime of a room, across host changes.
type RoomID string

type Member struct {
	From ConnectionID
}

type Room struct {
	ID        RoomID
	Owner     ConnectionID
	CreatedAt time.Time
	members   []Member
}

// Add appends m unless a member with the same connection is present.
func (r *Room) Add(m Member) bool {
	if r.Has(m.From) {
		return false
	}
	r.members = append(r.members, m)
	return true
}

func (r *Room) Remove(id ConnectionID) bool {
	for i, m := range r.members {
		if m.From == id {
			r.members = slices.Delete(r.members, i, i+1)
			return true
		}
	}
	return false
}

func (r *Room) Has(id ConnectionID) bool {
	return slices.ContainsFunc(r.members, func(m Member) bool { return m.From == id })
}

func (r *Room) Size() int {
	return len(r.members)
}

func (r *Room) Members() []Member {
	return slices.Clone(r.members)
}
