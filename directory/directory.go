package directory

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"signal-directory/code"
)

const (
	DefaultMaxMembers    = 30
	DefaultIdleThreshold = 20 * time.Minute
	DefaultFullThreshold = 4 * time.Hour
)

var (
	ErrRoomNotFound = errors.New("no room bound to code")
	ErrRoomFull     = errors.New("room is full")
	ErrNotOwner     = errors.New("connection does not host a room")
	ErrNotMember    = errors.New("connection is not a member of the room")
)

type Options struct {
	MaxMembers    int
	IdleThreshold time.Duration
	FullThreshold time.Duration
	Generator     *code.Generator
	Now           func() time.Time
	Logger        *zerolog.Logger
}

// Directory owns the code cache and the room registry. Every exported
// method runs as one step under a single lock, so the two structures are
// never observed out of sync.
type Directory struct {
	mu        sync.Mutex
	codes     *code.Cache[ConnectionID]
	rooms     *Registry
	transport Transport

	maxMembers    int
	idleThreshold time.Duration
	fullThreshold time.Duration
	now           func() time.Time
	log           zerolog.Logger
}

func New(transport Transport, opts Options) *Directory {
	d := &Directory{
		codes:         code.NewCache[ConnectionID](opts.Generator),
		rooms:         NewRegistry(),
		transport:     transport,
		maxMembers:    opts.MaxMembers,
		idleThreshold: opts.IdleThreshold,
		fullThreshold: opts.FullThreshold,
		now:           opts.Now,
	}
	if d.maxMembers <= 0 {
		d.maxMembers = DefaultMaxMembers
	}
	if d.idleThreshold <= 0 {
		d.idleThreshold = DefaultIdleThreshold
	}
	if d.fullThreshold <= 0 {
		d.fullThreshold = DefaultFullThreshold
	}
	if d.now == nil {
		d.now = time.Now
	}
	if opts.Logger != nil {
		d.log = *opts.Logger
	} else {
		d.log = log.With().Str("component", "directory").Logger()
	}
	return d
}

func (d *Directory) notify(to ConnectionID, event Event) {
	d.transport.Notify(to, event)
}

// CreateRoom installs a room owned by owner and returns its code. A room the
// owner already hosts is reclaimed first, with its members notified.
func (d *Directory) CreateRoom(owner ConnectionID) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if previous, ok := d.rooms.ByOwner(owner); ok {
		d.reclaim(previous, "replaced")
	}
	room, err := d.rooms.Create(owner, d.now())
	if err != nil {
		return "", err
	}
	roomCode, err := d.codes.Bind(owner)
	if err != nil {
		d.rooms.Delete(room)
		d.log.Error().Err(err).Str("owner", string(owner)).Msg("Allocating room code")
		d.notify(owner, Event{Type: EventError, Message: "could not allocate a room code"})
		return "", fmt.Errorf("creating room: %w", err)
	}
	d.log.Info().Str("room-code", roomCode).Str("owner", string(owner)).Msg("Created")
	d.notify(owner, Event{Type: EventRoomCreated, Code: roomCode})
	return roomCode, nil
}

type JoinRequest struct {
	Code   string
	Signal json.RawMessage
	Name   string
}

// JoinRoom forwards a join request to the host of the room bound to req.Code.
// The directory itself is not mutated.
func (d *Directory) JoinRoom(from ConnectionID, req JoinRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, err := d.resolve(req.Code)
	if err != nil {
		d.notify(from, Event{Type: EventNoSuchCode})
		return err
	}
	if room.Size() >= d.maxMembers {
		d.notify(from, Event{Type: EventTooManyInRoom})
		return ErrRoomFull
	}
	d.notify(room.Owner, Event{Type: EventJoinRoom, Signal: req.Signal, From: from, Name: req.Name})
	return nil
}

// AnswerJoinRequest relays the host's answer to the requesting connection.
func (d *Directory) AnswerJoinRequest(to ConnectionID, signal json.RawMessage) {
	d.notify(to, Event{Type: EventJoinAccepted, Signal: signal})
}

// MemberJoin registers member in the room hosted by owner and tells the
// member which code it joined.
func (d *Directory) MemberJoin(owner, member ConnectionID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms.ByOwner(owner)
	if !ok {
		return ErrNotOwner
	}
	if err := d.admit(room, member); err != nil {
		return err
	}
	roomCode, _ := d.codes.CodeOf(owner)
	d.notify(member, Event{Type: EventJoinTrySuccessful, Code: roomCode})
	return nil
}

// ConfirmJoin is the member side of the admission handshake.
func (d *Directory) ConfirmJoin(member ConnectionID, roomCode string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, err := d.resolve(roomCode)
	if err != nil {
		d.notify(member, Event{Type: EventNoSuchCode})
		return err
	}
	return d.admit(room, member)
}

func (d *Directory) admit(room *Room, member ConnectionID) error {
	if member == "" {
		return ErrNotMember
	}
	if member == room.Owner || room.Has(member) {
		return nil
	}
	if room.Size() >= d.maxMembers {
		return ErrRoomFull
	}
	room.Add(Member{From: member})
	d.log.Debug().Str("owner", string(room.Owner)).Str("member", string(member)).Msg("Member joined")
	return nil
}

// MemberLeave removes member from the room hosted by owner, dropping the
// member's connection if it is still open.
func (d *Directory) MemberLeave(owner, member ConnectionID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms.ByOwner(owner)
	if !ok {
		return ErrNotOwner
	}
	if !room.Has(member) {
		return ErrNotMember
	}
	if d.transport.IsAlive(member) {
		d.transport.Disconnect(member)
	}
	room.Remove(member)
	d.log.Debug().Str("owner", string(owner)).Str("member", string(member)).Msg("Member left")
	return nil
}

func (d *Directory) DisbandRoom(owner ConnectionID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms.ByOwner(owner)
	if !ok {
		return ErrNotOwner
	}
	d.reclaim(room, "disbanded")
	return nil
}

// Disconnect handles the end of a connection: it drops the connection from
// the rooms it joined and hands a room it hosted to a live member.
func (d *Directory) Disconnect(id ConnectionID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, room := range d.rooms.MemberOf(id) {
		room.Remove(id)
	}
	if room, ok := d.rooms.ByOwner(id); ok {
		d.migrate(room)
	}
}

func (d *Directory) resolve(roomCode string) (*Room, error) {
	owner, ok := d.codes.OwnerOf(strings.ToUpper(roomCode))
	if !ok {
		return nil, ErrRoomNotFound
	}
	room, ok := d.rooms.ByOwner(owner)
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// reclaim notifies everyone in room and removes it with its code.
func (d *Directory) reclaim(room *Room, reason string) {
	for _, m := range room.members {
		d.notify(m.From, Event{Type: EventGarbageCollected})
	}
	roomCode, _ := d.codes.CodeOf(room.Owner)
	d.rooms.Delete(room)
	d.codes.Unbind(room.Owner)
	d.notify(room.Owner, Event{Type: EventGarbageCollected})
	d.log.Info().Str("room-code", roomCode).Str("owner", string(room.Owner)).Str("reason", reason).Msg("Removing room")
}

func (d *Directory) CodeOf(owner ConnectionID) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.codes.CodeOf(owner)
}

func (d *Directory) OwnerOf(roomCode string) (ConnectionID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.codes.OwnerOf(strings.ToUpper(roomCode))
}

// Members lists the members of the room bound to roomCode.
func (d *Directory) Members(roomCode string) ([]ConnectionID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, err := d.resolve(roomCode)
	if err != nil {
		return nil, false
	}
	ids := make([]ConnectionID, 0, room.Size())
	for _, m := range room.members {
		ids = append(ids, m.From)
	}
	return ids, true
}

func (d *Directory) RoomCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rooms.Len()
}
