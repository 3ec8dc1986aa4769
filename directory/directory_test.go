package directory

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-directory/code"
)

func setup(t *testing.T, alive ...ConnectionID) (*Directory, *fakeTransport, *clock) {
	t.Helper()
	transport := newFakeTransport(alive...)
	c := &clock{at: time.Unix(1_700_000_000, 0)}
	return newTestDirectory(t, transport, c), transport, c
}

func TestCreateRoom(t *testing.T) {
	d, transport, _ := setup(t, "a")

	roomCode, err := d.CreateRoom("a")
	require.NoError(t, err)
	assert.Equal(t, "AAAAAA", roomCode)

	event, ok := transport.last("a")
	require.True(t, ok)
	assert.Equal(t, Event{Type: EventRoomCreated, Code: roomCode}, event)

	owner, ok := d.OwnerOf(roomCode)
	assert.True(t, ok)
	assert.Equal(t, ConnectionID("a"), owner)
	assert.Equal(t, 1, d.RoomCount())
}

func TestCreateRoomReplacesPreviousRoom(t *testing.T) {
	d, transport, _ := setup(t, "a", "b")
	first, err := d.CreateRoom("a")
	require.NoError(t, err)
	require.NoError(t, d.MemberJoin("a", "b"))

	second, err := d.CreateRoom("a")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	_, ok := d.OwnerOf(first)
	assert.False(t, ok)
	members, ok := d.Members(second)
	require.True(t, ok)
	assert.Empty(t, members, "a new room never inherits members")
	assert.Contains(t, transport.received("b"), EventGarbageCollected)
	assert.Equal(t, 1, d.RoomCount())
}

func TestCreateRoomCodeExhaustion(t *testing.T) {
	transport := newFakeTransport("a")
	logger := zerolog.Nop()
	d := New(transport, Options{
		Generator: code.NewGenerator(bytes.NewReader(nil)),
		Logger:    &logger,
	})

	_, err := d.CreateRoom("a")

	require.Error(t, err)
	assert.Zero(t, d.RoomCount())
	assert.Equal(t, []string{EventError}, transport.received("a"))
}

func TestJoinRoomForwardsToOwner(t *testing.T) {
	d, transport, _ := setup(t, "a", "b")
	roomCode, _ := d.CreateRoom("a")
	transport.reset()

	signal := json.RawMessage(`{"sdp":"offer"}`)
	err := d.JoinRoom("b", JoinRequest{Code: roomCode, Signal: signal, Name: "bob"})
	require.NoError(t, err)

	event, ok := transport.last("a")
	require.True(t, ok)
	assert.Equal(t, Event{Type: EventJoinRoom, Signal: signal, From: "b", Name: "bob"}, event)
	members, _ := d.Members(roomCode)
	assert.Empty(t, members, "a join request does not add the member")
}

func TestJoinRoomCodeIsCaseInsensitive(t *testing.T) {
	d, transport, _ := setup(t, "a", "b")
	_, _ = d.CreateRoom("a")
	transport.reset()

	require.NoError(t, d.JoinRoom("b", JoinRequest{Code: "aaaaaa"}))
	assert.Equal(t, []string{EventJoinRoom}, transport.received("a"))
}

func TestJoinRoomUnknownCode(t *testing.T) {
	d, transport, _ := setup(t, "a", "b")
	roomCode, _ := d.CreateRoom("a")
	transport.reset()

	err := d.JoinRoom("b", JoinRequest{Code: "ZZZZZZ"})

	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.Equal(t, []string{EventNoSuchCode}, transport.received("b"))
	assert.Empty(t, transport.received("a"))
	owner, _ := d.OwnerOf(roomCode)
	assert.Equal(t, ConnectionID("a"), owner)
	assert.Equal(t, 1, d.RoomCount())
}

func TestJoinRoomAtCapacity(t *testing.T) {
	d, transport, _ := setup(t, "a", "b", "c", "d", "e")
	roomCode, _ := d.CreateRoom("a")
	for _, m := range []ConnectionID{"b", "c", "d"} {
		require.NoError(t, d.MemberJoin("a", m))
	}
	transport.reset()

	err := d.JoinRoom("e", JoinRequest{Code: roomCode})

	assert.ErrorIs(t, err, ErrRoomFull)
	assert.Equal(t, []string{EventTooManyInRoom}, transport.received("e"))
	assert.Empty(t, transport.received("a"))
	members, _ := d.Members(roomCode)
	assert.Len(t, members, 3)
}

func TestAnswerJoinRequest(t *testing.T) {
	d, transport, _ := setup(t, "a", "b")
	signal := json.RawMessage(`{"sdp":"answer"}`)

	d.AnswerJoinRequest("b", signal)

	event, ok := transport.last("b")
	require.True(t, ok)
	assert.Equal(t, Event{Type: EventJoinAccepted, Signal: signal}, event)
}

func TestMemberJoin(t *testing.T) {
	d, transport, _ := setup(t, "a", "b")
	roomCode, _ := d.CreateRoom("a")

	require.NoError(t, d.MemberJoin("a", "b"))
	require.NoError(t, d.MemberJoin("a", "b"))

	members, _ := d.Members(roomCode)
	assert.Equal(t, []ConnectionID{"b"}, members)
	event, _ := transport.last("b")
	assert.Equal(t, Event{Type: EventJoinTrySuccessful, Code: roomCode}, event)
}

func TestMemberJoinByNonOwnerIsIgnored(t *testing.T) {
	d, transport, _ := setup(t, "a", "b", "c")
	roomCode, _ := d.CreateRoom("a")
	transport.reset()

	assert.ErrorIs(t, d.MemberJoin("b", "c"), ErrNotOwner)

	members, _ := d.Members(roomCode)
	assert.Empty(t, members)
	assert.Empty(t, transport.received("c"))
}

func TestMemberJoinWithoutMember(t *testing.T) {
	d, transport, _ := setup(t, "a")
	roomCode, _ := d.CreateRoom("a")
	transport.reset()

	assert.ErrorIs(t, d.MemberJoin("a", ""), ErrNotMember)

	members, _ := d.Members(roomCode)
	assert.Empty(t, members)
	assert.Empty(t, transport.received(""))
}

func TestMemberJoinAtCapacity(t *testing.T) {
	d, _, _ := setup(t, "a", "b", "c", "d", "e")
	roomCode, _ := d.CreateRoom("a")
	for _, m := range []ConnectionID{"b", "c", "d"} {
		require.NoError(t, d.MemberJoin("a", m))
	}

	assert.ErrorIs(t, d.MemberJoin("a", "e"), ErrRoomFull)
	members, _ := d.Members(roomCode)
	assert.Len(t, members, 3)
}

func TestConfirmJoin(t *testing.T) {
	d, transport, _ := setup(t, "a", "b")
	roomCode, _ := d.CreateRoom("a")

	require.NoError(t, d.ConfirmJoin("b", roomCode))
	require.NoError(t, d.ConfirmJoin("b", roomCode))
	require.NoError(t, d.ConfirmJoin("a", roomCode), "the host never becomes its own member")

	members, _ := d.Members(roomCode)
	assert.Equal(t, []ConnectionID{"b"}, members)

	assert.ErrorIs(t, d.ConfirmJoin("b", "QQQQQQ"), ErrRoomNotFound)
	assert.Equal(t, []string{EventNoSuchCode}, transport.received("b"))
}

func TestMemberLeave(t *testing.T) {
	d, transport, _ := setup(t, "a", "b", "c")
	roomCode, _ := d.CreateRoom("a")
	require.NoError(t, d.MemberJoin("a", "b"))
	require.NoError(t, d.MemberJoin("a", "c"))
	transport.kill("c")

	require.NoError(t, d.MemberLeave("a", "b"))
	require.NoError(t, d.MemberLeave("a", "c"))

	members, _ := d.Members(roomCode)
	assert.Empty(t, members)
	assert.Equal(t, []ConnectionID{"b"}, transport.disconnected, "only a member still connected is dropped")
}

func TestMemberLeaveValidation(t *testing.T) {
	d, transport, _ := setup(t, "a", "b", "c")
	_, _ = d.CreateRoom("a")
	require.NoError(t, d.MemberJoin("a", "b"))

	assert.ErrorIs(t, d.MemberLeave("b", "a"), ErrNotOwner)
	assert.ErrorIs(t, d.MemberLeave("a", "c"), ErrNotMember)
	assert.Empty(t, transport.disconnected)
}

func TestDisbandRoom(t *testing.T) {
	d, transport, _ := setup(t, "a", "b")
	roomCode, _ := d.CreateRoom("a")
	require.NoError(t, d.MemberJoin("a", "b"))
	transport.reset()

	assert.ErrorIs(t, d.DisbandRoom("b"), ErrNotOwner)
	require.NoError(t, d.DisbandRoom("a"))

	_, ok := d.OwnerOf(roomCode)
	assert.False(t, ok)
	_, ok = d.CodeOf("a")
	assert.False(t, ok)
	assert.Zero(t, d.RoomCount())
	assert.Equal(t, []string{EventGarbageCollected}, transport.received("a"))
	assert.Equal(t, []string{EventGarbageCollected}, transport.received("b"))
}

func TestMemberDisconnectLeavesRooms(t *testing.T) {
	d, transport, _ := setup(t, "a", "b", "c")
	first, _ := d.CreateRoom("a")
	second, _ := d.CreateRoom("b")
	require.NoError(t, d.MemberJoin("a", "c"))
	require.NoError(t, d.MemberJoin("b", "c"))

	transport.kill("c")
	d.Disconnect("c")

	for _, roomCode := range []string{first, second} {
		members, ok := d.Members(roomCode)
		require.True(t, ok)
		assert.Empty(t, members)
	}
}

func TestBijectionHolds(t *testing.T) {
	d, transport, _ := setup(t, "a", "b", "c", "d")
	_, _ = d.CreateRoom("a")
	_, _ = d.CreateRoom("b")
	require.NoError(t, d.MemberJoin("a", "c"))
	require.NoError(t, d.MemberJoin("a", "d"))
	require.NoError(t, d.MemberLeave("a", "d"))
	_, _ = d.CreateRoom("a")
	transport.kill("b")
	d.Disconnect("b")

	seen := make(map[string]ConnectionID)
	for _, owner := range []ConnectionID{"a", "b", "c", "d"} {
		roomCode, ok := d.CodeOf(owner)
		if !ok {
			continue
		}
		_, dup := seen[roomCode]
		assert.False(t, dup, "code %s bound twice", roomCode)
		seen[roomCode] = owner
		back, ok := d.OwnerOf(roomCode)
		require.True(t, ok)
		assert.Equal(t, owner, back)
	}
	assert.Len(t, seen, d.RoomCount())
}
