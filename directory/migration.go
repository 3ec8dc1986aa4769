package directory

// migrate hands room to the first live member in join order, keeping its
// code. Dead members are dropped on the way. Members that already host a
// room of their own stay members. With no successor the room is reclaimed.
func (d *Directory) migrate(room *Room) {
	if room.Size() == 0 {
		d.reclaim(room, "host left empty room")
		return
	}

	roomCode, _ := d.codes.CodeOf(room.Owner)
	previous := room.Owner
	queue := room.members
	var kept []Member
	var successor *Member
	for len(queue) > 0 {
		candidate := queue[0]
		queue = queue[1:]
		if !d.transport.IsAlive(candidate.From) {
			d.log.Debug().Str("room-code", roomCode).Str("member", string(candidate.From)).Msg("Skipping dead host candidate")
			continue
		}
		if d.rooms.Hosts(candidate.From) {
			kept = append(kept, candidate)
			continue
		}
		successor = &candidate
		break
	}
	room.members = append(kept, queue...)

	if successor == nil {
		d.reclaim(room, "no live successor")
		return
	}

	d.codes.Unbind(previous)
	d.codes.BindWithCode(successor.From, roomCode)
	d.rooms.Reassign(room, successor.From)

	d.notify(successor.From, Event{Type: EventBecomeHost})
	for _, m := range room.members {
		d.notify(m.From, Event{Type: EventHostMigration})
	}
	d.log.Info().Str("room-code", roomCode).Str("previous", string(previous)).Str("owner", string(successor.From)).Msg("Host migrated")
}
