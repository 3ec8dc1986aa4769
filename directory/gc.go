package directory

import (
	"context"
	"time"
)

const DefaultSweepPeriod = 20 * time.Minute

// Sweep reclaims rooms that are occupied past the full threshold or empty
// past the idle threshold. Age is measured from creation. It returns the
// number of rooms reclaimed.
func (d *Directory) Sweep(now time.Time) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	reclaimed := 0
	for _, room := range d.rooms.All() {
		age := now.Sub(room.CreatedAt)
		switch {
		case room.Size() > 0 && age >= d.fullThreshold:
			d.reclaim(room, "occupied too long")
		case room.Size() == 0 && age >= d.idleThreshold:
			d.reclaim(room, "idle too long")
		default:
			continue
		}
		reclaimed++
	}
	d.log.Debug().Int("reclaimed", reclaimed).Int("rooms", d.rooms.Len()).Msg("Swept rooms")
	return reclaimed
}

// RunCollector sweeps every period until ctx is done.
func (d *Directory) RunCollector(ctx context.Context, period time.Duration) {
	if period <= 0 {
		period = DefaultSweepPeriod
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.Sweep(d.now())
		case <-ctx.Done():
			return
		}
	}
}
