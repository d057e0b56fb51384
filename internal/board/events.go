package board

import (
	"time"

	"github.com/hyperengineering/questboard/internal/state"
	"github.com/hyperengineering/questboard/internal/types"
)

// weekdays are indexed by time.Weekday.
var weekdays = [...]string{"Domingo", "Lunes", "Martes", "Miercoles", "Jueves", "Viernes", "Sabado"}

// isoMillis matches JavaScript's Date.toISOString.
const isoMillis = "2006-01-02T15:04:05.000Z"

// WeekdayName returns the Spanish name of t's local weekday.
func WeekdayName(t time.Time) string {
	return weekdays[t.Weekday()]
}

// notify stamps ev with the player and the time and hands it to the notifier.
func (b *Board) notify(ev types.ActivityEvent) {
	if b.notifier == nil {
		return
	}
	now := b.now()
	ev.Player = b.meta.Player
	if ev.Player == "" {
		ev.Player = state.DefaultPlayer
	}
	ev.DayOfWeek = WeekdayName(now)
	ev.DateISO = now.UTC().Format(isoMillis)
	b.notifier.Enqueue(ev)
}
