package models

import "time"

type Event struct {
	ID         int32
	Title      string
	DateTime   time.Time
	Tournament bool
	Active     bool

	// UnconfirmedPlayers is in signup order; ConfirmedPlayers by player id.
	UnconfirmedPlayers []int32
	ConfirmedPlayers   []int32
}

// RosterEntry is one row of an event roster.
type RosterEntry struct {
	EventID   int32
	PlayerID  int32
	Confirmed bool
}
