package room

import "github.com/wfunc/chidiya/models"

// Broadcaster defines the interface for delivering events to connections.
// This is defined here to break the import cycle between room and broadcast.
// The room only ever addresses individual connections for the two
// originator-only events (room:error, you:eliminated) and the room:state
// request reply.
type Broadcaster interface {
	BroadcastToRoom(code string, event string, payload interface{}) error
	SendToPlayer(playerID string, event string, payload interface{}) error
}

// Metrics receives game lifecycle counters. Implemented by monitor.Monitor;
// tests substitute a mock.
type Metrics interface {
	RoomOpened()
	RoomClosed()
	RoundPlayed()
	PlayerEliminated()
	GameFinished()
}

// GameRecorder persists a finished game. Implementations must not block
// the caller; the room invokes this from its event loop.
type GameRecorder interface {
	SaveGame(record *models.GameRecord)
}

type nopMetrics struct{}

func (nopMetrics) RoomOpened()       {}
func (nopMetrics) RoomClosed()       {}
func (nopMetrics) RoundPlayed()      {}
func (nopMetrics) PlayerEliminated() {}
func (nopMetrics) GameFinished()     {}
