package room

import "errors"

// Rejections are reported to the originating connection only, via
// room:error. They never partially mutate room state.
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomClosed       = errors.New("room is closed")
	ErrNotMember        = errors.New("you are not in this room")
	ErrGameInProgress   = errors.New("game already in progress")
	ErrNotHost          = errors.New("only the host can do that")
	ErrNotEnoughPlayers = errors.New("need at least 2 players to start")
	ErrNotAllReady      = errors.New("all players must be ready")
	ErrInvalidState     = errors.New("action not allowed right now")
)
