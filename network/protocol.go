package network

// Client -> server events.
const (
	EvtRoomCreate   = "room:create"
	EvtRoomJoin     = "room:join"
	EvtRoomLeave    = "room:leave"
	EvtRoomReady    = "room:ready"
	EvtRoomSettings = "room:settings"
	EvtGameStart    = "game:start"
	EvtRoundAnswer  = "round:answer"
	EvtRoomReset    = "room:reset"
	EvtRoomState    = "room:state" // also server -> client with a snapshot payload
)

// Server -> client events.
const (
	EvtRoomError     = "room:error"
	EvtPlayerJoined  = "player:joined"
	EvtPlayerLeft    = "player:left"
	EvtGameStarted   = "game:started"
	EvtRoundStarted  = "round:started"
	EvtRoundTick     = "round:tick"
	EvtRoundResults  = "round:results"
	EvtYouEliminated = "you:eliminated"
)
