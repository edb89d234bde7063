// room/states.go
package room

import (
	"encoding/json"

	"github.com/wfunc/chidiya/models"
	"github.com/wfunc/chidiya/network"
	"github.com/wfunc/chidiya/state"
)

// lobbyState 等待状态：组员准备、主持人调参、开局
type lobbyState struct {
	state.StateBase
	room *Room
}

func (s *lobbyState) OnEnter() {
	r := s.room
	r.gen++
	r.round = nil
	r.nextRoundAt = 0
	r.winnerID = ""
	r.lastItemID = ""
	for _, p := range r.players {
		p.Ready = false
		p.Alive = true
		p.FailedAtWord = ""
		p.FailedChoice = ""
	}
	r.setStatus(models.StatusLobby)
	if len(r.players) > 0 {
		r.broadcastState()
	}
}

func (s *lobbyState) HandleEvent(actor state.Player, event string, data []byte) error {
	r := s.room
	p := r.player(actor.GetID())

	switch event {
	case network.EvtRoomReady:
		var req models.ReadyRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return err
		}
		p.Ready = req.Ready
		r.broadcastState()
		return nil

	case network.EvtRoomSettings:
		if p.ID != r.hostID {
			return ErrNotHost
		}
		var req models.SettingsRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return err
		}
		r.settings.RoundMs = clamp(req.RoundMs, MinRoundMs, MaxRoundMs)
		r.broadcastState()
		return nil

	case network.EvtGameStart:
		if p.ID != r.hostID {
			return ErrNotHost
		}
		if len(r.players) < 2 {
			// a single-player room has no opponent to eliminate
			return ErrNotEnoughPlayers
		}
		for _, member := range r.players {
			if !member.Ready {
				return ErrNotAllReady
			}
		}
		for _, member := range r.players {
			member.Alive = true
			member.FailedAtWord = ""
			member.FailedChoice = ""
		}
		return r.machine.ChangeState(r.playing)

	case network.EvtRoundAnswer:
		return nil // no round to answer; silently ignored

	default:
		return ErrInvalidState
	}
}

// playingState 对局状态：回合计时由 OnUpdate 驱动
type playingState struct {
	state.StateBase
	room *Room
}

func (s *playingState) OnEnter() {
	r := s.room
	r.setStatus(models.StatusPlaying)
	r.roundsPlayed = 0
	r.gameStartedTs = nowMs()
	r.broadcaster.BroadcastToRoom(r.code, network.EvtGameStarted, struct{}{})
	// the first round starts slightly in the future so clients can run
	// their ready/go countdown against server time
	r.startRound(nowMs() + r.firstRoundDelay.Milliseconds())
}

func (s *playingState) OnUpdate() {
	s.room.tickRound()
}

func (s *playingState) HandleEvent(actor state.Player, event string, data []byte) error {
	r := s.room

	switch event {
	case network.EvtRoundAnswer:
		var req models.AnswerRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil // malformed answers are dropped, not errors
		}
		r.recordAnswer(actor.GetID(), req.Choice)
		return nil
	default:
		return ErrInvalidState
	}
}

// gameOverState 结算状态：只有主持人能把房间重置回大厅
type gameOverState struct {
	state.StateBase
	room *Room
}

func (s *gameOverState) OnEnter() {
	r := s.room
	r.gen++
	r.round = nil
	r.nextRoundAt = 0
	r.setStatus(models.StatusGameOver)
	r.metrics.GameFinished()
	r.broadcastState()
	r.recordGame()
}

func (s *gameOverState) HandleEvent(actor state.Player, event string, data []byte) error {
	r := s.room

	switch event {
	case network.EvtRoomReset:
		if actor.GetID() != r.hostID {
			return ErrNotHost
		}
		return r.machine.ChangeState(r.lobby)
	case network.EvtRoundAnswer:
		return nil // stale answers after the game ended are ignored
	default:
		return ErrInvalidState
	}
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
