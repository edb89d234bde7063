// room/scheduler.go
package room

import (
	"time"

	"github.com/wfunc/chidiya/items"
	"github.com/wfunc/chidiya/logger"
	"github.com/wfunc/chidiya/models"
	"github.com/wfunc/chidiya/network"
)

// liveRound is the round currently shown to the room. It stays attached
// (resolved) through the intermission so the snapshot invariant
// "status == playing iff round is present" holds between rounds.
type liveRound struct {
	item         items.Item
	startTs      int64
	deadlineTs   int64
	answers      map[string]RecordedAnswer
	aliveAtStart []string
	resolved     bool
}

func (rd *liveRound) snapshot() models.RoundSnapshot {
	return models.RoundSnapshot{
		ItemID:       rd.item.ID,
		ItemText:     rd.item.Text,
		ItemImage:    rd.item.Image,
		Flies:        rd.item.Flies,
		RoundStartTs: rd.startTs,
		DeadlineTs:   rd.deadlineTs,
	}
}

// startRound picks the next item and broadcasts round:started. The deadline
// is always startTs + roundMs on the server clock; clients never do their
// own deadline arithmetic.
func (r *Room) startRound(startTs int64) {
	item, err := r.bank.Pick(r.lastItemID)
	if err != nil {
		// fatal to this room's game only; the room itself survives
		logger.Log.Errorf("room %s: cannot start round: %v", r.code, err)
		r.broadcaster.BroadcastToRoom(r.code, network.EvtRoomError, models.ErrorMessage{Message: "no questions available"})
		r.endGame()
		return
	}
	r.lastItemID = item.ID

	r.round = &liveRound{
		item:         item,
		startTs:      startTs,
		deadlineTs:   startTs + r.settings.RoundMs,
		answers:      make(map[string]RecordedAnswer),
		aliveAtStart: r.alivePlayerIDs(),
	}
	r.nextRoundAt = 0

	r.broadcaster.BroadcastToRoom(r.code, network.EvtRoundStarted, models.RoundStartedMessage{Round: r.round.snapshot()})
	r.broadcastState()
}

// tickRound advances round timing. Called from the loop ticker while the
// room is playing, so it shares the same serialization as client events.
func (r *Room) tickRound() {
	now := nowMs()

	if r.round != nil && !r.round.resolved {
		if now >= r.round.deadlineTs {
			r.resolveRound(now)
			return
		}
		r.broadcaster.BroadcastToRoom(r.code, network.EvtRoundTick, models.TickMessage{
			ServerTs:   now,
			DeadlineTs: r.round.deadlineTs,
		})
		return
	}

	if r.nextRoundAt > 0 && now >= r.nextRoundAt {
		if r.nextRoundGen != r.gen {
			// the game was reset while the intermission was pending
			r.nextRoundAt = 0
			return
		}
		r.startRound(now)
	}
}

// recordAnswer captures a submission. First answer wins; everything else is
// a silent no-op so duplicates and stale submissions never surface as
// errors. Elimination is deferred to the deadline.
func (r *Room) recordAnswer(playerID string, choice models.Choice) {
	if !choice.Valid() {
		return
	}
	p := r.player(playerID)
	if p == nil || !p.Alive {
		return
	}
	if r.round == nil || r.round.resolved {
		return
	}
	if _, dup := r.round.answers[playerID]; dup {
		return
	}
	r.round.answers[playerID] = RecordedAnswer{Choice: choice, At: nowMs()}
}

// resolveRound applies the evaluator at the deadline, so every player is
// judged against the same moment regardless of when they answered.
func (r *Room) resolveRound(now int64) {
	rd := r.round
	rd.resolved = true

	// players who left mid-round drop out of the evaluation
	alive := make([]string, 0, len(rd.aliveAtStart))
	for _, id := range rd.aliveAtStart {
		if r.player(id) != nil {
			alive = append(alive, id)
		}
	}

	out := Evaluate(EvalRound{
		ItemText:   rd.item.Text,
		Flies:      rd.item.Flies,
		DeadlineTs: rd.deadlineTs,
	}, alive, rd.answers)

	for _, id := range out.Eliminated {
		p := r.player(id)
		p.Alive = false
		p.FailedAtWord = rd.item.Text
		if detail, ok := out.Summary.PerPlayer[id]; ok {
			p.FailedChoice = detail.Choice
		}
		r.broadcaster.SendToPlayer(id, network.EvtYouEliminated, models.EliminatedMessage{Word: rd.item.Text})
		r.metrics.PlayerEliminated()
	}

	r.roundsPlayed++
	r.metrics.RoundPlayed()

	r.broadcaster.BroadcastToRoom(r.code, network.EvtRoundResults, models.RoundResultsMessage{
		Eliminated: out.Eliminated,
		Survivors:  out.Survivors,
		Summary:    out.Summary,
	})
	r.broadcastState()

	if r.aliveCount() <= 1 {
		r.endGame()
		return
	}
	r.nextRoundAt = now + r.settings.IntermissionMs
	r.nextRoundGen = r.gen
}

// endGame transitions to game_over. The winner is the sole survivor; any
// other alive count (a wiped-out draw, an aborted game) ends with no winner.
func (r *Room) endGame() {
	r.winnerID = ""
	if alive := r.alivePlayerIDs(); len(alive) == 1 {
		r.winnerID = alive[0]
	}
	r.machine.ChangeState(r.gameOver)
}

// recordGame hands the finished game to the recorder, if one is attached.
func (r *Room) recordGame() {
	if r.recorder == nil || len(r.players) == 0 {
		return
	}

	rec := &models.GameRecord{
		RoomCode:   r.code,
		WinnerID:   r.winnerID,
		Rounds:     r.roundsPlayed,
		DurationMs: nowMs() - r.gameStartedTs,
		Players:    make([]models.PlayerOutcome, 0, len(r.players)),
		CreatedAt:  time.Now(),
	}
	for _, p := range r.players {
		outcome := "lose"
		switch {
		case p.ID == r.winnerID:
			outcome = "win"
			rec.WinnerName = p.Name
		case r.winnerID == "":
			outcome = "draw"
		}
		rec.Players = append(rec.Players, models.PlayerOutcome{
			ID:           p.ID,
			Name:         p.Name,
			Outcome:      outcome,
			FailedAtWord: p.FailedAtWord,
			FailedChoice: p.FailedChoice,
		})
	}
	r.recorder.SaveGame(rec)
}
