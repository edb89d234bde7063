package room

import (
	"testing"
	"time"

	"github.com/wfunc/chidiya/items"
	"github.com/wfunc/chidiya/models"
	"github.com/wfunc/chidiya/network"
	"github.com/wfunc/chidiya/timer"
)

// fastOptions shrinks every game interval so a full game fits in a test.
func fastOptions(bank *items.Bank) Options {
	return Options{
		Settings:     models.RoomSettings{RoundMs: 200, IntermissionMs: 50},
		TickInterval: 10 * time.Millisecond,
		Bank:         bank,
	}
}

func fliesBank() *items.Bank {
	return items.NewBank([]items.Item{{ID: "chidiya", Text: "Chidiya", Flies: true}})
}

func groundedBank() *items.Bank {
	return items.NewBank([]items.Item{{ID: "patthar", Text: "Patthar", Flies: false}})
}

func newTestTimers() *timer.Manager {
	return timer.NewManagerWithResolution(10 * time.Millisecond)
}

func mustJoin(t *testing.T, rm *Room, id, name string) {
	t.Helper()
	if err := rm.Join(NewPlayer(id, name)); err != nil {
		t.Fatalf("join %s failed: %v", id, err)
	}
}

func mustDo(t *testing.T, rm *Room, actor, event string, data []byte) {
	t.Helper()
	if err := rm.Do(actor, event, data); err != nil {
		t.Fatalf("%s by %s failed: %v", event, actor, err)
	}
}

func readyAll(t *testing.T, rm *Room, ids ...string) {
	t.Helper()
	for _, id := range ids {
		mustDo(t, rm, id, network.EvtRoomReady, []byte(`{"ready":true}`))
	}
}

func waitForStatus(t *testing.T, rm *Room, status string) {
	t.Helper()
	waitFor(t, 5*time.Second, "status "+status, func() bool {
		return rm.Status() == status
	})
}

func TestGame_LastAliveWins(t *testing.T) {
	b := NewMockBroadcaster()
	rm := NewRoom("GAME1", fastOptions(fliesBank()), b)
	defer rm.Close()

	mustJoin(t, rm, "a", "Asha")
	mustJoin(t, rm, "b", "Bela")
	readyAll(t, rm, "a", "b")
	mustDo(t, rm, "a", network.EvtGameStart, nil)

	// the item flies, a answers correctly, b stays silent past the deadline
	mustDo(t, rm, "a", network.EvtRoundAnswer, []byte(`{"choice":"ud"}`))

	waitForStatus(t, rm, models.StatusGameOver)

	snap := snapshotOf(t, rm)
	if snap.WinnerID != "a" {
		t.Errorf("expected winner a, got %q", snap.WinnerID)
	}
	if snap.Players["a"].Alive != true {
		t.Error("the winner must remain alive")
	}
	if bp := snap.Players["b"]; bp.Alive || bp.FailedAtWord != "Chidiya" {
		t.Errorf("b must be eliminated on Chidiya, got alive=%v failedAtWord=%q", bp.Alive, bp.FailedAtWord)
	}

	ev, ok := b.firstRoomEvent(network.EvtRoundResults)
	if !ok {
		t.Fatal("expected a round:results broadcast")
	}
	msg := ev.Payload.(models.RoundResultsMessage)
	if len(msg.Eliminated) != 1 || msg.Eliminated[0] != "b" {
		t.Errorf("expected eliminated [b], got %v", msg.Eliminated)
	}
	if len(msg.Survivors) != 1 || msg.Survivors[0] != "a" {
		t.Errorf("expected survivors [a], got %v", msg.Survivors)
	}
	detail := msg.Summary.PerPlayer["a"]
	if detail.Choice != models.ChoiceUd || !detail.Correct || !detail.InTime {
		t.Errorf("a's detail should be a timely correct ud, got %+v", detail)
	}

	// elimination notices are directed, never broadcast
	if n := b.playerEventCount("b", network.EvtYouEliminated); n != 1 {
		t.Errorf("expected 1 you:eliminated for b, got %d", n)
	}
	if n := b.playerEventCount("a", network.EvtYouEliminated); n != 0 {
		t.Errorf("a must not receive you:eliminated, got %d", n)
	}
}

func TestGame_AllWrongIsDraw(t *testing.T) {
	b := NewMockBroadcaster()
	rm := NewRoom("GAME2", fastOptions(groundedBank()), b)
	defer rm.Close()

	mustJoin(t, rm, "a", "Asha")
	mustJoin(t, rm, "b", "Bela")
	mustJoin(t, rm, "c", "Chand")
	readyAll(t, rm, "a", "b", "c")
	mustDo(t, rm, "a", network.EvtGameStart, nil)

	// the item does not fly; everyone claims it does
	for _, id := range []string{"a", "b", "c"} {
		mustDo(t, rm, id, network.EvtRoundAnswer, []byte(`{"choice":"ud"}`))
	}

	waitForStatus(t, rm, models.StatusGameOver)

	snap := snapshotOf(t, rm)
	if snap.WinnerID != "" {
		t.Errorf("a full wipe-out is a draw, got winner %q", snap.WinnerID)
	}
	for id, p := range snap.Players {
		if p.Alive {
			t.Errorf("player %s must be eliminated", id)
		}
	}
}

func TestGame_FirstAnswerWins(t *testing.T) {
	b := NewMockBroadcaster()
	opts := fastOptions(fliesBank())
	opts.Settings.IntermissionMs = 60_000 // hold after the first round
	rm := NewRoom("GAME3", opts, b)
	defer rm.Close()

	mustJoin(t, rm, "a", "Asha")
	mustJoin(t, rm, "b", "Bela")
	readyAll(t, rm, "a", "b")
	mustDo(t, rm, "a", network.EvtGameStart, nil)

	mustDo(t, rm, "a", network.EvtRoundAnswer, []byte(`{"choice":"ud"}`))
	// the revision is ignored; only the first submission counts
	mustDo(t, rm, "a", network.EvtRoundAnswer, []byte(`{"choice":"not_ud"}`))
	mustDo(t, rm, "b", network.EvtRoundAnswer, []byte(`{"choice":"ud"}`))

	waitFor(t, 5*time.Second, "round results", func() bool {
		return b.countRoomEvents(network.EvtRoundResults) >= 1
	})

	ev, _ := b.firstRoomEvent(network.EvtRoundResults)
	msg := ev.Payload.(models.RoundResultsMessage)
	if got := msg.Summary.PerPlayer["a"].Choice; got != models.ChoiceUd {
		t.Errorf("expected a's first answer ud to stand, got %q", got)
	}
	if len(msg.Eliminated) != 0 {
		t.Errorf("both answered correctly, expected no eliminations, got %v", msg.Eliminated)
	}
}

func TestGame_DeadlineArithmetic(t *testing.T) {
	b := NewMockBroadcaster()
	opts := fastOptions(fliesBank())
	opts.FirstRoundDelay = 300 * time.Millisecond
	rm := NewRoom("GAME4", opts, b)
	defer rm.Close()

	mustJoin(t, rm, "a", "Asha")
	mustJoin(t, rm, "b", "Bela")
	readyAll(t, rm, "a", "b")

	before := time.Now().UnixMilli()
	mustDo(t, rm, "a", network.EvtGameStart, nil)

	ev, ok := b.firstRoomEvent(network.EvtRoundStarted)
	if !ok {
		t.Fatal("expected a round:started broadcast")
	}
	round := ev.Payload.(models.RoundStartedMessage).Round

	if round.DeadlineTs-round.RoundStartTs != opts.Settings.RoundMs {
		t.Errorf("deadline must be start + roundMs, got start=%d deadline=%d", round.RoundStartTs, round.DeadlineTs)
	}
	// the first round starts in the future so clients can count down
	if round.RoundStartTs < before+opts.FirstRoundDelay.Milliseconds() {
		t.Errorf("first round must start at least %v after the game starts, start=%d before=%d",
			opts.FirstRoundDelay, round.RoundStartTs, before)
	}

	waitFor(t, 5*time.Second, "a round tick", func() bool {
		return b.countRoomEvents(network.EvtRoundTick) >= 1
	})
	tickEv, _ := b.firstRoomEvent(network.EvtRoundTick)
	tick := tickEv.Payload.(models.TickMessage)
	if tick.DeadlineTs != round.DeadlineTs {
		t.Errorf("ticks must carry the round's deadline, got %d want %d", tick.DeadlineTs, round.DeadlineTs)
	}
	if tick.ServerTs > tick.DeadlineTs {
		t.Errorf("ticks stop at the deadline, got serverTs=%d deadlineTs=%d", tick.ServerTs, tick.DeadlineTs)
	}
}

func TestGame_IntermissionStartsNextRound(t *testing.T) {
	b := NewMockBroadcaster()
	rm := NewRoom("GAME5", fastOptions(fliesBank()), b)
	defer rm.Close()

	mustJoin(t, rm, "a", "Asha")
	mustJoin(t, rm, "b", "Bela")
	mustJoin(t, rm, "c", "Chand")
	readyAll(t, rm, "a", "b", "c")
	mustDo(t, rm, "a", network.EvtGameStart, nil)

	// a and b survive round one, c misses the deadline
	mustDo(t, rm, "a", network.EvtRoundAnswer, []byte(`{"choice":"ud"}`))
	mustDo(t, rm, "b", network.EvtRoundAnswer, []byte(`{"choice":"ud"}`))

	waitFor(t, 5*time.Second, "a second round", func() bool {
		return b.countRoomEvents(network.EvtRoundStarted) >= 2
	})

	// between and during rounds the playing snapshot always carries a round
	snap := snapshotOf(t, rm)
	if snap.Status == models.StatusPlaying && snap.Round == nil {
		t.Error("a playing room must always expose its round")
	}
}

func TestGame_LeaveDuringPlayEndsGame(t *testing.T) {
	b := NewMockBroadcaster()
	opts := fastOptions(fliesBank())
	opts.Settings.RoundMs = 8000 // leave happens mid-round
	rm := NewRoom("GAME6", opts, b)
	defer rm.Close()

	mustJoin(t, rm, "a", "Asha")
	mustJoin(t, rm, "b", "Bela")
	readyAll(t, rm, "a", "b")
	mustDo(t, rm, "a", network.EvtGameStart, nil)

	if err := rm.Leave("b"); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}

	waitForStatus(t, rm, models.StatusGameOver)
	snap := snapshotOf(t, rm)
	if snap.WinnerID != "a" {
		t.Errorf("the sole remaining player wins, got %q", snap.WinnerID)
	}
}

func TestGame_ResetReturnsToLobby(t *testing.T) {
	b := NewMockBroadcaster()
	rm := NewRoom("GAME7", fastOptions(fliesBank()), b)
	defer rm.Close()

	mustJoin(t, rm, "a", "Asha")
	mustJoin(t, rm, "b", "Bela")
	readyAll(t, rm, "a", "b")
	mustDo(t, rm, "a", network.EvtGameStart, nil)
	mustDo(t, rm, "a", network.EvtRoundAnswer, []byte(`{"choice":"ud"}`))

	waitForStatus(t, rm, models.StatusGameOver)

	if err := rm.Do("b", network.EvtRoomReset, nil); err != ErrNotHost {
		t.Errorf("only the host resets, got %v", err)
	}
	mustDo(t, rm, "a", network.EvtRoomReset, nil)

	snap := snapshotOf(t, rm)
	if snap.Status != models.StatusLobby {
		t.Fatalf("expected lobby after reset, got %s", snap.Status)
	}
	if snap.WinnerID != "" || snap.Round != nil {
		t.Errorf("reset must clear winner and round, got winner=%q round=%v", snap.WinnerID, snap.Round)
	}
	for id, p := range snap.Players {
		if p.Ready {
			t.Errorf("player %s must be un-readied after reset", id)
		}
		if !p.Alive || p.FailedAtWord != "" {
			t.Errorf("player %s must be revived after reset, alive=%v failedAtWord=%q", id, p.Alive, p.FailedAtWord)
		}
	}
}

func TestGame_StaleAnswersIgnored(t *testing.T) {
	b := NewMockBroadcaster()
	rm := NewRoom("GAME8", fastOptions(fliesBank()), b)
	defer rm.Close()

	mustJoin(t, rm, "a", "Asha")
	mustJoin(t, rm, "b", "Bela")

	// answering in the lobby or after the game is a silent no-op
	if err := rm.Do("a", network.EvtRoundAnswer, []byte(`{"choice":"ud"}`)); err != nil {
		t.Errorf("lobby answer must be ignored without error, got %v", err)
	}

	readyAll(t, rm, "a", "b")
	mustDo(t, rm, "a", network.EvtGameStart, nil)
	mustDo(t, rm, "a", network.EvtRoundAnswer, []byte(`{"choice":"ud"}`))
	waitForStatus(t, rm, models.StatusGameOver)

	if err := rm.Do("b", network.EvtRoundAnswer, []byte(`{"choice":"ud"}`)); err != nil {
		t.Errorf("post-game answer must be ignored without error, got %v", err)
	}
}

func TestRoom_StaleIntermissionDiscarded(t *testing.T) {
	b := NewMockBroadcaster()
	opts := fastOptions(fliesBank())
	opts.TickInterval = time.Hour // ticks are driven by hand below
	rm := NewRoom("GEN01", opts, b)
	rm.Close() // stop the loop so the scheduling fields can be driven directly
	time.Sleep(10 * time.Millisecond)

	// an intermission was pending when a reset bumped the generation
	rm.gen = 2
	rm.nextRoundGen = 1
	rm.nextRoundAt = nowMs() - 1

	rm.tickRound()

	if n := b.countRoomEvents(network.EvtRoundStarted); n != 0 {
		t.Errorf("a stale intermission must not start a round, got %d round:started", n)
	}
	if rm.nextRoundAt != 0 {
		t.Errorf("a stale intermission must be discarded, nextRoundAt=%d", rm.nextRoundAt)
	}

	// the same deadline with a matching generation does start the round
	rm.nextRoundGen = rm.gen
	rm.nextRoundAt = nowMs() - 1
	rm.tickRound()
	if n := b.countRoomEvents(network.EvtRoundStarted); n != 1 {
		t.Errorf("a current intermission must start the next round, got %d round:started", n)
	}
}

func TestGame_EmptyBankAbortsGame(t *testing.T) {
	b := NewMockBroadcaster()
	rm := NewRoom("GAME9", fastOptions(items.NewBank(nil)), b)
	defer rm.Close()

	mustJoin(t, rm, "a", "Asha")
	mustJoin(t, rm, "b", "Bela")
	mustJoin(t, rm, "c", "Chand")
	readyAll(t, rm, "a", "b", "c")
	mustDo(t, rm, "a", network.EvtGameStart, nil)

	waitForStatus(t, rm, models.StatusGameOver)
	if n := b.countRoomEvents(network.EvtRoomError); n == 0 {
		t.Error("expected a room:error broadcast when no items exist")
	}

	// nobody was eliminated, so nobody won
	snap := snapshotOf(t, rm)
	if snap.WinnerID != "" {
		t.Errorf("an aborted game has no winner, got %q", snap.WinnerID)
	}
	for id, p := range snap.Players {
		if !p.Alive {
			t.Errorf("player %s must still be alive after an aborted game", id)
		}
	}
}
