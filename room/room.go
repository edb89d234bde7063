// room/room.go
package room

import (
	"sync"
	"time"

	"github.com/wfunc/chidiya/items"
	"github.com/wfunc/chidiya/models"
	"github.com/wfunc/chidiya/network"
	"github.com/wfunc/chidiya/state"
)

// Host-adjustable round duration bounds, in milliseconds.
const (
	MinRoundMs = 500
	MaxRoundMs = 8000
)

// Options configures a new room. Zero values fall back to sane defaults so
// tests can construct rooms tersely.
type Options struct {
	Settings        models.RoomSettings
	TickInterval    time.Duration
	FirstRoundDelay time.Duration
	Bank            *items.Bank
	Metrics         Metrics
	Recorder        GameRecorder
}

func (o Options) withDefaults() Options {
	if o.Settings.RoundMs == 0 {
		o.Settings.RoundMs = 4000
	}
	if o.Settings.IntermissionMs == 0 {
		o.Settings.IntermissionMs = 1000
	}
	if o.TickInterval == 0 {
		o.TickInterval = 100 * time.Millisecond
	}
	if o.Bank == nil {
		o.Bank = items.DefaultBank()
	}
	if o.Metrics == nil {
		o.Metrics = nopMetrics{}
	}
	return o
}

// command is the single unit of work flowing through a room's inbox. Joins
// carry the prepared player; snapshot requests carry a reply channel of
// their own.
type command struct {
	actor    string
	event    string
	data     []byte
	join     *Player
	snapshot chan models.RoomSnapshot
	reply    chan error
}

// Room 是一个房间的权威状态。All mutation happens on the room's own
// goroutine: client events and scheduler ticks are funneled through the
// same loop, so no two of them ever interleave a read-modify-write.
type Room struct {
	code     string
	hostID   string
	players  []*Player // insertion order = join order
	settings models.RoomSettings
	round    *liveRound
	winnerID string

	// scheduling state, owned by the loop
	gen           uint64
	nextRoundAt   int64
	nextRoundGen  uint64
	lastItemID    string
	roundsPlayed  int
	gameStartedTs int64

	machine  state.StateMachine
	lobby    *lobbyState
	playing  *playingState
	gameOver *gameOverState

	bank            *items.Bank
	broadcaster     Broadcaster
	metrics         Metrics
	recorder        GameRecorder
	tickInterval    time.Duration
	firstRoundDelay time.Duration

	inbox     chan command
	closeChan chan struct{}
	closeOnce sync.Once
	ticker    *time.Ticker

	// mirror fields readable outside the loop
	mirror     sync.RWMutex
	status     string
	memberIDs  []string
	emptySince time.Time

	createdAt time.Time
}

// NewRoom creates a room in the lobby state and starts its event loop.
func NewRoom(code string, opts Options, broadcaster Broadcaster) *Room {
	opts = opts.withDefaults()

	r := &Room{
		code:            code,
		settings:        opts.Settings,
		bank:            opts.Bank,
		broadcaster:     broadcaster,
		metrics:         opts.Metrics,
		recorder:        opts.Recorder,
		tickInterval:    opts.TickInterval,
		firstRoundDelay: opts.FirstRoundDelay,
		inbox:           make(chan command, 64),
		closeChan:       make(chan struct{}),
		createdAt:       time.Now(),
		status:          models.StatusLobby,
	}

	r.lobby = &lobbyState{StateBase: state.StateBase{ID: models.StatusLobby}, room: r}
	r.playing = &playingState{StateBase: state.StateBase{ID: models.StatusPlaying}, room: r}
	r.gameOver = &gameOverState{StateBase: state.StateBase{ID: models.StatusGameOver}, room: r}
	r.machine = state.NewBaseStateMachine(r.lobby)

	r.ticker = time.NewTicker(r.tickInterval)
	go r.loop()

	return r
}

// loop is the room's single consumer: inbound events and timer ticks share
// one sequential protocol.
func (r *Room) loop() {
	for {
		select {
		case cmd := <-r.inbox:
			r.handle(cmd)
		case <-r.ticker.C:
			r.machine.GetCurrentState().OnUpdate()
		case <-r.closeChan:
			r.ticker.Stop()
			return
		}
	}
}

func (r *Room) handle(cmd command) {
	if cmd.snapshot != nil {
		cmd.snapshot <- r.buildSnapshot()
		return
	}
	if cmd.join != nil {
		cmd.reply <- r.addPlayer(cmd.join)
		return
	}

	switch cmd.event {
	case network.EvtRoomLeave:
		r.removePlayer(cmd.actor)
		cmd.reply <- nil
	case network.EvtRoomState:
		r.broadcaster.SendToPlayer(cmd.actor, network.EvtRoomState, r.buildSnapshot())
		cmd.reply <- nil
	default:
		p := r.player(cmd.actor)
		if p == nil {
			cmd.reply <- ErrNotMember
			return
		}
		cmd.reply <- r.machine.GetCurrentState().HandleEvent(p, cmd.event, cmd.data)
	}
}

// --- loop-side mutation ---

func (r *Room) addPlayer(p *Player) error {
	if r.statusID() != models.StatusLobby {
		return ErrGameInProgress
	}
	if r.player(p.ID) != nil {
		return nil // already a member
	}

	r.players = append(r.players, p)
	if len(r.players) == 1 {
		r.hostID = p.ID
	}
	r.updateMirror()

	r.broadcaster.BroadcastToRoom(r.code, network.EvtPlayerJoined, models.MemberMessage{ID: p.ID, Name: p.Name})
	r.broadcastState()
	return nil
}

func (r *Room) removePlayer(id string) {
	idx := -1
	for i, p := range r.players {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	p := r.players[idx]
	r.players = append(r.players[:idx], r.players[idx+1:]...)
	if r.hostID == id && len(r.players) > 0 {
		// host falls to the earliest-joined remaining member
		r.hostID = r.players[0].ID
	}
	r.updateMirror()

	r.broadcaster.BroadcastToRoom(r.code, network.EvtPlayerLeft, models.MemberMessage{ID: p.ID, Name: p.Name})

	if len(r.players) == 0 {
		r.gen++
		r.nextRoundAt = 0
		if r.statusID() == models.StatusPlaying {
			r.endGame()
		}
		return // the registry sweep destroys empty rooms after the TTL
	}

	if r.statusID() == models.StatusPlaying && r.aliveCount() <= 1 {
		r.endGame()
		return
	}
	r.broadcastState()
}

func (r *Room) player(id string) *Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) aliveCount() int {
	n := 0
	for _, p := range r.players {
		if p.Alive {
			n++
		}
	}
	return n
}

func (r *Room) alivePlayerIDs() []string {
	ids := make([]string, 0, len(r.players))
	for _, p := range r.players {
		if p.Alive {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func (r *Room) statusID() string {
	return r.machine.GetCurrentState().GetID()
}

func (r *Room) buildSnapshot() models.RoomSnapshot {
	players := make(map[string]models.PlayerSnapshot, len(r.players))
	for _, p := range r.players {
		players[p.ID] = p.snapshot()
	}

	snap := models.RoomSnapshot{
		Code:     r.code,
		HostID:   r.hostID,
		Status:   r.statusID(),
		Players:  players,
		WinnerID: r.winnerID,
		Settings: r.settings,
	}
	if snap.Status == models.StatusPlaying && r.round != nil {
		rs := r.round.snapshot()
		snap.Round = &rs
	}
	return snap
}

func (r *Room) broadcastState() {
	r.broadcaster.BroadcastToRoom(r.code, network.EvtRoomState, r.buildSnapshot())
}

func (r *Room) updateMirror() {
	ids := make([]string, len(r.players))
	for i, p := range r.players {
		ids[i] = p.ID
	}

	r.mirror.Lock()
	r.memberIDs = ids
	if len(ids) == 0 {
		if r.emptySince.IsZero() {
			r.emptySince = time.Now()
		}
	} else {
		r.emptySince = time.Time{}
	}
	r.mirror.Unlock()
}

func (r *Room) setStatus(status string) {
	r.mirror.Lock()
	r.status = status
	r.mirror.Unlock()
}

// --- external API, safe from any goroutine ---

func (r *Room) post(cmd command) error {
	select {
	case r.inbox <- cmd:
	case <-r.closeChan:
		return ErrRoomClosed
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-r.closeChan:
		return ErrRoomClosed
	}
}

// Join adds a prepared player, failing unless the room is in the lobby.
func (r *Room) Join(p *Player) error {
	return r.post(command{join: p, reply: make(chan error, 1)})
}

// Leave removes the player. Unknown ids are ignored.
func (r *Room) Leave(playerID string) error {
	return r.Do(playerID, network.EvtRoomLeave, nil)
}

// Do submits a client event for serialized processing and waits for the
// validation result.
func (r *Room) Do(actorID, event string, data []byte) error {
	return r.post(command{actor: actorID, event: event, data: data, reply: make(chan error, 1)})
}

// Snapshot returns the authoritative view, built on the room's own
// goroutine.
func (r *Room) Snapshot() (models.RoomSnapshot, error) {
	ch := make(chan models.RoomSnapshot, 1)
	select {
	case r.inbox <- command{snapshot: ch}:
	case <-r.closeChan:
		return models.RoomSnapshot{}, ErrRoomClosed
	}
	select {
	case snap := <-ch:
		return snap, nil
	case <-r.closeChan:
		return models.RoomSnapshot{}, ErrRoomClosed
	}
}

// Close stops the event loop. Pending timers can no longer mutate state.
func (r *Room) Close() {
	r.closeOnce.Do(func() {
		close(r.closeChan)
	})
}

func (r *Room) Code() string {
	return r.code
}

func (r *Room) Status() string {
	r.mirror.RLock()
	defer r.mirror.RUnlock()
	return r.status
}

// MemberIDs returns a copy of the current member ids, for broadcast fan-out.
func (r *Room) MemberIDs() []string {
	r.mirror.RLock()
	defer r.mirror.RUnlock()
	ids := make([]string, len(r.memberIDs))
	copy(ids, r.memberIDs)
	return ids
}

func (r *Room) PlayerCount() int {
	r.mirror.RLock()
	defer r.mirror.RUnlock()
	return len(r.memberIDs)
}

// EmptySince reports when the room last became empty; zero while members
// remain.
func (r *Room) EmptySince() time.Time {
	r.mirror.RLock()
	defer r.mirror.RUnlock()
	return r.emptySince
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}
