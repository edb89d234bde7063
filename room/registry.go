// room/registry.go
package room

import (
	"math/rand"
	"sync"
	"time"

	"github.com/wfunc/chidiya/logger"
	"github.com/wfunc/chidiya/session"
	"github.com/wfunc/chidiya/timer"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 5
)

// RoomInfo 房间概览（用于管理接口）
type RoomInfo struct {
	Code    string `json:"code"`
	Status  string `json:"status"`
	Players int    `json:"players"`
}

// Registry owns the code -> room table and the rooms' lifetimes. Rooms are
// created here, looked up here, and destroyed here; no connection owns a
// room.
type Registry struct {
	rooms       map[string]*Room
	mutex       sync.RWMutex
	opts        Options
	broadcaster Broadcaster
	emptyTTL    time.Duration
	timers      *timer.Manager
	sweepID     int64
}

// NewRegistry creates a registry. When timers is non-nil a periodic sweep
// destroys rooms that have sat empty longer than emptyTTL.
func NewRegistry(opts Options, emptyTTL time.Duration, timers *timer.Manager) *Registry {
	if emptyTTL <= 0 {
		emptyTTL = time.Minute
	}
	opts = opts.withDefaults()
	reg := &Registry{
		rooms:    make(map[string]*Room),
		opts:     opts,
		emptyTTL: emptyTTL,
		timers:   timers,
	}
	if timers != nil {
		interval := emptyTTL / 2
		if interval < time.Second {
			interval = time.Second
		}
		reg.sweepID = timers.Schedule(interval, interval, reg.sweep)
	}
	return reg
}

// SetBroadcaster wires the fan-out after both sides exist; rooms created
// before this point would have nowhere to send.
func (reg *Registry) SetBroadcaster(b Broadcaster) {
	reg.mutex.Lock()
	defer reg.mutex.Unlock()
	reg.broadcaster = b
}

// Create makes a room with a fresh code and the requester as host.
func (reg *Registry) Create(sess *session.Session, name string) (*Room, *Player, error) {
	reg.mutex.Lock()
	code := reg.generateCodeLocked()
	rm := NewRoom(code, reg.opts, reg.broadcaster)
	reg.rooms[code] = rm
	reg.mutex.Unlock()

	player := NewPlayer(sess.ID, name)
	if err := rm.Join(player); err != nil {
		reg.Remove(code)
		return nil, nil, err
	}
	reg.opts.Metrics.RoomOpened()

	logger.Log.Infof("room %s created by %s (%s)", code, player.Name, player.ID)
	return rm, player, nil
}

// Join adds a player to an existing lobby.
func (reg *Registry) Join(code string, sess *session.Session, name string) (*Room, *Player, error) {
	rm, ok := reg.Get(code)
	if !ok {
		return nil, nil, ErrRoomNotFound
	}

	player := NewPlayer(sess.ID, name)
	if err := rm.Join(player); err != nil {
		return nil, nil, err
	}

	logger.Log.Infof("player %s (%s) joined room %s", player.Name, player.ID, code)
	return rm, player, nil
}

// Leave removes a member; the room handles host reassignment itself.
// Empty rooms linger until the sweep so a briefly-abandoned lobby can be
// rejoined through its code.
func (reg *Registry) Leave(code, playerID string) error {
	rm, ok := reg.Get(code)
	if !ok {
		return ErrRoomNotFound
	}
	return rm.Leave(playerID)
}

func (reg *Registry) Get(code string) (*Room, bool) {
	reg.mutex.RLock()
	defer reg.mutex.RUnlock()
	rm, ok := reg.rooms[code]
	return rm, ok
}

// Remove destroys a room and stops its event loop.
func (reg *Registry) Remove(code string) {
	reg.mutex.Lock()
	rm, ok := reg.rooms[code]
	if ok {
		delete(reg.rooms, code)
	}
	reg.mutex.Unlock()

	if ok {
		rm.Close()
		reg.opts.Metrics.RoomClosed()
		logger.Log.Infof("room %s destroyed", code)
	}
}

func (reg *Registry) Count() int {
	reg.mutex.RLock()
	defer reg.mutex.RUnlock()
	return len(reg.rooms)
}

// List reports a point-in-time overview of all rooms.
func (reg *Registry) List() []RoomInfo {
	reg.mutex.RLock()
	defer reg.mutex.RUnlock()

	infos := make([]RoomInfo, 0, len(reg.rooms))
	for _, rm := range reg.rooms {
		infos = append(infos, RoomInfo{
			Code:    rm.Code(),
			Status:  rm.Status(),
			Players: rm.PlayerCount(),
		})
	}
	return infos
}

// Stop cancels the sweep task. Rooms themselves are closed via Remove.
func (reg *Registry) Stop() {
	if reg.timers != nil {
		reg.timers.Cancel(reg.sweepID)
	}
}

// sweep destroys rooms that have been empty beyond the TTL.
func (reg *Registry) sweep() {
	cutoff := time.Now().Add(-reg.emptyTTL)

	reg.mutex.RLock()
	var expired []string
	for code, rm := range reg.rooms {
		if since := rm.EmptySince(); !since.IsZero() && since.Before(cutoff) {
			expired = append(expired, code)
		}
	}
	reg.mutex.RUnlock()

	for _, code := range expired {
		reg.Remove(code)
	}
}

// generateCodeLocked draws codes until one misses the active set. Codes are
// unique among active rooms at any instant; collisions are rejected and
// regenerated, never reused.
func (reg *Registry) generateCodeLocked() string {
	buf := make([]byte, codeLength)
	for {
		for i := range buf {
			buf[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
		}
		code := string(buf)
		if _, taken := reg.rooms[code]; !taken {
			return code
		}
	}
}
