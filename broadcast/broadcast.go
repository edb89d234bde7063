// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/wfunc/chidiya/room"
	"github.com/wfunc/chidiya/session"
)

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrPlayerNotFound = errors.New("player not connected")
)

// RoomBroadcaster is a pure multicast mechanism keyed by room membership.
// It holds no game state; member lists come from the registry and live
// connections from the session manager.
type RoomBroadcaster struct {
	registry *room.Registry
	sessions *session.Manager
}

func NewRoomBroadcaster(registry *room.Registry, sessions *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		registry: registry,
		sessions: sessions,
	}
}

// BroadcastToRoom fans an event out to every current member. Individual
// send failures are skipped; the disconnect path cleans those players up.
func (b *RoomBroadcaster) BroadcastToRoom(code string, event string, payload interface{}) error {
	rm, exists := b.registry.Get(code)
	if !exists {
		return ErrRoomNotFound
	}

	for _, id := range rm.MemberIDs() {
		s, ok := b.sessions.Get(id)
		if !ok {
			continue
		}
		if err := s.Send(event, payload); err != nil {
			continue
		}
	}
	return nil
}

// SendToPlayer delivers an originator-only event (room:error,
// you:eliminated, room:state replies).
func (b *RoomBroadcaster) SendToPlayer(playerID string, event string, payload interface{}) error {
	s, ok := b.sessions.Get(playerID)
	if !ok {
		return ErrPlayerNotFound
	}
	return s.Send(event, payload)
}
