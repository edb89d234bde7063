package room

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"

	"github.com/wfunc/chidiya/models"
)

var avatars = []string{"🐦", "🦜", "🦉", "🦚", "🐧", "🦆", "🦅", "🐤", "🦩", "🕊️"}

// Player is a room member. The ID equals the owning connection's session id
// and is stable for the connection's lifetime.
type Player struct {
	ID           string
	Name         string
	Avatar       string
	Ready        bool
	Alive        bool
	FailedAtWord string
	FailedChoice models.Choice
}

// NewPlayer builds a member for the given connection identity. The avatar is
// deterministic from the id so reconnecting clients keep a stable look.
func NewPlayer(id, name string) *Player {
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Player-%03d", rand.Intn(1000))
	}
	return &Player{
		ID:     id,
		Name:   name,
		Avatar: avatarFor(id),
		Alive:  true,
	}
}

func avatarFor(id string) string {
	h := fnv.New32a()
	h.Write([]byte(id))
	return avatars[h.Sum32()%uint32(len(avatars))]
}

func (p *Player) GetID() string {
	return p.ID
}

func (p *Player) snapshot() models.PlayerSnapshot {
	return models.PlayerSnapshot{
		ID:           p.ID,
		Name:         p.Name,
		Avatar:       p.Avatar,
		Ready:        p.Ready,
		Alive:        p.Alive,
		FailedAtWord: p.FailedAtWord,
		FailedChoice: p.FailedChoice,
	}
}
