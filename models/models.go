// models/models.go
package models

import (
	"time"
)

// Choice is a player's answer to a round's question.
type Choice string

const (
	ChoiceUd    Choice = "ud"
	ChoiceNotUd Choice = "not_ud"
)

// Valid reports whether the choice is one of the two accepted values.
func (c Choice) Valid() bool {
	return c == ChoiceUd || c == ChoiceNotUd
}

// RoomStatus is the wire representation of a room's lifecycle state.
const (
	StatusLobby    = "lobby"
	StatusPlaying  = "playing"
	StatusGameOver = "game_over"
)

// RoomSettings 房间设置
type RoomSettings struct {
	RoundMs        int64 `json:"roundMs"`
	IntermissionMs int64 `json:"intermissionMs"`
}

// PlayerSnapshot 玩家快照
type PlayerSnapshot struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Avatar       string `json:"avatar"`
	Ready        bool   `json:"ready"`
	Alive        bool   `json:"alive"`
	FailedAtWord string `json:"failedAtWord,omitempty"`
	FailedChoice Choice `json:"failedChoice,omitempty"`
}

// RoundSnapshot 回合快照
type RoundSnapshot struct {
	ItemID       string `json:"itemId"`
	ItemText     string `json:"itemText"`
	ItemImage    string `json:"itemImage,omitempty"`
	Flies        bool   `json:"flies"`
	RoundStartTs int64  `json:"roundStartTs"`
	DeadlineTs   int64  `json:"deadlineTs"`
}

// RoomSnapshot 房间权威快照，作为 room:state 的负载整体下发
type RoomSnapshot struct {
	Code     string                    `json:"code"`
	HostID   string                    `json:"hostId"`
	Status   string                    `json:"status"`
	Players  map[string]PlayerSnapshot `json:"players"`
	Round    *RoundSnapshot            `json:"round,omitempty"`
	WinnerID string                    `json:"winnerId,omitempty"`
	Settings RoomSettings              `json:"settings"`
}

// ResultDetail 单个玩家的回合结果
type ResultDetail struct {
	Choice  Choice `json:"choice,omitempty"`
	Correct bool   `json:"correct"`
	InTime  bool   `json:"inTime"`
}

// RoundResultsSummary 回合结果汇总，每回合重新计算，不持久化
type RoundResultsSummary struct {
	ItemText  string                  `json:"itemText"`
	Flies     bool                    `json:"flies"`
	PerPlayer map[string]ResultDetail `json:"perPlayer"`
}

// --- request payloads ---

type CreateRequest struct {
	Name string `json:"name"`
}

type JoinRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type ReadyRequest struct {
	Ready bool `json:"ready"`
}

type SettingsRequest struct {
	RoundMs int64 `json:"roundMs"`
}

type AnswerRequest struct {
	Choice Choice `json:"choice"`
}

// --- notification payloads ---

type ErrorMessage struct {
	Message string `json:"message"`
}

type MemberMessage struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RoundStartedMessage struct {
	Round RoundSnapshot `json:"round"`
}

type TickMessage struct {
	ServerTs   int64 `json:"serverTs"`
	DeadlineTs int64 `json:"deadlineTs"`
}

type RoundResultsMessage struct {
	Eliminated []string            `json:"eliminated"`
	Survivors  []string            `json:"survivors"`
	Summary    RoundResultsSummary `json:"summary"`
}

type EliminatedMessage struct {
	Word string `json:"word"`
}

// --- persistence models ---

// PlayerOutcome 玩家结局（用于游戏记录）
type PlayerOutcome struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Outcome      string `json:"outcome"` // win/lose/draw
	FailedAtWord string `json:"failed_at_word,omitempty"`
	FailedChoice Choice `json:"failed_choice,omitempty"`
}

// GameRecord 一局游戏的记录
type GameRecord struct {
	RoomCode   string          `json:"room_code"`
	WinnerID   string          `json:"winner_id,omitempty"`
	WinnerName string          `json:"winner_name,omitempty"`
	Rounds     int             `json:"rounds"`
	DurationMs int64           `json:"duration_ms"`
	Players    []PlayerOutcome `json:"players"`
	CreatedAt  time.Time       `json:"created_at"`
}

// GameStats 聚合统计
type GameStats struct {
	TotalGames  int64 `json:"total_games"`
	Draws       int64 `json:"draws"`
	TotalRounds int64 `json:"total_rounds"`
}
