package model

import (
	"time"
)

// User represents a registered user.
type User struct {
	ID          string    `json:"id"`
	Provider    string    `json:"provider"`
	ProviderID  string    `json:"provider_id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Game statuses.
const (
	GameActive   = "active"
	GameFinished = "finished"
)

// Game is one board being shot at. Layout holds the hidden ship positions
// and is never sent to clients.
type Game struct {
	ID         string     `json:"id"`
	CreatorID  string     `json:"creator_id"`
	Status     string     `json:"status"`
	Size       int        `json:"size"`
	Fleet      string     `json:"fleet"`
	Adjacency  bool       `json:"adjacency"`
	Seed       int64      `json:"seed"`
	Layout     string     `json:"-"`
	Moves      int        `json:"moves"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Shot is one fired cell and the answer it got. Seq starts at 1.
type Shot struct {
	GameID    string    `json:"game_id"`
	Seq       int       `json:"seq"`
	Row       int       `json:"row"`
	Col       int       `json:"col"`
	Result    string    `json:"result"`
	CreatedAt time.Time `json:"created_at"`
}

// Run is one finished bot game from a batch.
type Run struct {
	ID         string    `json:"id"`
	BatchID    string    `json:"batch_id"`
	Strategy   string    `json:"strategy"`
	Size       int       `json:"size"`
	Fleet      string    `json:"fleet"`
	Seed       int64     `json:"seed"`
	Moves      int       `json:"moves"`
	Won        bool      `json:"won"`
	Layout     string    `json:"layout"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
