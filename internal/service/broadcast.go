package service

// Events pushed to everyone watching a game.
const (
	EventShotFired = "shot_fired"
	EventGameEnded = "game_ended"
)

// GameEnded is the payload of EventGameEnded. The layout is only revealed
// once the fleet is gone.
type GameEnded struct {
	Moves  int    `json:"moves"`
	Layout string `json:"layout"`
}

// Broadcaster pushes game events to spectators. The WebSocket hub
// implements it.
type Broadcaster interface {
	BroadcastGameEvent(gameID string, eventType string, data any)
}

// NoopBroadcaster drops every event.
type NoopBroadcaster struct{}

func (NoopBroadcaster) BroadcastGameEvent(string, string, any) {}
