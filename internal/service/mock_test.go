package service

import (
	"context"
	"errors"
	"sync"

	"github.com/freeeve/salvo/internal/model"
)

var errSaveFailed = errors.New("save failed")

type mockGameRepo struct {
	games    map[string]*model.Game
	shots    map[string][]model.Shot
	failShot bool
}

func newMockGameRepo() *mockGameRepo {
	return &mockGameRepo{
		games: make(map[string]*model.Game),
		shots: make(map[string][]model.Shot),
	}
}

func (m *mockGameRepo) Create(_ context.Context, g *model.Game) error {
	cp := *g
	m.games[g.ID] = &cp
	return nil
}

func (m *mockGameRepo) FindByID(_ context.Context, id string) (*model.Game, error) {
	g, ok := m.games[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

func (m *mockGameRepo) ListByUser(_ context.Context, userID string) ([]model.Game, error) {
	var result []model.Game
	for _, g := range m.games {
		if g.CreatorID == userID {
			result = append(result, *g)
		}
	}
	return result, nil
}

func (m *mockGameRepo) SetFinished(_ context.Context, gameID string, moves int) error {
	if g, ok := m.games[gameID]; ok {
		g.Status = model.GameFinished
		g.Moves = moves
	}
	return nil
}

func (m *mockGameRepo) Delete(_ context.Context, gameID string) error {
	delete(m.games, gameID)
	delete(m.shots, gameID)
	return nil
}

func (m *mockGameRepo) SaveShot(_ context.Context, shot *model.Shot) error {
	if m.failShot {
		return errSaveFailed
	}
	m.shots[shot.GameID] = append(m.shots[shot.GameID], *shot)
	if g, ok := m.games[shot.GameID]; ok {
		g.Moves = shot.Seq
	}
	return nil
}

func (m *mockGameRepo) ListShots(_ context.Context, gameID string) ([]model.Shot, error) {
	return append([]model.Shot(nil), m.shots[gameID]...), nil
}

// mockCache implements repository.GameCache for testing.
type mockCache struct {
	layouts map[string]string
	sizes   map[string]int
	shots   map[string][]model.Shot
}

func newMockCache() *mockCache {
	return &mockCache{
		layouts: make(map[string]string),
		sizes:   make(map[string]int),
		shots:   make(map[string][]model.Shot),
	}
}

func (c *mockCache) SetLayout(_ context.Context, gameID, layout string, size int) error {
	c.layouts[gameID] = layout
	c.sizes[gameID] = size
	return nil
}

func (c *mockCache) GetLayout(_ context.Context, gameID string) (string, int, error) {
	return c.layouts[gameID], c.sizes[gameID], nil
}

func (c *mockCache) AppendShot(_ context.Context, gameID string, shot model.Shot) error {
	c.shots[gameID] = append(c.shots[gameID], shot)
	return nil
}

func (c *mockCache) Shots(_ context.Context, gameID string) ([]model.Shot, error) {
	return append([]model.Shot(nil), c.shots[gameID]...), nil
}

func (c *mockCache) DeleteGameData(_ context.Context, gameID string) error {
	delete(c.layouts, gameID)
	delete(c.sizes, gameID)
	delete(c.shots, gameID)
	return nil
}

type broadcastEvent struct {
	gameID    string
	eventType string
	data      any
}

// recordingBroadcaster captures events for assertions.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []broadcastEvent
}

func (b *recordingBroadcaster) BroadcastGameEvent(gameID, eventType string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcastEvent{gameID, eventType, data})
}

func (b *recordingBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, e := range b.events {
		out = append(out, e.eventType)
	}
	return out
}
