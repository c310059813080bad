package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/freeeve/salvo/internal/auth"
	"github.com/freeeve/salvo/internal/bot"
	"github.com/freeeve/salvo/internal/config"
	"github.com/freeeve/salvo/internal/handler"
	"github.com/freeeve/salvo/internal/model"
	"github.com/freeeve/salvo/internal/service"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func (m *memUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id], nil
}

func (m *memUsers) FindByProviderID(_ context.Context, provider, providerID string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Provider == provider && u.ProviderID == providerID {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memUsers) Upsert(ctx context.Context, provider, providerID, displayName, avatarURL string) (*model.User, error) {
	if u, _ := m.FindByProviderID(ctx, provider, providerID); u != nil {
		return u, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &model.User{ID: fmt.Sprintf("u%d", len(m.users)+1), Provider: provider, ProviderID: providerID, DisplayName: displayName}
	m.users[u.ID] = u
	return u, nil
}

func (m *memUsers) UpdateDisplayName(_ context.Context, id, displayName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.DisplayName = displayName
	}
	return nil
}

type memGames struct {
	mu    sync.Mutex
	games map[string]*model.Game
	shots map[string][]model.Shot
}

func (m *memGames) Create(_ context.Context, g *model.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *g
	m.games[g.ID] = &cp
	return nil
}

func (m *memGames) FindByID(_ context.Context, id string) (*model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

func (m *memGames) ListByUser(_ context.Context, userID string) ([]model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Game
	for _, g := range m.games {
		if g.CreatorID == userID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (m *memGames) SetFinished(_ context.Context, id string, moves int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[id].Status = model.GameFinished
	m.games[id].Moves = moves
	return nil
}

func (m *memGames) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.games, id)
	return nil
}

func (m *memGames) SaveShot(_ context.Context, s *model.Shot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shots[s.GameID] = append(m.shots[s.GameID], *s)
	m.games[s.GameID].Moves = s.Seq
	return nil
}

func (m *memGames) ListShots(_ context.Context, id string) ([]model.Shot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Shot(nil), m.shots[id]...), nil
}

func newTestServer(t *testing.T) (*httptest.Server, *memGames) {
	t.Helper()
	games := &memGames{games: map[string]*model.Game{}, shots: map[string][]model.Shot{}}
	hub := handler.NewHub()
	rules := config.Rules{Size: 8, Fleet: []int{4, 3, 2}, Adjacency: true, Difficulty: "hard"}
	cfg := &config.Config{AllowedOrigins: "*", DevLogin: true}
	srv := httptest.NewServer(newRouter(routerDeps{
		cfg:      cfg,
		jwtMgr:   auth.NewJWTManager("test-secret"),
		google:   auth.NewGoogleOAuth("", "", ""),
		userRepo: &memUsers{users: map[string]*model.User{}},
		gameSvc:  service.NewGameService(games, nil, rules, hub),
		hub:      hub,
		health: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"ok"}`))
		},
	}))
	t.Cleanup(srv.Close)
	return srv, games
}

func TestBotPlaysThroughRouter(t *testing.T) {
	for _, difficulty := range []string{"hard", "server"} {
		t.Run(difficulty, func(t *testing.T) {
			srv, games := newTestServer(t)
			o := bot.NewOrchestrator(bot.NewClient("bot-"+difficulty, srv.URL), bot.GameOptions{Seed: 21}, difficulty, 0)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			gameID, moves, err := o.Run(ctx)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			g, _ := games.FindByID(ctx, gameID)
			if g == nil || g.Status != model.GameFinished {
				t.Fatalf("game not finished: %+v", g)
			}
			if g.Moves != moves || moves < 9 || moves > 64 {
				t.Errorf("moves: server %d, bot %d", g.Moves, moves)
			}
		})
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, path := range []string{"/api/v1/games", "/api/v1/users/me", "/api/v1/rules"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, resp.StatusCode)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	c := bot.NewClient("metrics", srv.URL)
	if err := c.Login(); err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateGame(bot.GameOptions{}); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{"salvo_games_created_total", `route="POST /api/v1/games"`} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output lacks %s", want)
		}
	}
}
