package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/salvo/internal/bot"
	"github.com/freeeve/salvo/internal/bot/hypothesis"
	"github.com/freeeve/salvo/internal/config"
	"github.com/freeeve/salvo/internal/metrics"
	"github.com/freeeve/salvo/internal/model"
	"github.com/freeeve/salvo/internal/repository"
	"github.com/freeeve/salvo/pkg/battleship"
)

var (
	ErrNotFound     = errors.New("game not found")
	ErrForbidden    = errors.New("only the creator can shoot at this board")
	ErrInvalidRules = errors.New("invalid game rules")
	ErrLogDiverged  = errors.New("shot log does not match the board")
)

// maxReloads bounds how often acquire reloads a session that was dropped
// while the caller waited for it.
const maxReloads = 3

// CreateOptions override the server rules for one game. Zero values keep
// the server default.
type CreateOptions struct {
	Size      int   `json:"size,omitempty"`
	Fleet     []int `json:"fleet,omitempty"`
	Adjacency *bool `json:"adjacency,omitempty"`
	Seed      int64 `json:"seed,omitempty"`
}

// ShotOutcome is the answer to one fired shot.
type ShotOutcome struct {
	Cell     battleship.Cell   `json:"cell"`
	Result   battleship.Result `json:"result"`
	Moves    int               `json:"moves"`
	Sunk     int               `json:"sunk"`
	Finished bool              `json:"finished"`
}

// GameView is a game as clients may see it: no ship positions. Degraded
// names why the session's strategy was replaced by the heuristic, if it was.
type GameView struct {
	*model.Game
	Grid      string `json:"grid"`
	Sunk      int    `json:"sunk"`
	Remaining int    `json:"remaining_ships"`
	Strategy  string `json:"strategy"`
	Degraded  string `json:"degraded,omitempty"`
}

// Suggestion is the server's best next shot for a game.
type Suggestion struct {
	Cell           battleship.Cell `json:"cell"`
	Strategy       string          `json:"strategy"`
	HitMode        bool            `json:"hit_mode"`
	Field          [][]float64     `json:"field,omitempty"`
	LiveHypotheses int             `json:"live_hypotheses,omitempty"`
	Degraded       string          `json:"degraded,omitempty"`
}

type liveNoder interface {
	LiveNodes() int
}

type treeStatser interface {
	Stats() hypothesis.Stats
}

type pastShot struct {
	cell battleship.Cell
	res  battleship.Result
}

// session is the in-memory state of one live game: the ground-truth board
// and the strategy tracking it. Each session has its own lock and shares
// nothing with other sessions.
type session struct {
	mu       sync.Mutex
	gameID   string
	board    *battleship.Board
	fleet    battleship.Fleet
	strategy bot.Strategy
	history  []pastShot
	live     int
	seen     hypothesis.Stats
	degraded string
}

func (s *session) observe(c battleship.Cell, res battleship.Result) {
	s.history = append(s.history, pastShot{c, res})
	if err := s.strategy.Observe(c, res); err != nil {
		s.degrade(err)
	}
	s.trackLive()
}

// degrade replaces a strategy that rejected a result with the heuristic,
// replaying the session history into it, so the game can still be advised.
// The reason stays on the session and is reported to clients.
func (s *session) degrade(cause error) {
	reason := "rejected"
	if errors.Is(cause, hypothesis.ErrContradiction) {
		reason = "contradiction"
	}
	log.Error().Err(cause).Str("gameId", s.gameID).Str("strategy", s.strategy.Name()).
		Str("reason", reason).Msg("Strategy rejected a result, switching to easy")

	easy := bot.NewHeuristicStrategy(s.board.Size(), s.fleet)
	for _, h := range s.history {
		if err := easy.Observe(h.cell, h.res); err != nil {
			log.Error().Err(err).Str("gameId", s.gameID).Str("cell", h.cell.String()).
				Str("result", h.res.String()).Msg("Heuristic replay skipped a shot")
		}
	}
	s.strategy = easy
	s.degraded = reason
	metrics.StrategyDegraded(reason)
}

// trackLive moves the live-hypothesis gauge by this session's change.
func (s *session) trackLive() {
	n := 0
	if ln, ok := s.strategy.(liveNoder); ok {
		n = ln.LiveNodes()
	}
	metrics.AddLiveHypotheses(n - s.live)
	s.live = n

	if ts, ok := s.strategy.(treeStatser); ok {
		st := ts.Stats()
		metrics.HypothesisChanged(st.Branches-s.seen.Branches, st.Pruned-s.seen.Pruned,
			st.Collapses-s.seen.Collapses, st.Merges-s.seen.Merges)
		s.seen = st
	}
}

func (s *session) release() {
	metrics.AddLiveHypotheses(-s.live)
	s.live = 0
}

// GameService runs games: it owns the boards, records every shot, and keeps
// one solver session per live game.
type GameService struct {
	games       repository.GameRepository
	cache       repository.GameCache
	rules       config.Rules
	broadcaster Broadcaster

	mu       sync.Mutex
	sessions map[string]*session
}

// NewGameService creates a GameService. cache may be nil.
func NewGameService(games repository.GameRepository, cache repository.GameCache, rules config.Rules, b Broadcaster) *GameService {
	if b == nil {
		b = NoopBroadcaster{}
	}
	return &GameService{
		games:       games,
		cache:       cache,
		rules:       rules,
		broadcaster: b,
		sessions:    make(map[string]*session),
	}
}

// Rules returns the server defaults.
func (s *GameService) Rules() config.Rules { return s.rules }

func (s *GameService) newSession(gameID string, board *battleship.Board, fleet battleship.Fleet) *session {
	sess := &session{
		gameID:   gameID,
		board:    board,
		fleet:    fleet,
		strategy: bot.StrategyForDifficulty(s.rules.Difficulty, board.Size(), fleet),
	}
	sess.trackLive()
	return sess
}

// CreateGame generates a hidden board for creatorID.
func (s *GameService) CreateGame(ctx context.Context, creatorID string, opts CreateOptions) (*model.Game, error) {
	rules := s.rules
	if opts.Size > 0 {
		rules.Size = opts.Size
	}
	if len(opts.Fleet) > 0 {
		rules.Fleet = opts.Fleet
	}
	if opts.Adjacency != nil {
		rules.Adjacency = *opts.Adjacency
	}
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	fleet := rules.FleetValue()
	board, err := battleship.Generate(fleet, rules.Size, rules.Adjacency, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}

	g := &model.Game{
		ID:        uuid.NewString(),
		CreatorID: creatorID,
		Status:    model.GameActive,
		Size:      rules.Size,
		Fleet:     fleet.String(),
		Adjacency: rules.Adjacency,
		Seed:      seed,
		Layout:    battleship.EncodeLayout(board.Layout()),
	}
	if err := s.games.Create(ctx, g); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetLayout(ctx, g.ID, g.Layout, g.Size); err != nil {
			log.Warn().Err(err).Str("gameId", g.ID).Msg("Failed to cache layout")
		}
	}

	s.mu.Lock()
	s.sessions[g.ID] = s.newSession(g.ID, board, fleet)
	s.mu.Unlock()

	metrics.GameCreated()
	log.Info().Str("gameId", g.ID).Str("creator", creatorID).Int("size", g.Size).Str("fleet", g.Fleet).Msg("Game created")
	return g, nil
}

// ListGames returns the games a user created.
func (s *GameService) ListGames(ctx context.Context, userID string) ([]model.Game, error) {
	return s.games.ListByUser(ctx, userID)
}

// GetGame returns a game and its observed grid.
func (s *GameService) GetGame(ctx context.Context, gameID string) (*GameView, error) {
	g, sess, err := s.acquire(ctx, gameID)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()
	return &GameView{
		Game:      g,
		Grid:      battleship.EncodeGrid(sess.board.Observed()),
		Sunk:      sess.board.SunkCount(),
		Remaining: len(sess.fleet) - sess.board.SunkCount(),
		Strategy:  sess.strategy.Name(),
		Degraded:  sess.degraded,
	}, nil
}

// Fire shoots at cell on behalf of userID.
func (s *GameService) Fire(ctx context.Context, userID, gameID string, cell battleship.Cell) (*ShotOutcome, error) {
	g, sess, err := s.acquire(ctx, gameID)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()
	if g.CreatorID != userID {
		return nil, ErrForbidden
	}
	return s.fire(ctx, g, sess, cell)
}

// Autoplay fires the server strategy's choice on behalf of userID.
func (s *GameService) Autoplay(ctx context.Context, userID, gameID string) (*ShotOutcome, error) {
	g, sess, err := s.acquire(ctx, gameID)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()
	if g.CreatorID != userID {
		return nil, ErrForbidden
	}
	if sess.board.Finished() {
		return nil, battleship.ErrGameOver
	}
	cell, err := sess.strategy.NextShot()
	if err != nil {
		return nil, fmt.Errorf("pick shot: %w", err)
	}
	return s.fire(ctx, g, sess, cell)
}

// Suggest returns the best next shot without firing it.
func (s *GameService) Suggest(ctx context.Context, gameID string) (*Suggestion, error) {
	_, sess, err := s.acquire(ctx, gameID)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()
	if sess.board.Finished() {
		return nil, battleship.ErrGameOver
	}
	cell, err := sess.strategy.NextShot()
	if err != nil {
		return nil, fmt.Errorf("pick shot: %w", err)
	}
	sg := &Suggestion{Cell: cell, Strategy: sess.strategy.Name(), Degraded: sess.degraded}
	if fr, ok := sess.strategy.(bot.FieldReporter); ok {
		sg.HitMode = fr.HitMode()
		sg.Field = fr.Field().Rows()
	}
	if ln, ok := sess.strategy.(liveNoder); ok {
		sg.LiveHypotheses = ln.LiveNodes()
	}
	return sg, nil
}

// fire applies one shot. The caller holds sess.mu.
func (s *GameService) fire(ctx context.Context, g *model.Game, sess *session, cell battleship.Cell) (*ShotOutcome, error) {
	res, err := sess.board.Move(cell.Row, cell.Col)
	if err != nil {
		return nil, err
	}
	shot := &model.Shot{
		GameID: g.ID,
		Seq:    sess.board.Moves(),
		Row:    cell.Row,
		Col:    cell.Col,
		Result: res.String(),
	}
	if err := s.games.SaveShot(ctx, shot); err != nil {
		// The board is ahead of the log now; rebuild from the log next time.
		s.drop(g.ID)
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.AppendShot(ctx, g.ID, *shot); err != nil {
			log.Warn().Err(err).Str("gameId", g.ID).Msg("Failed to cache shot")
		}
	}
	sess.observe(cell, res)
	metrics.ShotFired(res.String())

	out := &ShotOutcome{
		Cell:     cell,
		Result:   res,
		Moves:    sess.board.Moves(),
		Sunk:     sess.board.SunkCount(),
		Finished: sess.board.Finished(),
	}
	s.broadcaster.BroadcastGameEvent(g.ID, EventShotFired, out)

	if out.Finished {
		s.finish(ctx, g, out.Moves)
	}
	return out, nil
}

func (s *GameService) finish(ctx context.Context, g *model.Game, moves int) {
	if err := s.games.SetFinished(ctx, g.ID, moves); err != nil {
		log.Error().Err(err).Str("gameId", g.ID).Msg("Failed to mark game finished")
	}
	if s.cache != nil {
		if err := s.cache.DeleteGameData(ctx, g.ID); err != nil {
			log.Warn().Err(err).Str("gameId", g.ID).Msg("Failed to clear cached game")
		}
	}
	s.drop(g.ID)
	metrics.GameFinished(moves)
	s.broadcaster.BroadcastGameEvent(g.ID, EventGameEnded, GameEnded{Moves: moves, Layout: g.Layout})
	log.Info().Str("gameId", g.ID).Int("moves", moves).Msg("Game finished")
}

func (s *GameService) drop(gameID string) {
	s.mu.Lock()
	sess, ok := s.sessions[gameID]
	delete(s.sessions, gameID)
	s.mu.Unlock()
	if ok {
		sess.release()
	}
}

// acquire returns the game row and its session with the session lock held.
// A session dropped while the caller waited for its lock is ahead of the
// shot log, so acquire discards it and loads again.
func (s *GameService) acquire(ctx context.Context, gameID string) (*model.Game, *session, error) {
	for range maxReloads {
		g, sess, err := s.load(ctx, gameID)
		if err != nil {
			return nil, nil, err
		}
		sess.mu.Lock()
		if s.registered(gameID, sess) {
			return g, sess, nil
		}
		sess.mu.Unlock()
		log.Debug().Str("gameId", gameID).Msg("Session dropped while waiting, reloading")
	}
	return nil, nil, fmt.Errorf("game %s: session dropped %d times while waiting", gameID, maxReloads)
}

func (s *GameService) registered(gameID string, sess *session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[gameID] == sess
}

// load returns the game row and its session, rebuilding the session from
// the shot log when it is not in memory.
func (s *GameService) load(ctx context.Context, gameID string) (*model.Game, *session, error) {
	g, err := s.games.FindByID(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	if g == nil {
		return nil, nil, ErrNotFound
	}

	s.mu.Lock()
	sess, ok := s.sessions[gameID]
	s.mu.Unlock()
	if ok {
		return g, sess, nil
	}

	built, err := s.rebuild(ctx, g)
	if err != nil {
		return nil, nil, err
	}
	s.mu.Lock()
	if sess, ok = s.sessions[gameID]; !ok {
		sess = built
		s.sessions[gameID] = sess
	}
	s.mu.Unlock()
	if sess != built {
		built.release()
	}
	return g, sess, nil
}

// rebuild replays the recorded shots onto a fresh board and strategy.
func (s *GameService) rebuild(ctx context.Context, g *model.Game) (*session, error) {
	start := time.Now()
	layout, shots, err := s.replayLog(ctx, g)
	if err != nil {
		return nil, err
	}
	ships, err := battleship.DecodeLayout(layout)
	if err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}
	board, err := battleship.NewBoard(g.Size, ships)
	if err != nil {
		return nil, fmt.Errorf("rebuild board: %w", err)
	}
	fleet, err := battleship.ParseFleet(g.Fleet)
	if err != nil {
		return nil, fmt.Errorf("parse fleet: %w", err)
	}

	sess := s.newSession(g.ID, board, fleet)
	for _, shot := range shots {
		cell := battleship.Cell{Row: shot.Row, Col: shot.Col}
		res, err := board.Move(cell.Row, cell.Col)
		if err != nil {
			sess.release()
			return nil, fmt.Errorf("%w: shot %d at %s: %v", ErrLogDiverged, shot.Seq, cell, err)
		}
		if res.String() != shot.Result {
			sess.release()
			return nil, fmt.Errorf("%w: shot %d at %s recorded %s, board says %s", ErrLogDiverged, shot.Seq, cell, shot.Result, res)
		}
		sess.observe(cell, res)
	}

	metrics.SolverRebuilt()
	log.Debug().Str("gameId", g.ID).Int("shots", len(shots)).Dur("took", time.Since(start)).Msg("Session rebuilt")
	return sess, nil
}

// replayLog prefers the cache and falls back to the database, refilling
// the cache for live games.
func (s *GameService) replayLog(ctx context.Context, g *model.Game) (string, []model.Shot, error) {
	if s.cache != nil {
		layout, _, err := s.cache.GetLayout(ctx, g.ID)
		if err == nil && layout != "" {
			shots, err := s.cache.Shots(ctx, g.ID)
			if err == nil && len(shots) >= g.Moves {
				return layout, shots, nil
			}
		}
	}

	shots, err := s.games.ListShots(ctx, g.ID)
	if err != nil {
		return "", nil, err
	}
	if s.cache != nil && g.Status == model.GameActive {
		if err := s.refillCache(ctx, g, shots); err != nil {
			log.Warn().Err(err).Str("gameId", g.ID).Msg("Failed to refill cache")
		}
	}
	return g.Layout, shots, nil
}

func (s *GameService) refillCache(ctx context.Context, g *model.Game, shots []model.Shot) error {
	if err := s.cache.DeleteGameData(ctx, g.ID); err != nil {
		return err
	}
	if err := s.cache.SetLayout(ctx, g.ID, g.Layout, g.Size); err != nil {
		return err
	}
	for _, shot := range shots {
		if err := s.cache.AppendShot(ctx, g.ID, shot); err != nil {
			return err
		}
	}
	return nil
}

// Shots returns the recorded shots of a game in order.
func (s *GameService) Shots(ctx context.Context, gameID string) ([]model.Shot, error) {
	g, err := s.games.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrNotFound
	}
	return s.games.ListShots(ctx, gameID)
}
