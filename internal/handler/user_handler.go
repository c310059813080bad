package handler

import (
	"context"
	"net/http"

	"github.com/freeeve/salvo/internal/auth"
	"github.com/freeeve/salvo/internal/model"
	"github.com/freeeve/salvo/internal/repository"
)

// GameLister lists the games a user created.
type GameLister interface {
	ListGames(ctx context.Context, userID string) ([]model.Game, error)
}

// Profile is a user with a summary of their games.
type Profile struct {
	*model.User
	GamesPlayed   int `json:"games_played"`
	GamesFinished int `json:"games_finished"`
	BestMoves     int `json:"best_moves,omitempty"`
}

// UserHandler handles user profile endpoints.
type UserHandler struct {
	userRepo repository.UserRepository
	games    GameLister
}

// NewUserHandler creates a UserHandler. games may be nil.
func NewUserHandler(userRepo repository.UserRepository, games GameLister) *UserHandler {
	return &UserHandler{userRepo: userRepo, games: games}
}

// GetMe handles GET /api/v1/users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	user, err := h.userRepo.FindByID(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	p := Profile{User: user}
	if h.games != nil {
		games, err := h.games.ListGames(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		p.GamesPlayed = len(games)
		for _, g := range games {
			if g.Status != model.GameFinished {
				continue
			}
			p.GamesFinished++
			if p.BestMoves == 0 || g.Moves < p.BestMoves {
				p.BestMoves = g.Moves
			}
		}
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdateMe handles PATCH /api/v1/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	var req struct {
		DisplayName string `json:"display_name"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "display_name is required")
		return
	}

	if err := h.userRepo.UpdateDisplayName(r.Context(), userID, req.DisplayName); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	user, _ := h.userRepo.FindByID(r.Context(), userID)
	writeJSON(w, http.StatusOK, user)
}
