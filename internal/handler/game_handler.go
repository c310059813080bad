package handler

import (
	"net/http"

	"github.com/freeeve/salvo/internal/auth"
	"github.com/freeeve/salvo/internal/model"
	"github.com/freeeve/salvo/internal/service"
	"github.com/freeeve/salvo/pkg/battleship"
)

// GameHandler handles game and shot endpoints.
type GameHandler struct {
	gameSvc *service.GameService
}

// NewGameHandler creates a GameHandler.
func NewGameHandler(gameSvc *service.GameService) *GameHandler {
	return &GameHandler{gameSvc: gameSvc}
}

// CreateGame handles POST /api/v1/games
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	var req service.CreateOptions
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	game, err := h.gameSvc.CreateGame(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, game)
}

// ListGames handles GET /api/v1/games
func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	games, err := h.gameSvc.ListGames(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if games == nil {
		games = []model.Game{}
	}
	writeJSON(w, http.StatusOK, games)
}

// GetGame handles GET /api/v1/games/{id}
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	view, err := h.gameSvc.GetGame(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ListShots handles GET /api/v1/games/{id}/shots
func (h *GameHandler) ListShots(w http.ResponseWriter, r *http.Request) {
	shots, err := h.gameSvc.Shots(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if shots == nil {
		shots = []model.Shot{}
	}
	writeJSON(w, http.StatusOK, shots)
}

// Fire handles POST /api/v1/games/{id}/shots
func (h *GameHandler) Fire(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	var req struct {
		Row  *int   `json:"row"`
		Col  *int   `json:"col"`
		Cell string `json:"cell,omitempty"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var cell battleship.Cell
	switch {
	case req.Cell != "":
		c, err := battleship.ParseCell(req.Cell)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		cell = c
	case req.Row != nil && req.Col != nil:
		cell = battleship.Cell{Row: *req.Row, Col: *req.Col}
	default:
		writeError(w, http.StatusBadRequest, "row and col are required")
		return
	}

	out, err := h.gameSvc.Fire(r.Context(), userID, r.PathValue("id"), cell)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Suggest handles GET /api/v1/games/{id}/suggest
func (h *GameHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	sg, err := h.gameSvc.Suggest(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if r.URL.Query().Get("field") == "false" {
		sg.Field = nil
	}
	writeJSON(w, http.StatusOK, sg)
}

// Autoplay handles POST /api/v1/games/{id}/autoplay
func (h *GameHandler) Autoplay(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	out, err := h.gameSvc.Autoplay(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Rules handles GET /api/v1/rules
func (h *GameHandler) Rules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.gameSvc.Rules())
}
