package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hostcard/pokerroom/internal/api/middleware"
	"github.com/hostcard/pokerroom/internal/api/request"
	"github.com/hostcard/pokerroom/internal/api/response"
	"github.com/hostcard/pokerroom/internal/model"
	"github.com/hostcard/pokerroom/internal/services/registry"
	"github.com/hostcard/pokerroom/internal/services/room"
)

// PlayerHandler handles player seat endpoints
type PlayerHandler struct {
	roomController  *room.Controller
	registryService *registry.Service
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(roomController *room.Controller, registryService *registry.Service) *PlayerHandler {
	return &PlayerHandler{
		roomController:  roomController,
		registryService: registryService,
	}
}

// Join handles POST /api/v1/rooms/{code}/join. Unauthenticated: this is
// how a device gets its session token in the first place. Rejoining
// under the same name resumes the existing seat with a fresh token.
func (h *PlayerHandler) Join(w http.ResponseWriter, r *http.Request) {
	code := model.RoomCode(mux.Vars(r)["code"])

	var req request.JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	player, session, err := h.registryService.Join(r.Context(), code, req.Name)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.JoinResponseFromSession(player, session))
}

// Fold handles POST /api/v1/rooms/{code}/fold
func (h *PlayerHandler) Fold(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	code := model.RoomCode(mux.Vars(r)["code"])
	if err := requireSeat(session, code); err != nil {
		WriteError(w, err)
		return
	}

	player, err := h.roomController.Fold(r.Context(), code, session.PlayerID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(player, session.PlayerID))
}

// Reveal handles POST /api/v1/rooms/{code}/reveal
func (h *PlayerHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	code := model.RoomCode(mux.Vars(r)["code"])
	if err := requireSeat(session, code); err != nil {
		WriteError(w, err)
		return
	}

	player, err := h.roomController.ToggleReveal(r.Context(), code, session.PlayerID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(player, session.PlayerID))
}

// Leave handles POST /api/v1/rooms/{code}/leave
func (h *PlayerHandler) Leave(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	code := model.RoomCode(mux.Vars(r)["code"])
	if err := requireSeat(session, code); err != nil {
		WriteError(w, err)
		return
	}

	if err := h.registryService.Leave(r.Context(), code, session.PlayerID); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// requireSeat verifies the session is a player seat in the room. The
// host session has no seat and can't act as a player.
func requireSeat(session *registry.Session, code model.RoomCode) error {
	if session.RoomID != code {
		return model.ErrNotInRoom
	}
	if session.PlayerID == "" {
		return model.ErrNotInRoom
	}
	return nil
}
