package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hostcard/pokerroom/internal/api/middleware"
	"github.com/hostcard/pokerroom/internal/api/request"
	"github.com/hostcard/pokerroom/internal/api/response"
	"github.com/hostcard/pokerroom/internal/api/sse"
	"github.com/hostcard/pokerroom/internal/model"
	"github.com/hostcard/pokerroom/internal/services/registry"
	"github.com/hostcard/pokerroom/internal/services/room"
)

// RoomHandler handles room lifecycle and host control endpoints
type RoomHandler struct {
	roomController  *room.Controller
	registryService *registry.Service
	hubManager      *sse.HubManager
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(roomController *room.Controller, registryService *registry.Service, hubManager *sse.HubManager) *RoomHandler {
	return &RoomHandler{
		roomController:  roomController,
		registryService: registryService,
		hubManager:      hubManager,
	}
}

// Create handles POST /api/v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Allow empty body for defaults
		req = request.CreateRoomRequest{}
	}

	shuffleFactor := room.DefaultShuffleFactor
	if req.ShuffleFactor != nil {
		shuffleFactor = *req.ShuffleFactor
	}

	created, err := h.roomController.CreateRoom(r.Context(), shuffleFactor)
	if err != nil {
		WriteError(w, err)
		return
	}

	session := h.registryService.MintHostSession(created.ID)

	response.JSON(w, http.StatusCreated, response.CreateRoomResponse{
		Room:         response.RoomFromModel(created),
		SessionToken: session.Token,
	})
}

// Get handles GET /api/v1/rooms/{code}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	code := model.RoomCode(mux.Vars(r)["code"])
	if session.RoomID != code {
		WriteError(w, model.ErrNotInRoom)
		return
	}

	state, err := h.roomState(r, code, session.PlayerID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, state)
}

// Advance handles POST /api/v1/rooms/{code}/advance
func (h *RoomHandler) Advance(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	code := model.RoomCode(mux.Vars(r)["code"])
	if err := requireHost(session, code); err != nil {
		WriteError(w, err)
		return
	}

	advanced, err := h.roomController.Advance(r.Context(), code)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(advanced))
}

// Shuffle handles PATCH /api/v1/rooms/{code}/shuffle
func (h *RoomHandler) Shuffle(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	code := model.RoomCode(mux.Vars(r)["code"])
	if err := requireHost(session, code); err != nil {
		WriteError(w, err)
		return
	}

	var req request.ShuffleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	updated, err := h.roomController.SetShuffleFactor(r.Context(), code, req.ShuffleFactor)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(updated))
}

// QR handles PATCH /api/v1/rooms/{code}/qr
func (h *RoomHandler) QR(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	code := model.RoomCode(mux.Vars(r)["code"])
	if err := requireHost(session, code); err != nil {
		WriteError(w, err)
		return
	}

	var req request.QRRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	updated, err := h.roomController.SetQRUrl(r.Context(), code, req.URL)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(updated))
}

// End handles DELETE /api/v1/rooms/{code}
func (h *RoomHandler) End(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	code := model.RoomCode(mux.Vars(r)["code"])
	if err := requireHost(session, code); err != nil {
		WriteError(w, err)
		return
	}

	if err := h.roomController.EndRoom(r.Context(), code); err != nil {
		WriteError(w, err)
		return
	}

	// The delete event reaches connected clients before the hub goes;
	// sessions die with the room.
	h.registryService.InvalidateRoomSessions(code)

	response.NoContent(w)
}

// Events handles GET /api/v1/rooms/{code}/events (SSE)
func (h *RoomHandler) Events(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	code := model.RoomCode(mux.Vars(r)["code"])
	if session.RoomID != code {
		WriteError(w, model.ErrNotInRoom)
		return
	}

	// Initial snapshot covers anything that happened before the
	// subscription is live.
	state, err := h.roomState(r, code, session.PlayerID)
	if err != nil {
		WriteError(w, err)
		return
	}
	data, err := json.Marshal(state)
	if err != nil {
		WriteError(w, err)
		return
	}
	snapshot := sse.FormatMessage("snapshot", string(data))

	hub := h.hubManager.GetOrCreateHub(code)
	sse.ServeSSE(w, r, hub, session.PlayerID, snapshot)
}

func (h *RoomHandler) roomState(r *http.Request, code model.RoomCode, viewer model.PlayerID) (*response.RoomState, error) {
	current, err := h.roomController.GetRoom(r.Context(), code)
	if err != nil {
		return nil, err
	}
	players, err := h.roomController.GetPlayers(r.Context(), code)
	if err != nil {
		return nil, err
	}
	state := response.RoomStateFromModel(current, players, viewer)
	return &state, nil
}

// requireHost verifies the session belongs to the room's host device
func requireHost(session *registry.Session, code model.RoomCode) error {
	if session.RoomID != code {
		return model.ErrNotInRoom
	}
	if !session.IsHost {
		return model.ErrNotHost
	}
	return nil
}
