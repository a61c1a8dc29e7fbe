package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hostcard/pokerroom/internal/api/handler"
	apimiddleware "github.com/hostcard/pokerroom/internal/api/middleware"
	"github.com/hostcard/pokerroom/internal/api/sse"
	"github.com/hostcard/pokerroom/internal/middleware"
	"github.com/hostcard/pokerroom/internal/services/registry"
	"github.com/hostcard/pokerroom/internal/services/room"
)

// RouterConfig holds the dependencies the router needs
type RouterConfig struct {
	Logger          *slog.Logger
	RoomController  *room.Controller
	RegistryService *registry.Service
	HubManager      *sse.HubManager
}

// NewRouter builds the full API router
func NewRouter(cfg RouterConfig) http.Handler {
	roomHandler := handler.NewRoomHandler(cfg.RoomController, cfg.RegistryService, cfg.HubManager)
	playerHandler := handler.NewPlayerHandler(cfg.RoomController, cfg.RegistryService)

	r := mux.NewRouter()
	r.Use(apimiddleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	r.HandleFunc("/health", handleHealth).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()

	// Unauthenticated: room creation and joining are how devices get
	// their session tokens.
	v1.HandleFunc("/rooms", roomHandler.Create).Methods(http.MethodPost)
	v1.HandleFunc("/rooms/{code}/join", playerHandler.Join).Methods(http.MethodPost)

	authed := v1.PathPrefix("/rooms/{code}").Subrouter()
	authed.Use(apimiddleware.Auth(cfg.RegistryService))
	authed.HandleFunc("", roomHandler.Get).Methods(http.MethodGet)
	authed.HandleFunc("", roomHandler.End).Methods(http.MethodDelete)
	authed.HandleFunc("/advance", roomHandler.Advance).Methods(http.MethodPost)
	authed.HandleFunc("/shuffle", roomHandler.Shuffle).Methods(http.MethodPatch)
	authed.HandleFunc("/qr", roomHandler.QR).Methods(http.MethodPatch)
	authed.HandleFunc("/events", roomHandler.Events).Methods(http.MethodGet)
	authed.HandleFunc("/fold", playerHandler.Fold).Methods(http.MethodPost)
	authed.HandleFunc("/reveal", playerHandler.Reveal).Methods(http.MethodPost)
	authed.HandleFunc("/leave", playerHandler.Leave).Methods(http.MethodPost)

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
