// Package http exposes the wagering service as a JSON API with a
// websocket event stream per session.
package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	apperrors "github.com/frontline-gg/wagervault/internal/errors"
	"github.com/frontline-gg/wagervault/internal/identity"
	"github.com/frontline-gg/wagervault/internal/wager/event"
	"github.com/frontline-gg/wagervault/internal/wager/service"
)

// Handler serves the wagering API.
type Handler struct {
	svc      *service.Service
	verifier identity.Verifier
	bus      *event.Bus
}

// NewHandler builds the API router. The bus may be nil to disable the
// event stream endpoint.
func NewHandler(svc *service.Service, verifier identity.Verifier, bus *event.Bus) (http.Handler, error) {
	if svc == nil {
		return nil, errMissingDependency("service")
	}
	if verifier == nil {
		return nil, errMissingDependency("identity verifier")
	}
	h := &Handler{svc: svc, verifier: verifier, bus: bus}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", h.handleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/v1").Subrouter()
	api.Use(h.authenticate)
	api.HandleFunc("/sessions", h.handleCreateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", h.handleGetSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/join", h.handleJoinTeam).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/leave", h.handleLeaveTeam).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/kills", h.handleRecordKill).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/spawns", h.handlePurchaseSpawns).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/complete", h.handleMarkCompleted).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/winnings", h.handleDistributeWinnings).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/earnings", h.handleDistributeEarnings).Methods(http.MethodPost)
	if bus != nil {
		api.HandleFunc("/sessions/{id}/events", h.handleEvents).Methods(http.MethodGet)
	}
	return router, nil
}

type missingDependencyError string

func errMissingDependency(name string) error {
	return missingDependencyError(name)
}

func (e missingDependencyError) Error() string {
	return string(e) + " is required"
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError writes the localized error envelope for err.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := apperrors.ToHTTP(err, r.Header.Get("Accept-Language"))
	writeJSON(w, status, body)
}
