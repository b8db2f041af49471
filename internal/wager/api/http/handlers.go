package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	apperrors "github.com/frontline-gg/wagervault/internal/errors"
	"github.com/frontline-gg/wagervault/internal/platform/requestctx"
	"github.com/frontline-gg/wagervault/internal/wager/domain"
	"github.com/frontline-gg/wagervault/internal/wager/service"
)

// teamView is the JSON shape of one team's slots and stats.
type teamView struct {
	Players     []string `json:"players"`
	Kills       []uint16 `json:"kills"`
	Spawns      []uint16 `json:"spawns"`
	TotalBet    uint64   `json:"total_bet"`
	TotalKills  uint32   `json:"total_kills"`
	TotalSpawns uint32   `json:"total_spawns"`
	Eliminated  bool     `json:"eliminated"`
}

// sessionView is the JSON shape of a session.
type sessionView struct {
	SessionID string    `json:"session_id"`
	Authority string    `json:"authority"`
	BetAmount uint64    `json:"bet_amount"`
	Mode      string    `json:"mode"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	TeamA     teamView  `json:"team_a"`
	TeamB     teamView  `json:"team_b"`
	Version   uint64    `json:"version"`
}

func viewTeam(t domain.Team) teamView {
	return teamView{
		Players:     t.Players,
		Kills:       t.Kills,
		Spawns:      t.Spawns,
		TotalBet:    t.TotalBet,
		TotalKills:  t.TotalKills(),
		TotalSpawns: t.TotalSpawns(),
		Eliminated:  t.Eliminated(),
	}
}

func viewSession(s domain.Session) sessionView {
	return sessionView{
		SessionID: s.SessionID,
		Authority: s.Authority,
		BetAmount: s.BetAmount,
		Mode:      string(s.Mode),
		Status:    string(s.Status),
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
		TeamA:     viewTeam(s.TeamA),
		TeamB:     viewTeam(s.TeamB),
		Version:   s.Version,
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, into any) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		writeError(w, r, apperrors.New(apperrors.CodeUnknown, "request body is not valid JSON"))
		return false
	}
	return true
}

func sessionID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID string `json:"session_id"`
		BetAmount uint64 `json:"bet_amount"`
		Mode      string `json:"mode"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	mode, err := domain.ParseMode(body.Mode)
	if err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.svc.CreateSession(r.Context(), service.CreateSessionInput{
		SessionID: body.SessionID,
		BetAmount: body.BetAmount,
		Mode:      mode,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewSession(session))
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.GetSession(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewSession(session))
}

func (h *Handler) handleJoinTeam(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Team int `json:"team"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	session, err := h.svc.JoinTeam(r.Context(), sessionID(r), body.Team)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewSession(session))
}

func (h *Handler) handleLeaveTeam(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Team int `json:"team"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	session, err := h.svc.LeaveTeam(r.Context(), sessionID(r), body.Team)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewSession(session))
}

func (h *Handler) handleRecordKill(w http.ResponseWriter, r *http.Request) {
	var body struct {
		KillerTeam int    `json:"killer_team"`
		Killer     string `json:"killer"`
		VictimTeam int    `json:"victim_team"`
		Victim     string `json:"victim"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	session, err := h.svc.RecordKill(r.Context(), sessionID(r), body.KillerTeam, body.Killer, body.VictimTeam, body.Victim)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewSession(session))
}

func (h *Handler) handlePurchaseSpawns(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Team   int    `json:"team"`
		Player string `json:"player"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	// Purchases are player-initiated; a request naming another player's
	// account is rejected outright.
	if body.Player != "" && body.Player != requestctx.CallerFromContext(r.Context()) {
		writeError(w, r, apperrors.New(apperrors.CodeUnauthorizedPayToSpawn, "spawns can only be purchased for the calling player"))
		return
	}

	session, err := h.svc.PurchaseSpawns(r.Context(), sessionID(r), body.Team)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewSession(session))
}

func (h *Handler) handleMarkCompleted(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.MarkCompleted(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewSession(session))
}

func (h *Handler) handleDistributeWinnings(w http.ResponseWriter, r *http.Request) {
	var body struct {
		WinningTeam int `json:"winning_team"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	session, err := h.svc.DistributeWinnerTakesAll(r.Context(), sessionID(r), body.WinningTeam)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewSession(session))
}

func (h *Handler) handleDistributeEarnings(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.DistributePaySpawnEarnings(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewSession(session))
}
