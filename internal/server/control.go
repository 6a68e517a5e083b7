package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Guarrdon/portfolioplanner-sub001/internal/registry"
	"github.com/Guarrdon/portfolioplanner-sub001/pkg/protocol"
	"github.com/samber/lo"
)

// The control plane is plain request/response JSON beside the WebSocket
// endpoint: liveness for operators, the online roster for instances that
// want to prefill presence, and an informational registration probe.

type healthResponse struct {
	Status             string `json:"status"`
	UptimeSeconds      int64  `json:"uptime_seconds"`
	ActiveParticipants int    `json:"active_participants"`
	TotalConnections   uint64 `json:"total_connections"`
	TotalEventsRouted  uint64 `json:"total_events_routed"`
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := a.reg.Stats()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:             "ok",
		UptimeSeconds:      int64(time.Since(a.started).Seconds()),
		ActiveParticipants: a.reg.ActiveCount(),
		TotalConnections:   stats.LifetimeConnections,
		TotalEventsRouted:  stats.LifetimeEventsRouted,
	})
}

type onlineParticipant struct {
	ID            string    `json:"id"`
	DisplayName   string    `json:"display_name"`
	OriginAddress string    `json:"origin_address"`
	ConnectedAt   time.Time `json:"connected_at"`
}

type onlineResponse struct {
	Participants []onlineParticipant `json:"participants"`
	Count        int                 `json:"count"`
}

func (a *App) handleParticipantsOnline(w http.ResponseWriter, r *http.Request) {
	participants := lo.Map(a.reg.Snapshot(""), func(rec registry.Record, _ int) onlineParticipant {
		return onlineParticipant{
			ID:            rec.ParticipantID,
			DisplayName:   rec.DisplayName,
			OriginAddress: rec.OriginAddress,
			ConnectedAt:   rec.ConnectedAt,
		}
	})
	writeJSON(w, http.StatusOK, onlineResponse{Participants: participants, Count: len(participants)})
}

type registerRequest struct {
	ParticipantID string `json:"participant_id"`
	OriginAddress string `json:"origin_address"`
	DisplayName   string `json:"display_name"`
}

type registerResponse struct {
	Registered bool `json:"registered"`
	Connected  bool `json:"connected"`
}

// handleRegister is informational only: it validates the registration
// intent and reports whether the participant currently holds a live
// connection. It never installs registry entries; only the WebSocket
// handshake does that.
func (a *App) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	handshake := protocol.Handshake{
		ParticipantID: req.ParticipantID,
		OriginAddress: req.OriginAddress,
		DisplayName:   req.DisplayName,
	}
	if err := handshake.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	_, connected := a.reg.Lookup(req.ParticipantID)
	a.logger.Info("registration announced",
		slog.String("participantID", req.ParticipantID),
		slog.String("originAddress", req.OriginAddress),
		slog.Bool("connected", connected),
	)
	writeJSON(w, http.StatusOK, registerResponse{Registered: true, Connected: connected})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
