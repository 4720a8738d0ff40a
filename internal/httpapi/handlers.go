package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/scrumdeck/poker-host/internal/credentials"
	"github.com/scrumdeck/poker-host/internal/jira"
	"github.com/scrumdeck/poker-host/internal/room"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// ---- rooms ----

func (a *API) createRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		http.Error(w, "missing room name", http.StatusBadRequest)
		return
	}

	created := a.Store.CreateRoom(req.Name)
	a.Relay.MirrorSyncRoom(created)
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) listRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Store.ListRooms())
}

func (a *API) getRoom(w http.ResponseWriter, r *http.Request) {
	rm, ok := a.Store.GetRoom(chi.URLParam(r, "roomID"))
	if !ok {
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rm)
}

func (a *API) roomByInvite(w http.ResponseWriter, r *http.Request) {
	rm, ok := a.Store.GetRoomByInvite(chi.URLParam(r, "code"))
	if !ok {
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rm)
}

func (a *API) deleteRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	if !a.Store.DeleteRoom(roomID) {
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	}
	a.Relay.MirrorDeleteRoom(roomID)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) joinRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	p := room.NewParticipant(req.Name, false)
	id, ok := a.Store.AddParticipant(roomID, p)
	if !ok {
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	}
	a.Store.BroadcastRoomUpdate(roomID)

	rm, ok := a.Store.GetRoom(roomID)
	if !ok {
		// deleted between join and snapshot
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		ParticipantID string    `json:"participant_id"`
		Room          room.Room `json:"room"`
	}{ParticipantID: id, Room: rm})
}

// mutateRoom guards the host-control endpoints: 404 on unknown rooms,
// otherwise apply + broadcast + mirror.
func (a *API) mutateRoom(w http.ResponseWriter, roomID string, apply func(), mirror func()) {
	if _, ok := a.Store.GetRoom(roomID); !ok {
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	}
	apply()
	a.Store.BroadcastRoomUpdate(roomID)
	mirror()
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) revealVotes(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	a.mutateRoom(w, roomID,
		func() { a.Store.SetVotesRevealed(roomID, true) },
		func() { a.Relay.MirrorRevealVotes(roomID) })
}

func (a *API) hideVotes(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	a.mutateRoom(w, roomID,
		func() { a.Store.SetVotesRevealed(roomID, false) },
		func() { a.Relay.MirrorHideVotes(roomID) })
}

func (a *API) resetVotes(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	a.mutateRoom(w, roomID,
		func() { a.Store.ResetVotes(roomID) },
		func() { a.Relay.MirrorResetVotes(roomID) })
}

func (a *API) kickParticipant(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	participantID := chi.URLParam(r, "participantID")
	a.mutateRoom(w, roomID,
		func() { a.Store.RemoveParticipant(roomID, participantID) },
		func() { a.Relay.MirrorKickParticipant(roomID, participantID) })
}

func (a *API) setTicket(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	var req struct {
		Key string `json:"key"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if _, ok := a.Store.GetRoom(roomID); !ok {
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	}

	ticket, err := a.Jira.FetchTicket(r.Context(), req.Key)
	if err != nil {
		a.Logger.Warn("ticket fetch failed", zap.String("key", req.Key), zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	a.Store.SetCurrentTicket(roomID, &ticket)
	a.Store.BroadcastRoomUpdate(roomID)
	a.Relay.MirrorSetTicket(roomID, ticket)
	writeJSON(w, http.StatusOK, ticket)
}

func (a *API) clearTicket(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	a.mutateRoom(w, roomID,
		func() { a.Store.SetCurrentTicket(roomID, nil) },
		func() { a.Relay.MirrorClearTicket(roomID) })
}

func (a *API) storyPoints(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, room.StoryPoints)
}

// ---- relay ----

func (a *API) relayConnect(w http.ResponseWriter, r *http.Request) {
	url, err := a.Relay.Connect(r.Context(), a.RelayURL)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		RelayURL string `json:"relay_url"`
	}{RelayURL: url})
}

func (a *API) relayDisconnect(w http.ResponseWriter, r *http.Request) {
	a.Relay.Disconnect()
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) relayStatus(w http.ResponseWriter, r *http.Request) {
	url, connected := a.Relay.URL()
	var urlPtr *string
	if connected {
		urlPtr = &url
	}
	writeJSON(w, http.StatusOK, struct {
		Connected bool    `json:"connected"`
		RelayURL  *string `json:"relay_url"`
	}{Connected: connected, RelayURL: urlPtr})
}

// ---- network ----

func (a *API) networkInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Prober.Describe(r.Context(), a.Port))
}

// ---- credentials ----

func (a *API) credentialsStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Stored     bool `json:"stored"`
		Configured bool `json:"configured"`
	}{Stored: a.Vault.Has(), Configured: a.Jira.Configured()})
}

func (a *API) saveCredentials(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
		BaseURL  string `json:"base_url"`
		Email    string `json:"email"`
		APIToken string `json:"api_token"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	creds := credentials.Credentials{
		BaseURL:  req.BaseURL,
		Email:    req.Email,
		APIToken: req.APIToken,
	}
	if err := a.Vault.Save(req.Password, creds); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	a.Jira.SetConfig(jira.Config{BaseURL: req.BaseURL, Email: req.Email, APIToken: req.APIToken})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) unlockCredentials(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	creds, err := a.Vault.Load(req.Password)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	a.Jira.SetConfig(jira.Config{BaseURL: creds.BaseURL, Email: creds.Email, APIToken: creds.APIToken})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) deleteCredentials(w http.ResponseWriter, r *http.Request) {
	if err := a.Vault.Delete(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	a.Jira.SetConfig(jira.Config{})
	w.WriteHeader(http.StatusNoContent)
}

// ---- jira browsing ----

func (a *API) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := a.Jira.ListProjects(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (a *API) listBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := a.Jira.ListBoards(r.Context(), chi.URLParam(r, "projectKey"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, boards)
}

func (a *API) listBoardIssues(w http.ResponseWriter, r *http.Request) {
	boardID, err := strconv.ParseInt(chi.URLParam(r, "boardID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid board id", http.StatusBadRequest)
		return
	}
	issues, err := a.Jira.ListBoardIssues(r.Context(), boardID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, issues)
}
