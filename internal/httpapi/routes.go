package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/scrumdeck/poker-host/internal/credentials"
	"github.com/scrumdeck/poker-host/internal/gateway"
	"github.com/scrumdeck/poker-host/internal/jira"
	"github.com/scrumdeck/poker-host/internal/netinfo"
	"github.com/scrumdeck/poker-host/internal/relay"
	"github.com/scrumdeck/poker-host/internal/store"
)

// API bundles what the handlers need. Built once in main and handed to
// SetupRoutes.
type API struct {
	Store    *store.Store
	Relay    *relay.Manager
	Jira     *jira.Client
	Vault    *credentials.Vault
	Prober   *netinfo.Prober
	Logger   *zap.Logger
	Port     int
	RelayURL string // dial target override; empty means the default relay
}

func SetupRoutes(a *API) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)
	r.Get("/ws", gateway.Handler(a.Store, a.Logger))

	r.Route("/api", func(r chi.Router) {
		// participant-facing
		r.Get("/story-points", a.storyPoints)
		r.Get("/room/invite/{code}", a.roomByInvite)

		// host-facing
		r.Post("/rooms", a.createRoom)
		r.Get("/rooms", a.listRooms)
		r.Get("/network", a.networkInfo)

		r.Route("/room/{roomID}", func(r chi.Router) {
			r.Get("/", a.getRoom)
			r.Delete("/", a.deleteRoom)
			r.Post("/join", a.joinRoom)
			r.Post("/reveal", a.revealVotes)
			r.Post("/hide", a.hideVotes)
			r.Post("/reset", a.resetVotes)
			r.Post("/kick/{participantID}", a.kickParticipant)
			r.Post("/ticket", a.setTicket)
			r.Delete("/ticket", a.clearTicket)
		})

		r.Route("/relay", func(r chi.Router) {
			r.Post("/connect", a.relayConnect)
			r.Post("/disconnect", a.relayDisconnect)
			r.Get("/status", a.relayStatus)
		})

		r.Route("/credentials", func(r chi.Router) {
			r.Get("/status", a.credentialsStatus)
			r.Post("/", a.saveCredentials)
			r.Post("/unlock", a.unlockCredentials)
			r.Delete("/", a.deleteCredentials)
		})

		r.Route("/jira", func(r chi.Router) {
			r.Get("/projects", a.listProjects)
			r.Get("/projects/{projectKey}/boards", a.listBoards)
			r.Get("/boards/{boardID}/issues", a.listBoardIssues)
		})
	})

	return r
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
