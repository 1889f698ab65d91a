package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/claude/gymtrack/internal/catalog"
	"github.com/claude/gymtrack/internal/history"
	"github.com/claude/gymtrack/internal/identity"
	"github.com/claude/gymtrack/internal/models"
	"github.com/claude/gymtrack/internal/routine"
	"github.com/claude/gymtrack/internal/session"
	"github.com/go-chi/chi/v5"
	"tailscale.com/client/tailscale"
)

// RestoreFunc applies a validated backup document to the user's rows.
type RestoreFunc func(ctx context.Context, doc *models.BackupDocument) error

// Components is the per-user component set the handlers work against.
// Exactly one set is live at a time; switching users resets the old one.
type Components struct {
	UserID  int
	Login   string
	Catalog *catalog.Catalog
	Plan    *routine.Plan
	Session *session.Manager
	History *history.Aggregator
	Restore RestoreFunc
}

// ComponentsFactory builds the component set for an authenticated login,
// resolving (or creating) the backing user row.
type ComponentsFactory func(ctx context.Context, login string) (*Components, error)

// Server holds dependencies for HTTP handlers.
type Server struct {
	factory ComponentsFactory
	ident   *identity.Provider
	log     *slog.Logger
	apiKey  string
	devUser string
	router  chi.Router
	ts      *tailscale.LocalClient

	mu  sync.Mutex
	cur *Components
}

// New creates a new Server with all routes configured.
func New(factory ComponentsFactory, ident *identity.Provider, apiKey, devUser string, log *slog.Logger) *Server {
	s := &Server{
		factory: factory,
		ident:   ident,
		log:     log,
		apiKey:  apiKey,
		devUser: devUser,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// SetTailscale enables whois-based identity resolution.
func (s *Server) SetTailscale(lc *tailscale.LocalClient) {
	s.ts = lc
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.Identity)

	s.router.Get("/api/v1/me", s.handleMe)

	// Exercise catalog
	s.router.Get("/api/v1/exercises", s.handleListExercises)
	s.router.Post("/api/v1/exercises", s.handleCreateExercise)
	s.router.Patch("/api/v1/exercises/{id}", s.handleUpdateExercise)
	s.router.Delete("/api/v1/exercises/{id}", s.handleDeleteExercise)

	// Weekly routine
	s.router.Get("/api/v1/routine", s.handleListDays)
	s.router.Get("/api/v1/routine/days/{id}", s.handleGetDay)
	s.router.Patch("/api/v1/routine/days/{id}", s.handleRenameDay)
	s.router.Post("/api/v1/routine/days/{id}/exercises", s.handleAddDayExercise)
	s.router.Patch("/api/v1/routine/days/{id}/exercises/{index}", s.handleUpdateDayExercise)
	s.router.Delete("/api/v1/routine/days/{id}/exercises/{index}", s.handleRemoveDayExercise)
	s.router.Post("/api/v1/routine/days/{id}/exercises/{index}/move", s.handleMoveDayExercise)

	// Active session
	s.router.Get("/api/v1/session", s.handleGetSession)
	s.router.Post("/api/v1/session/start", s.handleStartSession)
	s.router.Patch("/api/v1/session/exercises/{index}/sets/{set}", s.handleUpdateSet)
	s.router.Post("/api/v1/session/exercises/{index}/sets", s.handleAddSet)
	s.router.Post("/api/v1/session/exercises", s.handleAddSessionExercise)
	s.router.Post("/api/v1/session/exercises/{index}/replace", s.handleReplaceExercise)
	s.router.Post("/api/v1/session/exercises/{index}/save", s.handleSaveExercise)
	s.router.Post("/api/v1/session/advance", s.handleAdvance)
	s.router.Patch("/api/v1/session/notes", s.handleSessionNotes)
	s.router.Post("/api/v1/session/finish", s.handleFinishSession)
	s.router.Post("/api/v1/session/cancel", s.handleCancelSession)

	// History and records
	s.router.Get("/api/v1/history/sessions", s.handleListSessions)
	s.router.Post("/api/v1/history/sessions", s.handleRecordPastSession)
	s.router.Get("/api/v1/history/records", s.handlePersonalRecords)
	s.router.Get("/api/v1/history/stats", s.handlePeriodStats)
	s.router.Get("/api/v1/history/series/{id}", s.handleExerciseSeries)

	// Backup (import overwrites, so it is API-key gated like any write
	// that bypasses the normal mutation paths)
	s.router.Get("/api/v1/export", s.handleExport)
	s.router.Route("/api/v1/import", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/", s.handleImport)
	})
}

// components returns the component set for the request's login, building it
// on first use and tearing the previous user's set down on a switch.
func (s *Server) components(r *http.Request) (*Components, error) {
	login := loginFromContext(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur != nil && s.cur.Login == login {
		return s.cur, nil
	}

	c, err := s.factory(r.Context(), login)
	if err != nil {
		return nil, err
	}

	if s.cur != nil {
		s.log.Info("identity changed, resetting state", "from", s.cur.Login, "to", login)
		s.cur.Session.Reset()
		s.cur.Catalog.Reset()
		s.cur.Plan.Reset()
	}
	s.cur = c
	s.ident.SignIn(identity.User{ID: c.UserID, Login: login})
	return c, nil
}
