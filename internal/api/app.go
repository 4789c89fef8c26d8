package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/campushub/campushub/internal/auth"
	"github.com/campushub/campushub/internal/chat"
	"github.com/campushub/campushub/internal/config"
	"github.com/campushub/campushub/internal/database"
	"github.com/campushub/campushub/internal/directory"
	"github.com/campushub/campushub/internal/recovery"
	"github.com/campushub/campushub/internal/stats"
	"github.com/gorilla/handlers"
	"github.com/teris-io/shortid"
)

type CampusHubApp struct {
	log            *log.Logger
	db             database.Repository
	dir            *directory.Directory
	mux            *http.Server
	cs             *chat.ChatServer
	recovery       *recovery.StateMachine
	tokens         *auth.TokenService
	stats          stats.StatsProvider
	allowedOrigins []string

	// overridable in tests
	generateRef func() (string, error)
}

func NewCampusHubApp(mux *http.ServeMux, logger *log.Logger, cs *chat.ChatServer, db database.Repository,
	dir *directory.Directory, rec *recovery.StateMachine, tokens *auth.TokenService,
	statsUpdater stats.StatsProvider, cfg *config.Config) *CampusHubApp {
	s := &CampusHubApp{
		log:            logger,
		db:             db,
		dir:            dir,
		cs:             cs,
		recovery:       rec,
		tokens:         tokens,
		stats:          statsUpdater,
		allowedOrigins: cfg.AllowedOrigins,
		generateRef:    shortid.Generate,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)
	mux.HandleFunc("POST /api/auth/register", s.register)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("GET /api/auth/logout", s.authMiddleware(s.logout))
	mux.HandleFunc("GET /api/auth/session", s.authMiddleware(s.session))
	mux.HandleFunc("POST /api/auth/forgot-password", s.forgotPassword)
	mux.HandleFunc("POST /api/auth/verify-otp", s.verifyOtp)
	mux.HandleFunc("POST /api/auth/reset-password", s.resetPassword)
	mux.Handle("/api/profile", s.authMiddleware(s.profile))
	mux.HandleFunc("POST /api/tasks", s.authMiddleware(s.createTask))
	mux.HandleFunc("GET /api/tasks", s.authMiddleware(s.listTasks))
	mux.HandleFunc("PUT /api/tasks/status", s.authMiddleware(s.updateTaskStatus))
	mux.HandleFunc("POST /api/tickets", s.authMiddleware(s.createTicket))
	mux.HandleFunc("GET /api/tickets", s.authMiddleware(s.listTickets))
	mux.HandleFunc("PUT /api/tickets/status", s.authMiddleware(s.updateTicketStatus))
	mux.HandleFunc("POST /api/chat/rooms", s.authMiddleware(s.createRoom))
	mux.HandleFunc("GET /api/chat/rooms", s.authMiddleware(s.listRooms))
	mux.HandleFunc("GET /api/chat/messages", s.authMiddleware(s.getMessages))
	mux.HandleFunc("GET /ws", s.serveWs)

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *CampusHubApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *CampusHubApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
