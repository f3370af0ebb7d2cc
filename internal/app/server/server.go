package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/SumukhChakkirala/chatApp/internal/app/registry"
	"github.com/SumukhChakkirala/chatApp/internal/app/server/handlers"
	"github.com/SumukhChakkirala/chatApp/internal/core/services"
	"github.com/SumukhChakkirala/chatApp/pkg/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Deps struct {
	Users    *services.UserService
	Tokens   *services.TokenService
	Friends  *services.FriendService
	Servers  *services.ServerService
	Messages *services.MessageService
	Presence *services.PresenceTracker
	Gate     *services.MembershipGate
	Hub      *registry.Registry
	// UploadsDir, when set, is served read-only under /uploads/ so
	// attachment URLs from the disk blob store resolve.
	UploadsDir string
}

type Server struct {
	http *http.Server
	log  *slog.Logger
}

func New(log *slog.Logger, serviceName, addr string, deps Deps) *Server {
	auth := handlers.NewAuthHandler(deps.Users, deps.Tokens)
	users := handlers.NewUserHandler(deps.Users)
	friends := handlers.NewFriendHandler(deps.Friends)
	servers := handlers.NewServerHandler(deps.Servers, deps.Messages)
	messages := handlers.NewMessageHandler(deps.Messages)
	wsh := handlers.NewWSHandler(deps.Hub, deps.Presence, deps.Gate, deps.Messages)

	requireAuth := middleware.Auth(deps.Tokens)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.Tracer(serviceName))
	r.Use(middleware.RequestLogger(log))

	r.Post("/api/auth/signup", auth.Signup)
	r.Post("/api/auth/login", auth.Login)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Get("/ws", wsh.Handler)

		r.Get("/api/users/search", users.Search)

		r.Post("/api/messages", messages.Send)
		r.Get("/api/messages", messages.List)

		r.Route("/api/friends", func(r chi.Router) {
			r.Post("/request", friends.SendRequest)
			r.Get("/requests/pending", friends.PendingRequests)
			r.Post("/accept/{requestID}", friends.Accept)
			r.Post("/reject/{requestID}", friends.Reject)
			r.Get("/", friends.List)
			r.Delete("/{userID}", friends.Remove)
			r.Get("/check/{userID}", friends.CheckStatus)
		})

		r.Route("/api/servers", func(r chi.Router) {
			r.Post("/", servers.Create)
			r.Get("/", servers.ListMine)
			r.Get("/invites/pending", servers.PendingInvites)
			r.Post("/invites/{inviteID}/accept", servers.AcceptInvite)
			r.Post("/invites/{inviteID}/reject", servers.RejectInvite)
			r.Get("/{serverID}", servers.Details)
			r.Post("/{serverID}/invite", servers.Invite)
			r.Post("/{serverID}/leave", servers.Leave)
			r.Get("/{serverID}/messages", servers.Messages)
			r.Post("/{serverID}/messages", servers.SendMessage)
			r.Delete("/{serverID}/members/{memberID}", servers.RemoveMember)
		})
	})

	if deps.UploadsDir != "" {
		fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(deps.UploadsDir)))
		r.Get("/uploads/*", fs.ServeHTTP)
	}

	return &Server{
		http: &http.Server{
			Addr:    addr,
			Handler: r,
			// No global write timeout: it would kill long-lived
			// WebSocket sessions.
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

func (s *Server) Start() error {
	s.log.Info("server - start - listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
