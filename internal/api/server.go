package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/interview-engine/internal/auth"
	"github.com/terra-clan/interview-engine/internal/config"
	"github.com/terra-clan/interview-engine/internal/interview"
	"github.com/terra-clan/interview-engine/internal/resume"
	"github.com/terra-clan/interview-engine/internal/services"
	"github.com/terra-clan/interview-engine/internal/speech"
)

// Dialer places interview phone calls and names the webhooks Twilio calls
// back
type Dialer interface {
	Call(ctx context.Context, interviewID int64, phone string) (string, error)
	VoiceURL(interviewID int64, index int) string
	TranscribeURL(interviewID int64, index int) string
}

// WebhookValidator authenticates incoming telephony webhooks
type WebhookValidator interface {
	ValidRequest(r *http.Request) bool
}

// Dependencies are the collaborators served by the API. Speech, Dialer,
// Webhooks and Registry are optional.
type Dependencies struct {
	Manager        interview.Manager
	Auth           *auth.Service
	Speech         *speech.Service
	Dialer         Dialer
	Webhooks       WebhookValidator
	Registry       *services.Registry
	Video          config.VideoConfig
	MaxUploadBytes int64
}

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	manager        interview.Manager
	auth           *auth.Service
	speech         *speech.Service
	dialer         Dialer
	webhooks       WebhookValidator
	registry       *services.Registry
	video          config.VideoConfig
	maxUpload      int64
	authMiddleware *AuthMiddleware
}

// NewServer creates a new API server
func NewServer(cfg config.ServerConfig, deps Dependencies) *Server {
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = resume.DefaultMaxBytes
	}
	if deps.Registry == nil {
		deps.Registry = services.NewRegistry()
	}
	if deps.Speech == nil {
		deps.Speech = speech.NewService(nil, nil, "", 0)
	}

	s := &Server{
		config:         cfg,
		manager:        deps.Manager,
		auth:           deps.Auth,
		speech:         deps.Speech,
		dialer:         deps.Dialer,
		webhooks:       deps.Webhooks,
		registry:       deps.Registry,
		video:          deps.Video,
		maxUpload:      deps.MaxUploadBytes,
		authMiddleware: NewAuthMiddleware(deps.Auth),
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// The live channel outlives the request timeout
	r.Get("/api/v1/interviews/{id}/live", s.handleLiveWS)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		// Health check (outside versioned API - public)
		r.Get("/health", s.handleHealth)
		r.Get("/ready", s.handleReady)

		r.Route("/api/v1", func(r chi.Router) {
			r.Route("/auth", func(r chi.Router) {
				r.Post("/signup", s.handleSignup)
				r.Post("/login", s.handleLogin)
			})

			r.Route("/interviews", func(r chi.Router) {
				r.Post("/start", s.handleStartInterview)
				r.Post("/answer", s.handleSubmitAnswer)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetInterview)
					r.Post("/terminate", s.handleTerminateInterview)
					r.Post("/call", s.handleStartCall)
					r.Get("/video", s.handleVideoRoom)
				})
			})

			r.Route("/candidates", func(r chi.Router) {
				r.Get("/{id}/results", s.handleCandidateResults)
				r.Get("/by-email/{email}", s.handleCandidateByEmail)
			})

			r.Post("/speech", s.handleSpeech)

			r.Route("/telephony", func(r chi.Router) {
				r.Use(s.verifyWebhook)
				r.Post("/voice", s.handleVoiceWebhook)
				r.Post("/transcribe", s.handleTranscribeWebhook)
				r.Post("/status", s.handleStatusWebhook)
			})

			// Admin routes (JWT with admin role)
			r.Route("/admin", func(r chi.Router) {
				r.Use(s.authMiddleware.Authenticate)
				r.Use(s.authMiddleware.RequireAdmin)

				r.Get("/interviews", s.handleAdminInterviews)
				r.Delete("/interviews/{id}", s.handleAdminDeleteInterview)
				r.Get("/stats", s.handleAdminStats)
				r.Get("/users", s.handleAdminUsers)
				r.Get("/candidates", s.handleAdminCandidates)
				r.Delete("/candidates/{id}", s.handleAdminDeleteCandidate)
			})
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
