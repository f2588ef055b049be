package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	battleengine "reelrivals/contexts/battle-arena/battle-engine"
	"reelrivals/internal/platform/auth"
	"reelrivals/internal/platform/metrics"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "reelrivals/internal/platform/httpserver/docs"
)

const defaultMaxUploadBytes = 100 << 20

type Options struct {
	Authenticator  auth.Authenticator
	Metrics        *metrics.Recorder
	MaxUploadBytes int64
}

type Server struct {
	mux            *http.ServeMux
	handler        http.Handler
	logger         *slog.Logger
	addr           string
	battles        battleengine.Module
	authenticator  auth.Authenticator
	metrics        *metrics.Recorder
	maxUploadBytes int64
	httpServer     *http.Server
}

func New(
	battles battleengine.Module,
	options Options,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":3001"
	}
	if options.Authenticator == nil {
		options.Authenticator = auth.HeaderAuthenticator{}
	}
	if options.MaxUploadBytes <= 0 {
		options.MaxUploadBytes = defaultMaxUploadBytes
	}

	s := &Server{
		mux:            http.NewServeMux(),
		logger:         logger,
		addr:           addr,
		battles:        battles,
		authenticator:  options.Authenticator,
		metrics:        options.Metrics,
		maxUploadBytes: options.MaxUploadBytes,
	}
	s.registerRoutes()

	s.handler = s.mux
	if s.metrics != nil {
		s.handler = s.metrics.Middleware(s.mux)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("http server stopping",
		"event", "http_server_stopping",
		"module", "internal/platform/httpserver",
		"layer", "platform",
	)
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}

	s.mux.HandleFunc("POST /api/videos/upload", s.handleUploadVideo)
	s.mux.HandleFunc("GET /api/videos/my-videos", s.handleListMyVideos)
	s.mux.HandleFunc("GET /api/videos/mine", s.handleListMyVideos)
	s.mux.HandleFunc("GET /api/videos/{video_id}", s.handleGetVideo)
	s.mux.HandleFunc("POST /api/videos/{video_id}/views", s.handleRecordView)
	s.mux.HandleFunc("DELETE /api/videos/{video_id}", s.handleDeleteVideo)

	s.mux.HandleFunc("POST /api/battles", s.handleCreateBattle)
	s.mux.HandleFunc("GET /api/battles/active", s.handleListActiveBattles)
	s.mux.HandleFunc("GET /api/battles/{battle_id}", s.handleGetBattle)

	s.mux.HandleFunc("POST /api/votes/vote", s.handleCastVote)
	s.mux.HandleFunc("GET /api/profile", s.handleGetProfile)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// authenticate writes the 401 itself when it reports false.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	identity, err := s.authenticator.Authenticate(r)
	if err != nil {
		s.logger.Debug("request not authenticated",
			"event", "http_auth_rejected",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"path", r.URL.Path,
			"error", err.Error(),
		)
		writeBattleError(w, http.StatusUnauthorized, "unauthenticated", "Not authenticated")
		return auth.Identity{}, false
	}
	return identity, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
