package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"rental/config"
	"rental/infras/postgres"
	"rental/shared/constant"
	"rental/transport/http/middleware"
	"rental/transport/http/response"
	"rental/transport/http/router"
	"sync"
	"sync/atomic"
	"time"

	_ "rental/docs" //nolint:revive

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
	httpSwagger "github.com/swaggo/http-swagger"
)

type ServerState int32

const (
	ServerStateReady ServerState = iota + 1
	ServerStateInGracePeriod
	ServerStateInCleanupPeriod
)

const (
	readHeaderTimeout = 10 * time.Second
	healthTimeout     = 2 * time.Second
)

// Pinger reports whether a backing store can serve requests.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HTTP struct {
	Config   *config.Config
	Router   router.Router
	App      middleware.AppMiddleware
	AuthRole middleware.AuthRole
	DB       Pinger

	state atomic.Int32
	mux   *chi.Mux
	once  sync.Once
}

func New(cfg *config.Config, r router.Router, app middleware.AppMiddleware, authRole middleware.AuthRole, db *postgres.Connection) *HTTP {
	return &HTTP{
		Config:   cfg,
		Router:   r,
		App:      app,
		AuthRole: authRole,
		DB:       db,
	}
}

func (h *HTTP) State() ServerState {
	return ServerState(h.state.Load())
}

// Serve listens until ctx is cancelled, then keeps answering during the grace period while
// reporting unhealthy, and gives in-flight requests the cleanup period to finish.
func (h *HTTP) Serve(ctx context.Context) error {
	h.setup()

	server := &http.Server{
		Addr:              net.JoinHostPort(h.Config.Server.Host, h.Config.Server.Port),
		Handler:           h.mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		log.Info().Str("port", h.Config.Server.Port).Msg("Starting up HTTP server.")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start HTTP server: %w", err)
	case <-ctx.Done():
	}

	return h.shutdown(server)
}

// ServeHTTP lets the router run behind a serverless entrypoint.
func (h *HTTP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.setup()
	h.mux.ServeHTTP(w, r)
}

func (h *HTTP) setup() {
	h.once.Do(func() {
		h.setupRoutes()
		h.state.Store(int32(ServerStateReady))
	})
}

func (h *HTTP) setupRoutes() {
	h.mux = chi.NewRouter()

	h.mux.Use(middleware.RequestID)
	h.mux.Use(chiMiddleware.RealIP)
	h.mux.Use(chiMiddleware.Recoverer)
	h.mux.Use(h.App.Tracing)

	if corsConfig := h.Config.App.CORS; corsConfig.Enable {
		h.mux.Use(cors.Handler(cors.Options{
			AllowedOrigins:   corsConfig.AllowedOrigins,
			AllowedMethods:   corsConfig.AllowedMethods,
			AllowedHeaders:   corsConfig.AllowedHeaders,
			AllowCredentials: corsConfig.AllowCredentials,
			MaxAge:           corsConfig.MaxAgeSeconds,
		}))
	}

	h.mux.Get("/health", h.health)

	if h.Config.Server.Env != constant.ServerEnvProduction {
		h.mux.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	h.mux.Group(func(routerGroup chi.Router) {
		routerGroup.Use(h.App.RateLimit())
		routerGroup.Use(h.AuthRole.APIKey)
		routerGroup.Use(h.AuthRole.Auth)
		routerGroup.Use(h.AuthRole.RBAC)

		h.Router.SetupRoutes(routerGroup)
	})
}

func (h *HTTP) health(w http.ResponseWriter, r *http.Request) {
	switch h.State() {
	case ServerStateReady:
		if h.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()

			if err := h.DB.Ping(ctx); err != nil {
				log.Error().Err(err).Msg("Health check failed to reach database")
				response.WithUnhealthy(w)

				return
			}
		}

		response.WithMessage(w, http.StatusOK, "OK")
	case ServerStateInGracePeriod, ServerStateInCleanupPeriod:
		response.WithPreparingShutdown(w)
	default:
		response.WithUnhealthy(w)
	}
}

func (h *HTTP) shutdown(server *http.Server) error {
	shutdownConfig := h.Config.Server.Shutdown

	if h.Config.Server.Env != constant.ServerEnvDevelopment {
		log.Info().Int64("seconds", shutdownConfig.GracePeriodSeconds).Msg("Entering grace period.")

		h.state.Store(int32(ServerStateInGracePeriod))

		time.Sleep(time.Duration(shutdownConfig.GracePeriodSeconds) * time.Second)
	}

	log.Info().Int64("seconds", shutdownConfig.CleanupPeriodSeconds).Msg("Entering cleanup period.")

	h.state.Store(int32(ServerStateInCleanupPeriod))

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(shutdownConfig.CleanupPeriodSeconds)*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}

	log.Info().Msg("Cleaning up completed. Shutting down now.")

	return nil
}
