package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/genuirouter/internal/profile"
	"github.com/hrygo/genuirouter/plugin/ai/timeout"
	apiv1 "github.com/hrygo/genuirouter/server/router/api/v1"
	"github.com/hrygo/genuirouter/server/service/chat"
)

type Server struct {
	Profile *profile.Profile

	echoServer *echo.Echo
}

func NewServer(profile *profile.Profile, chatService *chat.Service) *Server {
	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Server.ReadHeaderTimeout = 10 * time.Second
	echoServer.Server.WriteTimeout = timeout.RequestTimeout + 10*time.Second

	apiv1.NewAPIV1Service(profile, chatService).RegisterRoutes(echoServer)

	return &Server{
		Profile:    profile,
		echoServer: echoServer,
	}
}

// Start serves HTTP until ctx is done or the listener fails. Cancelling ctx drains
// in-flight requests through Shutdown and returns nil.
func (s *Server) Start(ctx context.Context) error {
	addr := s.Profile.ListenAddr()
	slog.Info("server listening", slog.String("addr", addr), slog.String("version", s.Profile.Version))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echoServer.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "failed to start server")
		}
		return nil
	case <-ctx.Done():
		slog.Info("shutdown signal received")
		s.Shutdown(context.Background())
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server stopped with error")
		}
		return nil
	}
}

// Shutdown drains in-flight requests, bounded by timeout.ShutdownTimeout.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, timeout.ShutdownTimeout)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}
	slog.Info("server stopped")
}

// Handler exposes the HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}
