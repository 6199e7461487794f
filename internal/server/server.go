// Package server exposes the orchestrator over HTTP for the club's
// event administration frontend: log queries, derived phase views,
// buffered action starts, and SSE progress streams.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// shutdownGrace bounds how long in-flight requests may run once the
// serve context is cancelled. SSE streams are cut off at this point;
// the actions behind them keep running.
const shutdownGrace = 10 * time.Second

// Server hosts the integration API on one listener.
type Server struct {
	addr    string
	handler http.Handler
	logger  zerolog.Logger
}

func New(addr string, h *Handler, logger zerolog.Logger) *Server {
	return &Server{addr: addr, handler: h.Routes(), logger: logger}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:        s.addr,
		Handler:     s.handler,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info().Str("addr", s.addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
