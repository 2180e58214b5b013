// CourseGuard - Video Content Protection and Access Control
// Copyright 2026 CourseGuard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/courseguard/courseguard

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/courseguard/courseguard/internal/logging"
)

// HTTPService runs an http.Server as a suture service with graceful
// shutdown on context cancellation.
type HTTPService struct {
	server          *http.Server
	shutdownTimeout time.Duration
}

// NewHTTPService wraps the handler in a supervised HTTP server.
func NewHTTPService(addr string, handler http.Handler, timeout time.Duration) *HTTPService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPService{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       timeout,
			WriteTimeout:      timeout,
			IdleTimeout:       2 * timeout,
		},
		shutdownTimeout: 10 * time.Second,
	}
}

// Serve runs the server until the context is canceled, then shuts down
// gracefully, draining in-flight requests up to the shutdown timeout.
func (s *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	logging.Info().Str("addr", s.server.Addr).Msg("http server listening")

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("graceful shutdown incomplete, closing")
		_ = s.server.Close()
	}
	<-errCh
	return ctx.Err()
}

// String names the service in supervisor logs.
func (s *HTTPService) String() string {
	return "http-server"
}
