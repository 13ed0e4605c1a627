package mockapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/timmy/querydesk/internal/logger"
)

const shutdownTimeout = 5 * time.Second

// Serve runs handler on addr until ctx is cancelled, then shuts the server
// down gracefully. It returns nil after a clean shutdown.
func Serve(ctx context.Context, addr string, handler http.Handler, log *logger.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("Starting mock API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("mock api: listen on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down mock API server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("mock api: shutdown: %w", err)
	}
	log.Info("Mock API server exited")
	return nil
}
