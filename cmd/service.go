package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"
	"github.com/isometry/twilio-fm-relay/internal/config"
	"github.com/isometry/twilio-fm-relay/internal/metrics"
	"github.com/isometry/twilio-fm-relay/internal/runtime"
	"github.com/spf13/cobra"
)

const healthPath = "/healthz"

func cmdService() *cobra.Command {
	return &cobra.Command{
		Use:     "service",
		Aliases: []string{"s", "serve", "standalone", "server"},
		Short:   "Serve the relay over HTTP",
		RunE:    runService,
	}
}

func runService(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("spawning...")
	recorder := metrics.NewRecorder()
	rt, err := newRuntime(ctx, recorder)
	if err != nil {
		return err
	}

	s := &http.Server{
		Handler:      newRouter(rt, recorder, config.Service.Path),
		Addr:         net.JoinHostPort(config.Service.Addr, config.Service.Port),
		WriteTimeout: config.Service.Timeout,
		ReadTimeout:  config.Service.Timeout,
		IdleTimeout:  config.Service.Timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving...", "address", s.Addr, "path", config.Service.Path, "timeout", config.Service.Timeout.String())
		errCh <- s.ListenAndServe()
	}()

	select {
	case err = <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.Service.Timeout+time.Second)
	defer cancel()
	if err = s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err = <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newRouter mounts the webhook on path next to the health and metrics endpoints. Forwarded
// headers rewrite scheme and host so signatures are checked against the public URL.
func newRouter(rt *runtime.Runtime, recorder *metrics.Recorder, path string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat(healthPath))
	r.Method(http.MethodGet, "/metrics", recorder.Handler())
	r.Handle(path, rt)
	return handlers.ProxyHeaders(r)
}
