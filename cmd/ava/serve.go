package main

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/run-bigpig/ava/internal/advisor"
	"github.com/run-bigpig/ava/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve advisory sessions over HTTP",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	a.watchPrompts(ctx, cfg.Prompts.Path)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	hosts := advisor.NewHosts()
	go server.SweepLoop(ctx, hosts, cfg.Server.SweepInterval, cfg.Server.SessionIdle)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.NewRouter(server.NewHandlers(a.advisor, hosts)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening on %s", cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdown(srv)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
