package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/run-bigpig/ava/internal/console"
	"github.com/run-bigpig/ava/internal/metrics"
	"github.com/run-bigpig/ava/internal/pkg/paths"
)

var noColor bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive advisory session in the terminal",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	a.watchPrompts(ctx, cfg.Prompts.Path)

	if cfg.Metrics.Addr != "" {
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Warn("metrics server on %s stopped", cfg.Metrics.Addr)
			}
		}()
		defer shutdown(srv)
	}

	color := !noColor && isTerminal(os.Stdout.Fd())
	prompt := ""
	if isTerminal(os.Stdin.Fd()) {
		prompt = "> "
	}

	repl := console.NewREPL(a.advisor, os.Stdin, console.NewRenderer(os.Stdout, color), paths.GetExportDir(a.dataDir), prompt)
	return repl.Run(ctx)
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("shutdown %s: %v", srv.Addr, err)
	}
}
