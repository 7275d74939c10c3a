package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/coursegenie/genie/internal/server"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Starts the HTTP front end:

  POST /chat         run a turn, JSON in and out
  POST /chat/stream  run a turn, streaming orchestration events over SSE
  GET  /agents       list the agent pool
  GET  /healthz      health check`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		host := serveHost
		if host == "" {
			host = rt.Config.Server.Host
		}
		port := servePort
		if port == 0 {
			port = rt.Config.Server.Port
		}

		srv, err := server.New(server.Config{
			Host:     host,
			Port:     port,
			Runner:   rt.Orchestrator,
			Registry: rt.Registry,
			Sessions: rt.Sessions,
		})
		if err != nil {
			return err
		}

		errCh := make(chan error, 1)
		go func() {
			fmt.Printf("genie listening on %s\n", srv.Addr())
			errCh <- srv.ListenAndServe()
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			if err != nil && err != http.ErrServerClosed {
				return err
			}
		case <-sigCh:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (overrides config)")
}
