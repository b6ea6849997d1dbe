package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ebrodie/domainqa/internal/server"
)

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the query interface over HTTP",
	Long: `Serve the HTML query form and the JSON API.

Endpoints:
  GET  /          Query form
  POST /ask       Form submission
  POST /api/ask   JSON API: {"q", "industries", "country_codes", "date_from", "date_to"}`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	r := openRepo()
	defer r.close()

	addr := serveAddr
	if addr == "" {
		addr = r.cfg.ServeAddr
	}

	vectors := r.openVectors()
	assets := r.openAssets()
	defer assets.Close()

	handler := server.New(r.searcher(vectors, 0), r.answerer(assets), r.logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := handler.Serve(ctx, addr); err != nil {
		exitWithError(ExitError, "serving: %v", err)
	}
	return nil
}
