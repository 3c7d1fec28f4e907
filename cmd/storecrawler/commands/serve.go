package commands

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveAddr *string

func init() {
	serveAddr = serveCmd.Flags().String("addr", "", "Listen address. Defaults to HTTP_ADDR.")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve [--addr <host:port>]",
	Short: "Serves the crawl operations over HTTP for admin callers.",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := startCrawler(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Stop(context.Background())

		addr := *serveAddr
		if addr == "" {
			addr = app.Config.EnvString("HTTP_ADDR", ":3001")
		}
		server := &http.Server{
			Addr:              addr,
			Handler:           app.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			app.Logger.Info("Listening on %s", addr)
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
		return g.Wait()
	},
}
