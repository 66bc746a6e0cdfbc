package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aditya-makadiya/sociofeed/pkg/config"
	"github.com/aditya-makadiya/sociofeed/pkg/fakeapi"
	"github.com/aditya-makadiya/sociofeed/pkg/logger"
	"github.com/aditya-makadiya/sociofeed/pkg/output"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var (
	mockAddr  string
	mockEmpty bool
)

var mockAPICmd = &cobra.Command{
	Use:   "mock-api",
	Short: "Run an in-memory Sociofeed API for local use",
	Long: `Run an in-memory Sociofeed API seeded with fake users and posts.
Point api.base_url at it to try the CLI without a real backend. Log in as
the demo account printed on startup.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !verbose {
			gin.SetMode(gin.ReleaseMode)
		}

		server := fakeapi.New()
		if !mockEmpty {
			server.Seed(config.GetInt("mock.seed_users"), config.GetInt("mock.seed_posts"))
		}

		addr := mockAddr
		if addr == "" {
			addr = config.GetString("mock.addr")
		}
		srv := &http.Server{
			Addr:              addr,
			Handler:           server.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("Mock API listening", "addr", addr)
			errCh <- srv.ListenAndServe()
		}()

		output.PrintSuccess("Mock API listening on %s", addr)
		if !mockEmpty {
			output.PrintInfo("Demo account: %s / %s", fakeapi.DemoUsername, fakeapi.DemoPassword)
		}

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-cmd.Context().Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("Shutting down mock API")
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	mockAPICmd.Flags().StringVar(&mockAddr, "addr", "", "Listen address (default: mock.addr)")
	mockAPICmd.Flags().BoolVar(&mockEmpty, "empty", false, "Start without seed data")
}
