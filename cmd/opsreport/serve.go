package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/opsreport/api"
	"github.com/warp/opsreport/config"
	"github.com/warp/opsreport/notify"
	"github.com/warp/opsreport/syncer"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	GroupID: "server",
	Short:   "Run the dashboard API server",
	Long: `Run the HTTP API used by the dashboard UI.

On start the server loads reports once (remote wins when it has any), then
refreshes on refresh_interval. Editing the config file while the server runs
swaps the remote endpoint without a restart.

Shutdown on SIGINT/SIGTERM waits up to 30s for active requests.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "port to listen on (overrides server.port)")
	serveCmd.Flags().String("host", "", "host to bind (overrides server.host)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	buffer := notify.NewBuffer(100)
	var hub *notify.Hub
	a, err := newApp(ctx, func(logs *config.Logs) notify.Notifier {
		hub = notify.NewHub(logs.Logger("ws"))
		return dashboardNotifier(buffer, hub)
	})
	if hub != nil {
		defer hub.Close()
	}
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logs.Logger("server")

	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		a.cfg.Server.Port = port
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		a.cfg.Server.Host = host
	}

	handler := api.NewHandler(a.syncer, a.publisher, buffer)
	handler.Hub = hub
	handler.Logger = a.logs.Logger("api")
	handler.ApplyRemoteConfig(a.cfg.Remote.Client())

	if a.loader.File() != "" {
		a.loader.Watch(func(cfg config.Config) {
			logger.Printf("config changed, reloading remote settings")
			handler.ApplyRemoteConfig(cfg.Remote.Client())
		}, func(err error) {
			logger.Printf("WARNING: %v", err)
		})
	}

	refresher := syncer.NewRefresher(a.syncer, a.cfg.RefreshInterval, a.logs.Logger("scheduler"))
	refresher.Start()
	defer refresher.Stop()

	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
		LogOutput:      a.logs.Writer(),
		Gatherer:       a.registry,
	})

	server := &http.Server{
		Addr:         a.cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("Server starting on http://%s", server.Addr)
		logger.Printf("API available at http://%s/api", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Println("Server stopped")
	return nil
}

// dashboardNotifier sends every notification to the history buffer and to
// connected dashboard clients.
func dashboardNotifier(buffer *notify.Buffer, hub *notify.Hub) notify.Notifier {
	return notify.Multi{buffer, hub}
}
