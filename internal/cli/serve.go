package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	comhttp "github.com/ggonsajang/comcard/internal/http"
	"github.com/ggonsajang/comcard/internal/log"
)

const shutdownTimeout = 30 * time.Second

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "", "Listen port (overrides PORT)")
	serveCmd.Flags().Bool("secure-cookie", false, "Mark the session cookie Secure (serve behind TLS)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve the JSON API used by the ComCard front end. Writes trigger a
backup of the current month, either in-process or through the AMQP queue
when AMQP_URL is set.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := SignalContext(cmd.Context())
	defer stop()

	app, err := loadApp(ctx, cmd.OutOrStdout(), appOptions{artifacts: true, queue: true})
	if err != nil {
		return err
	}
	defer app.Close()

	port := app.Config.Port
	if p, _ := cmd.Flags().GetString("port"); p != "" {
		port = p
	}
	secure, _ := cmd.Flags().GetBool("secure-cookie")

	deps := comhttp.Deps{
		Store:        app.Backend.Expenses,
		Exporter:     app.Dispatcher,
		Artifacts:    app.Artifacts,
		Auth:         app.Auth,
		State:        app.State,
		Logger:       app.Logger.WithComponent(log.ComponentHTTP),
		RateLimitRPM: app.Config.RateLimitRPM,
		SecureCookie: secure,
	}
	if app.Config.BackupEnabled {
		deps.Backup = app.Backup
	}
	for _, p := range app.Backend.Pingers {
		deps.Pingers = append(deps.Pingers, p)
	}
	srv := comhttp.NewServer(":"+port, deps)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.Logger.Info("Starting HTTP server", log.FieldOperation, log.OpStartup, "addr", srv.Addr,
			"remote_store", app.Backend.Remote, "backup_enabled", app.Config.BackupEnabled,
			"backup_queue", app.Queue != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		app.Logger.Info("Shutting down HTTP server", log.FieldOperation, log.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	app.Backup.Wait()
	if err != nil {
		app.Logger.Error("Server stopped with error", log.FieldOperation, log.OpShutdown, log.FieldError, err)
		return err
	}
	app.Logger.Info("Server stopped", log.FieldOperation, log.OpShutdown)
	return nil
}
