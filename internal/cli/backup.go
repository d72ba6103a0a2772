package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ggonsajang/comcard/internal/amqp"
	"github.com/ggonsajang/comcard/internal/export"
	"github.com/ggonsajang/comcard/internal/log"
	"github.com/ggonsajang/comcard/internal/report"
	"github.com/ggonsajang/comcard/internal/worker"
)

func init() {
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(backupWorkerCmd)
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up the current month now",
	Long: `Write the current month's records to BACKUP_DIR in the backup format
and prepare the backup mail draft when BACKUP_EMAIL is set. A month
without records writes nothing.`,
	Args: cobra.NoArgs,
	RunE: runBackup,
}

func runBackup(cmd *cobra.Command, args []string) error {
	app, err := loadApp(cmd.Context(), cmd.ErrOrStderr(), appOptions{out: cmd.OutOrStdout()})
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.Backup.Run(cmd.Context())
	if errors.Is(err, export.ErrNoData) {
		fmt.Fprintln(cmd.OutOrStdout(), "이번 달 기록이 없어 백업하지 않았습니다.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%d건, %s)\n", res.Filename, res.Count, report.FormatAmount(res.Total))
	return nil
}

var backupWorkerCmd = &cobra.Command{
	Use:   "backup-worker",
	Short: "Consume queued backup requests",
	Long: `Run backups requested by the API server through AMQP. Requests that
arrive while a newer backup already ran are acknowledged without work.`,
	Args: cobra.NoArgs,
	RunE: runBackupWorker,
}

func runBackupWorker(cmd *cobra.Command, args []string) error {
	ctx, stop := SignalContext(cmd.Context())
	defer stop()

	app, err := loadApp(ctx, cmd.OutOrStdout(), appOptions{})
	if err != nil {
		return err
	}
	defer app.Close()

	if !app.Config.AMQPEnabled() {
		return errors.New("backup-worker requires AMQP_URL")
	}
	client, err := amqp.NewClient(app.Config.AMQPURL, app.Config.AMQPExchange, app.Config.AMQPQueue,
		app.Logger.WithComponent(log.ComponentAMQP).Slog())
	if err != nil {
		return fmt.Errorf("connect to AMQP: %w", err)
	}
	defer client.Close()

	w := worker.NewBackupWorker(app.Backup, app.Logger.WithComponent(log.ComponentWorker).Slog())
	app.Logger.Info("Backup worker started", "queue", app.Config.AMQPQueue)

	err = client.ConsumeBackupRequests(ctx, w.HandleBackupRequest)
	if err != nil && !errors.Is(err, ctx.Err()) {
		return err
	}
	app.Logger.Info("Backup worker stopped")
	return nil
}
