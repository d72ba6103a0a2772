package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ggonsajang/comcard/internal/export"
	"github.com/ggonsajang/comcard/internal/handoff"
	"github.com/ggonsajang/comcard/internal/mail"
	"github.com/ggonsajang/comcard/internal/report"
)

var periodUsage = "Period to report: " + joinPeriods()

func joinPeriods() string {
	names := make([]string, 0, len(report.Periods()))
	for _, p := range report.Periods() {
		names = append(names, p.String())
	}
	return strings.Join(names, ", ")
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(exportCmd)

	listCmd.Flags().StringP("period", "p", string(report.PeriodCurrent), periodUsage)

	exportCmd.Flags().StringP("period", "p", string(report.PeriodCurrent), periodUsage)
	exportCmd.Flags().StringP("out", "o", ".", "Directory the report file is written to")
	exportCmd.Flags().BoolP("email", "e", false, "Also open a mail draft to the approver")
	exportCmd.Flags().Bool("open", false, "Open the mail draft with the desktop mail handler")
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the expenses of a period",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	p, err := periodFlag(cmd)
	if err != nil {
		return err
	}
	app, err := loadApp(cmd.Context(), cmd.ErrOrStderr(), appOptions{})
	if err != nil {
		return err
	}
	defer app.Close()

	items, err := app.Backend.Expenses.List(cmd.Context())
	if err != nil {
		return err
	}
	r := report.Render(items, p, time.Now())

	out := cmd.OutOrStdout()
	if r.Empty() {
		fmt.Fprintln(out, mail.NoticeNoData)
		return nil
	}
	fmt.Fprintf(out, "[%s]\n", r.Title)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, row := range r.Table() {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(out, r.Summary())
	return nil
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a period report file",
	Long: `Render the expenses of a period into the configured export format and
write the file to a directory. With --email a mail draft addressed to the
approver is printed, or opened with --open.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	p, err := periodFlag(cmd)
	if err != nil {
		return err
	}
	outDir, _ := cmd.Flags().GetString("out")
	alsoMail, _ := cmd.Flags().GetBool("email")
	open, _ := cmd.Flags().GetBool("open")

	app, err := loadApp(cmd.Context(), cmd.ErrOrStderr(), appOptions{})
	if err != nil {
		return err
	}
	defer app.Close()

	var opener handoff.Opener
	if open {
		opener = handoff.SystemOpener
	}
	dir := handoff.NewDir(outDir, opener, cmd.OutOrStdout(), app.Logger.Slog())

	res, err := app.Dispatcher.Export(cmd.Context(), p, alsoMail, dir)
	if errors.Is(err, export.ErrNoData) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, path := range dir.Written() {
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%d건, %s)\n", path, res.Count, report.FormatAmount(res.Total))
	}
	return nil
}

func periodFlag(cmd *cobra.Command) (report.Period, error) {
	s, _ := cmd.Flags().GetString("period")
	return report.ParsePeriod(s)
}
