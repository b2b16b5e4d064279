package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/warp/opsreport/report"
	"github.com/warp/opsreport/syncer"
)

// =============================================================================
// SAVE
// =============================================================================

var saveCmd = &cobra.Command{
	Use:     "save",
	GroupID: "reports",
	Short:   "Save a report from a JSON file or stdin",
	Long: `Save a report. The record is written to the local store first, then
pushed to the remote endpoint. A remote failure leaves the record saved
locally and is reported, not returned as an error.

The input is the wire form used by the dashboard:
  {"date":"2024-03-01","preparedBy":"Sam","servers":[["HQ","Normal",""]], ...}`,
	Example: `  opsreport save --file today.json
  cat report.json | opsreport save --date yesterday`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		dateFlag, _ := cmd.Flags().GetString("date")
		preparedBy, _ := cmd.Flags().GetString("prepared-by")

		rec, err := readRecord(cmd.InOrStdin(), file)
		if err != nil {
			return err
		}
		if dateFlag != "" {
			if rec.Date, err = report.ParseDate(dateFlag, time.Now()); err != nil {
				return err
			}
		}
		if rec.Date == "" {
			rec.Date = report.Today(time.Now())
		}
		if preparedBy != "" {
			rec.PreparedBy = preparedBy
		}

		a, err := newApp(cmd.Context(), stderrNotifications)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		result, err := a.syncer.Save(cmd.Context(), rec, func(p syncer.Progress) {
			fmt.Fprintln(out, dimStyle.Render("  "+progressLabel(p)))
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s (remote: %s)\n", titleStyle.Render("Saved"), result.Date, result.Remote.Status)
		if report.HasIssues(rec) {
			fmt.Fprintln(out, warnStyle.Render("  report has flagged rows, see: opsreport issues "+rec.Date))
		}
		return nil
	},
}

func progressLabel(p syncer.Progress) string {
	switch p {
	case syncer.ProgressLocal:
		return "saved locally"
	case syncer.ProgressSynced:
		return "synced to remote"
	case syncer.ProgressDispatched:
		return "sent to remote (unconfirmed)"
	}
	return string(p)
}

func readRecord(stdin io.Reader, file string) (report.Record, error) {
	var r io.Reader = stdin
	if file != "" && file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return report.Record{}, err
		}
		defer f.Close()
		r = f
	}
	var rec report.Record
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return report.Record{}, fmt.Errorf("failed to parse report JSON: %w", err)
	}
	return rec, nil
}

// =============================================================================
// LIST
// =============================================================================

var listCmd = &cobra.Command{
	Use:     "list",
	GroupID: "reports",
	Short:   "List reports, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		localOnly, _ := cmd.Flags().GetBool("local")
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := newApp(cmd.Context(), stderrNotifications)
		if err != nil {
			return err
		}
		defer a.Close()

		var records []report.Record
		source := syncer.SourceLocal
		if localOnly {
			records = a.syncer.List(cmd.Context())
		} else {
			records, source = a.syncer.LoadAll(cmd.Context())
		}

		out := cmd.OutOrStdout()
		if asJSON {
			return writeIndentedJSON(out, records)
		}
		if len(records) == 0 {
			fmt.Fprintln(out, dimStyle.Render("No reports yet."))
			return nil
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("DATE", "DAY", "PREPARED BY", "STATUS")
		for _, r := range records {
			status := okStyle.Render("ok")
			if report.HasIssues(r) {
				status = warnStyle.Render("issues")
			}
			t.Row(r.Date, report.FormatDateShort(r.Date), r.PreparedBy, status)
		}
		fmt.Fprintln(out, t.String())
		fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("%d report(s) from %s store", len(records), source)))
		return nil
	},
}

// =============================================================================
// SHOW
// =============================================================================

var showCmd = &cobra.Command{
	Use:     "show [date]",
	GroupID: "reports",
	Short:   "Show one report (date defaults to today)",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		date, err := dateArg(args)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), stderrNotifications)
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := a.syncer.Get(cmd.Context(), date)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if asJSON {
			return writeIndentedJSON(out, rec)
		}
		printRecord(out, rec)
		return nil
	},
}

func printRecord(out io.Writer, rec report.Record) {
	fmt.Fprintln(out, titleStyle.Render("IT Operations Report - "+report.FormatDate(rec.Date)))
	fmt.Fprintln(out, dimStyle.Render("Prepared by: "+orNA(rec.PreparedBy)))
	for _, schema := range report.Schemas() {
		fmt.Fprintln(out, sectionStyle.Render(schema.Title))
		rows := rec.Table(schema.Category)
		if len(rows) == 0 {
			fmt.Fprintln(out, dimStyle.Render("  (no rows)"))
			continue
		}
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers(schema.Headers...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow || col != schema.StatusIndex {
					return lipgloss.NewStyle()
				}
				return badgeStyle(report.Classify(rows[row][col]))
			})
		for _, cells := range rows {
			t.Row(cells...)
		}
		fmt.Fprintln(out, t.String())
	}
	fmt.Fprintln(out, sectionStyle.Render("Summary"))
	fmt.Fprintln(out, orNA(rec.SummaryNotes))
	fmt.Fprintln(out, sectionStyle.Render("Next Actions"))
	fmt.Fprintln(out, orNA(rec.NextActions))
}

func badgeStyle(b report.Badge) lipgloss.Style {
	switch b {
	case report.BadgeOK:
		return okStyle
	case report.BadgeWarn:
		return warnStyle
	case report.BadgeCrit:
		return errorStyle
	}
	return lipgloss.NewStyle()
}

// =============================================================================
// DELETE
// =============================================================================

var deleteCmd = &cobra.Command{
	Use:     "delete <date>",
	GroupID: "reports",
	Short:   "Delete a report locally, then on the remote",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateArg(args)
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), stderrNotifications)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.syncer.Delete(cmd.Context(), date)
	},
}

// =============================================================================
// ISSUES
// =============================================================================

var issuesCmd = &cobra.Command{
	Use:     "issues [date]",
	GroupID: "reports",
	Short:   "List flagged rows of a report (date defaults to today)",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateArg(args)
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), stderrNotifications)
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := a.syncer.Get(cmd.Context(), date)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		issues := report.Issues(rec)
		if len(issues) == 0 {
			fmt.Fprintln(out, okStyle.Render("No issues flagged for "+date))
			return nil
		}
		for _, is := range issues {
			schema, _ := report.Schema(is.Category)
			fmt.Fprintf(out, "%s  %s  %s\n",
				warnStyle.Render(is.Status), titleStyle.Render(schema.Title), strings.Join(is.Cells, " | "))
		}
		return nil
	},
}

func init() {
	saveCmd.Flags().StringP("file", "f", "", "report JSON file (default stdin)")
	saveCmd.Flags().String("date", "", "override the report date (YYYY-MM-DD, today, yesterday...)")
	saveCmd.Flags().String("prepared-by", "", "override preparedBy")
	listCmd.Flags().Bool("local", false, "read the local store only")
	listCmd.Flags().Bool("json", false, "output JSON")
	showCmd.Flags().Bool("json", false, "output JSON")

	rootCmd.AddCommand(saveCmd, listCmd, showCmd, deleteCmd, issuesCmd)
}

// =============================================================================
// HELPERS
// =============================================================================

// dateArg resolves an optional date argument, defaulting to today.
func dateArg(args []string) (string, error) {
	now := time.Now()
	if len(args) == 0 {
		return report.Today(now), nil
	}
	return report.ParseDate(args[0], now)
}

func writeIndentedJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
