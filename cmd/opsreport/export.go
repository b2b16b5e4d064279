package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/opsreport/export"
)

var exportCmd = &cobra.Command{
	Use:     "export [date]",
	GroupID: "reports",
	Short:   "Export a report as HTML or XLSX",
	Long: `Export a report (date defaults to today).

  --format html  Printable document. With --print it is opened in the
                 desktop's browser for printing; when that is not possible
                 it is saved to the export archive instead.
  --format xlsx  Workbook with a Summary sheet and one sheet per category.

Without --out the document goes to the export archive.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		outPath, _ := cmd.Flags().GetString("out")
		openPrint, _ := cmd.Flags().GetBool("print")

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

		if openPrint {
			if format != "html" {
				return fmt.Errorf("--print only supports html")
			}
			d, err := a.publisher.Publish(cmd.Context(), rec)
			if err != nil {
				return err
			}
			if d.Method == export.MethodPrint {
				fmt.Fprintln(out, okStyle.Render("Opened "+d.Name+" for printing"))
			} else {
				fmt.Fprintln(out, "Saved "+d.Location)
			}
			return nil
		}

		var doc []byte
		var name, contentType string
		switch format {
		case "html":
			doc, err = export.HTML(rec, export.HTMLOptions{GeneratedAt: time.Now()})
			name, contentType = export.FileName(rec.Date), "text/html; charset=utf-8"
		case "xlsx":
			doc, err = export.XLSX(rec)
			name, contentType = export.XLSXName(rec.Date), "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		default:
			return fmt.Errorf("unknown format %q (html, xlsx)", format)
		}
		if err != nil {
			return err
		}

		if outPath != "" {
			if err := os.WriteFile(outPath, doc, 0o644); err != nil {
				return err
			}
			fmt.Fprintln(out, "Wrote "+outPath)
			return nil
		}
		info, err := a.publisher.Archive.Put(cmd.Context(), name, bytes.NewReader(doc), contentType)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "Saved "+info.Location)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("format", "html", "html or xlsx")
	exportCmd.Flags().StringP("out", "o", "", "write to this path instead of the export archive")
	exportCmd.Flags().Bool("print", false, "open the HTML in a browser for printing")
	rootCmd.AddCommand(exportCmd)
}
