/*
main.go - Application entry point

PURPOSE:
  The opsreport command: records daily IT-operations reports, keeps them
  in a local SQLite store, mirrors them to the remote spreadsheet endpoint
  and exports printable documents.

COMMANDS:
  serve         Run the dashboard API (graceful shutdown, background refresh)
  save          Save a report from a JSON file or stdin
  list          List reports (remote wins when it has any)
  show          Show one report
  delete        Delete a report locally and remotely
  issues        List flagged rows
  export        Write a report as HTML or XLSX
  config init   Write a default config file

GLOBAL FLAGS:
  --config   Config file (default: opsreport.yaml in ., ~/.config/opsreport, /etc/opsreport)
  --db       SQLite database path, overrides storage.path (":memory:" allowed)

EXAMPLES:
  opsreport serve
  opsreport save --file today.json
  opsreport show yesterday
  opsreport export 2024-03-01 --format xlsx --out march1.xlsx

SEE ALSO:
  - app.go: Dependency wiring shared by all commands
  - config/config.go: Configuration sources
*/
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}
}
