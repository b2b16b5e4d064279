package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	configPath string
	dbPath     string
)

var rootCmd = &cobra.Command{
	Use:           "opsreport",
	Short:         "Daily IT operations reports with local-first sync",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: opsreport.yaml in ., ~/.config/opsreport, /etc/opsreport)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path, overrides storage.path")

	rootCmd.AddGroup(
		&cobra.Group{ID: "reports", Title: "Reports:"},
		&cobra.Group{ID: "server", Title: "Server:"},
	)
}

// Output styles.
var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("24")).MarginTop(1)
)
