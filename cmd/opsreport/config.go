package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/warp/opsreport/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with default values",
	Long: `Write a config file with default values. The default path is
~/.config/opsreport/opsreport.yaml. Existing files are kept unless --force
is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		endpoint, _ := cmd.Flags().GetString("endpoint")

		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return err
			}
			path = filepath.Join(home, ".config", "opsreport", config.FileName+".yaml")
		}

		cfg := config.Default()
		cfg.Remote.Endpoint = endpoint
		if err := config.Save(path, cfg, force); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Wrote "+path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		loader := config.NewLoader(configPath)
		cfg, err := loader.Load()
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.Storage.Path = dbPath
		}
		data, err := config.Marshal(cfg)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if f := loader.File(); f != "" {
			fmt.Fprintln(out, dimStyle.Render("# "+f))
		} else {
			fmt.Fprintln(out, dimStyle.Render("# defaults (no config file found)"))
		}
		_, err = out.Write(data)
		return err
	},
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")
	configInitCmd.Flags().String("endpoint", "", "remote endpoint to write into the file")
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}
