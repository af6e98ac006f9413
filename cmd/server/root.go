package main

import (
	"github.com/spf13/cobra"

	"github.com/sumire/issuetracker/internal/config"
)

var (
	v       = config.New()
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "issuetracker",
	Short: "Issue tracker API server",
	Long: `issuetracker serves a JSON API for creating, listing, updating and
deleting issues. Issues are stored in PostgreSQL, SQLite or memory,
selected by the database_url setting.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.ReadFile(v, cfgFile)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./issues.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	_ = v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}
