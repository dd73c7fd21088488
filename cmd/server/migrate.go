package main

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		// newApp 已执行 AutoMigrate。
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		a.log.WithField("db", a.cfg.DBPath).Info("migration complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
