package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sweetshop",
	Short: "Sweet shop inventory and purchase API",
	Long: `Sweet shop inventory and purchase API.

Configuration is read from the environment and an optional .env file
(SECRET_KEY is required). Running without a subcommand starts the server.

Examples:
  sweetshop                          # same as "sweetshop serve"
  sweetshop migrate                  # create or update tables and exit
  sweetshop user promote a@b.com     # grant admin role`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}
