package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sweet_shop/internal/model"
	"sweet_shop/internal/service"
)

var (
	// user list flags
	listSkip  int
	listLimit int
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
	Long: `Operator access to user accounts.

Role changes apply to tokens issued afterwards; tokens already issued keep
their role until they expire.

Examples:
  sweetshop user list --limit 20
  sweetshop user promote ops@sweetshop.com
  sweetshop user deactivate spam@example.com`,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUsers(cmd.Context(), func(ctx context.Context, users *service.UserDirectory) error {
			total, list, err := users.List(ctx, listSkip, listLimit)
			if err != nil {
				return err
			}
			printUsers(list)
			fmt.Printf("\n%d of %d users\n", len(list), total)
			return nil
		})
	},
}

var userPromoteCmd = &cobra.Command{
	Use:   "promote <email>",
	Short: "Grant the admin role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRole(cmd.Context(), args[0], true)
	},
}

var userDemoteCmd = &cobra.Command{
	Use:   "demote <email>",
	Short: "Revoke the admin role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRole(cmd.Context(), args[0], false)
	},
}

var userDeactivateCmd = &cobra.Command{
	Use:   "deactivate <email>",
	Short: "Disable login for an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUsers(cmd.Context(), func(ctx context.Context, users *service.UserDirectory) error {
			u, err := users.GetByEmail(ctx, args[0])
			if err != nil {
				return err
			}
			u, err = users.Deactivate(ctx, u.ID)
			if err != nil {
				return err
			}
			printUsers([]model.User{*u})
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userListCmd, userPromoteCmd, userDemoteCmd, userDeactivateCmd)

	userListCmd.Flags().IntVar(&listSkip, "skip", 0, "Number of users to skip")
	userListCmd.Flags().IntVar(&listLimit, "limit", 50, "Maximum number of users to show")
}

func withUsers(ctx context.Context, fn func(context.Context, *service.UserDirectory) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	return fn(ctx, a.users)
}

func setRole(ctx context.Context, email string, isAdmin bool) error {
	return withUsers(ctx, func(ctx context.Context, users *service.UserDirectory) error {
		u, err := users.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		u, err = users.UpdateRole(ctx, u.ID, isAdmin)
		if err != nil {
			return err
		}
		printUsers([]model.User{*u})
		return nil
	})
}

func printUsers(users []model.User) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tNAME\tADMIN\tACTIVE\tCREATED")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%t\t%s\n",
			u.ID, u.Email, u.FullName, u.IsAdmin, u.IsActive, u.CreatedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()
}
