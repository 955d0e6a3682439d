package commands

import (
	"fmt"

	"github.com/anonto42/postboard/internal/repositories"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete USERNAME",
	Short: "Delete a user together with their posts, comments and follows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		users := repositories.NewSQLUserRepository(a.db.SQL)
		user, err := users.GetUserByUsername(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("find user %q: %w", args[0], err)
		}
		if err := users.DeleteUser(cmd.Context(), user.ID); err != nil {
			return fmt.Errorf("delete user %q: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted user %q\n", args[0])
		return nil
	},
}

func init() {
	userCmd.AddCommand(userDeleteCmd)
	rootCmd.AddCommand(userCmd)
}
