package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/anonto42/postboard/internal/models"
	"github.com/anonto42/postboard/internal/repositories"
	"github.com/anonto42/postboard/validators"
	"github.com/spf13/cobra"
)

var (
	// Group create flags
	groupTitle       string
	groupSlug        string
	groupDescription string
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage post groups",
	Long: `Manage the groups posts can be filed under.

Subcommands:
  create  - Add a group
  delete  - Remove a group; its posts stay, without a group`,
}

var groupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Add a group",
	Long: `Add a group.

Examples:
  postboard group create --title "Cats" --slug cats --description "All about cats"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		group := &models.Group{
			Title:       strings.TrimSpace(groupTitle),
			Slug:        strings.TrimSpace(groupSlug),
			Description: groupDescription,
		}
		if err := checkGroup(validators.NewValidator(), group); err != nil {
			return err
		}

		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		if err := createGroup(cmd.Context(), repositories.NewSQLGroupRepository(a.db.SQL), group); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created group %q (id %d)\n", group.Slug, group.ID)
		return nil
	},
}

var groupDeleteCmd = &cobra.Command{
	Use:   "delete SLUG",
	Short: "Remove a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		if err := repositories.NewSQLGroupRepository(a.db.SQL).DeleteGroup(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("delete group %q: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted group %q\n", args[0])
		return nil
	},
}

// checkGroup applies the same field rules the database columns impose.
func checkGroup(v *validators.CustomValidator, group *models.Group) error {
	fe := validators.Messages(v.Validate(group))
	if !fe.Any() {
		return nil
	}
	fields := make([]string, 0, len(fe))
	for field := range fe {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	msgs := make([]string, 0, len(fields))
	for _, field := range fields {
		msgs = append(msgs, fmt.Sprintf("--%s: %s", field, strings.Join(fe[field], " ")))
	}
	return fmt.Errorf("invalid group: %s", strings.Join(msgs, "; "))
}

func createGroup(ctx context.Context, groups repositories.GroupRepository, group *models.Group) error {
	if _, err := groups.GetGroupBySlug(ctx, group.Slug); err == nil {
		return fmt.Errorf("group %q already exists", group.Slug)
	}
	if err := groups.CreateGroup(ctx, group); err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

func init() {
	groupCreateCmd.Flags().StringVar(&groupTitle, "title", "", "Group title (required)")
	groupCreateCmd.Flags().StringVar(&groupSlug, "slug", "", "URL slug, at most 20 characters (required)")
	groupCreateCmd.Flags().StringVar(&groupDescription, "description", "", "Group description")
	_ = groupCreateCmd.MarkFlagRequired("title")
	_ = groupCreateCmd.MarkFlagRequired("slug")

	groupCmd.AddCommand(groupCreateCmd, groupDeleteCmd)
	rootCmd.AddCommand(groupCmd)
}
