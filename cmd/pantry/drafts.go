package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/pantry-intelligence/internal/cli"
	"github.com/Veraticus/pantry-intelligence/internal/common"
	"github.com/Veraticus/pantry-intelligence/internal/model"
	"github.com/spf13/cobra"
)

func draftsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Saved shopping lists",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved shopping lists, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			drafts, err := a.store.ListDrafts(ctx, a.household)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(drafts))
			for _, d := range drafts {
				rows = append(rows, []string{d.ID, d.CreatedAt.Local().Format(time.DateTime)})
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderTable([]string{"Draft", "Created"}, rows))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show a saved shopping list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			draft, err := householdDraft(cmd, a, args[0])
			if err != nil {
				return err
			}
			summary := fmt.Sprintf("Created %s\n%d items", draft.CreatedAt.Local().Format(time.DateTime), len(draft.Items))
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox(fmt.Sprintf("Draft %s", draft.ID), summary))
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderRecommendations(draft.Items))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "export <id>",
		Short: "Export a saved shopping list to Google Sheets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			draft, err := householdDraft(cmd, a, args[0])
			if err != nil {
				return err
			}
			return exportDraft(cmd, draft)
		},
	})

	return cmd
}

func householdDraft(cmd *cobra.Command, a *app, id string) (*model.ShoppingListDraft, error) {
	draft, err := a.store.GetDraft(cmd.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewUserError(fmt.Sprintf("no draft %s", id), err)
		}
		return nil, err
	}
	if draft.HouseholdID != a.household {
		return nil, common.NewUserError(fmt.Sprintf("draft %s belongs to another household", id), common.ErrNotFound)
	}
	return draft, nil
}
