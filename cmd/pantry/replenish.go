package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/pantry-intelligence/internal/cli"
	"github.com/Veraticus/pantry-intelligence/internal/config"
	"github.com/Veraticus/pantry-intelligence/internal/engine"
	"github.com/Veraticus/pantry-intelligence/internal/model"
	"github.com/Veraticus/pantry-intelligence/internal/service"
	"github.com/Veraticus/pantry-intelligence/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// newSheetWriter is replaced in tests.
var newSheetWriter = func(cmd *cobra.Command) (service.ShoppingListWriter, error) {
	cfg, err := config.LoadSheetsConfig(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("google sheets is not configured: %w", err)
	}
	writer, err := sheets.NewWriter(cmd.Context(), *cfg, slog.Default())
	if err != nil {
		return nil, err
	}
	return writer, nil
}

func replenishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "replenish",
		Aliases: []string{"shop"},
		Short:   "Build a ranked shopping list",
		Long: `Build a ranked shopping list from how fast products are used and what is
about to expire.

The list can be saved as a draft for later and exported to Google Sheets.`,
		Args: cobra.NoArgs,
		RunE: runReplenish,
	}

	cmd.Flags().Int("window", 0, "Days of consumption history to analyze (default from config, 30)")
	cmd.Flags().Int("horizon", 0, "Days ahead to look for expirations (default from config, 7)")
	cmd.Flags().Int("cap", 0, "Maximum number of recommendations (default from config, 20)")
	cmd.Flags().Bool("save", false, "Save the list as a draft")
	cmd.Flags().Bool("sheet", false, "Export the list to Google Sheets (implies --save)")

	return cmd
}

func runReplenish(cmd *cobra.Command, _ []string) error {
	window, _ := cmd.Flags().GetInt("window")
	horizon, _ := cmd.Flags().GetInt("horizon")
	limit, _ := cmd.Flags().GetInt("cap")
	save, _ := cmd.Flags().GetBool("save")
	toSheet, _ := cmd.Flags().GetBool("sheet")

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	recs, err := a.engine.PredictReplenishment(ctx, a.household, engine.ReplenishmentOptions{
		WindowDays:  window,
		HorizonDays: horizon,
		Cap:         limit,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Shopping list for %s", a.household)))
	fmt.Fprint(out, cli.RenderRecommendations(recs))

	if !save && !toSheet {
		return nil
	}

	draft := &model.ShoppingListDraft{
		HouseholdID: a.household,
		CreatedAt:   time.Now(),
		Items:       recs,
	}
	if err := a.store.SaveDraft(ctx, draft); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	slog.Info("Saved shopping list draft", "draft_id", draft.ID, "items", len(draft.Items))
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Saved draft %s", draft.ID)))

	if toSheet {
		return exportDraft(cmd, draft)
	}
	return nil
}

func exportDraft(cmd *cobra.Command, draft *model.ShoppingListDraft) error {
	writer, err := newSheetWriter(cmd)
	if err != nil {
		return err
	}
	if err := writer.WriteShoppingList(cmd.Context(), draft); err != nil {
		return fmt.Errorf("failed to export draft %s: %w", draft.ID, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Exported to Google Sheets"))
	return nil
}
