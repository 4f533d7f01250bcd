package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/pantry-intelligence/internal/cli"
	"github.com/Veraticus/pantry-intelligence/internal/common"
	"github.com/spf13/cobra"
)

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <ingredient>...",
		Short: "Check which recipe ingredients are on hand",
		Long: `Check which recipe ingredients are on hand.

Each ingredient is matched exactly first, then through known substitutes, then by
partial name. If the substitution rules cannot be read, only exact and partial
matches are reported.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCheck,
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()

	results, err := a.engine.CheckAvailability(ctx, args, a.household)
	if common.IsStoreUnavailable(err) {
		slog.Warn("Equivalency rules unavailable, checking exact matches only", "error", err)
		fmt.Fprintln(out, cli.FormatWarning("Substitution rules are unavailable; showing exact matches only."))
		results, err = a.engine.CheckAvailabilityExactOnly(ctx, args, a.household)
	}
	if err != nil {
		return err
	}

	names, err := productNames(cmd, a)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, cli.FormatTitle("Ingredient check"))
	fmt.Fprint(out, cli.RenderMatches(results, names))

	missing := 0
	for _, r := range results {
		if !r.Found() {
			missing++
		}
	}
	if missing > 0 {
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%d of %d ingredients missing", missing, len(results))))
	} else {
		fmt.Fprintln(out, cli.FormatSuccess("Everything is on hand"))
	}
	return nil
}

func productNames(cmd *cobra.Command, a *app) (map[string]string, error) {
	products, err := a.store.ListProducts(cmd.Context())
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}
	return names, nil
}
