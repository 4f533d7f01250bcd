package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Veraticus/pantry-intelligence/internal/cli"
	"github.com/Veraticus/pantry-intelligence/internal/importer"
	"github.com/Veraticus/pantry-intelligence/internal/taxonomy"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import inventory or consumption history from CSV",
		Long: `Import inventory or consumption history from CSV files.

Inventory files need the columns name and quantity, and may add unit, category,
purchase_date, expiration_date and frozen. History files need name, quantity and
occurred_at. Lines that cannot be read are reported and skipped.`,
	}

	cmd.AddCommand(importInventoryCmd())
	cmd.AddCommand(importEventsCmd())

	return cmd
}

func importInventoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inventory <file.csv>",
		Short: "Import pantry stock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer func() { _ = f.Close() }()

			rows, rowErrs, err := importer.ReadInventoryCSV(f, time.Now())
			if err != nil {
				return err
			}

			tax, err := taxonomy.Default()
			if err != nil {
				return err
			}

			return runImport(cmd, "Importing inventory...", len(rows), rowErrs, tax,
				func(ctx context.Context, im *importer.Importer, household string) (importer.Result, error) {
					return im.ImportInventory(ctx, household, rows)
				})
		},
	}
}

func importEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events <file.csv>",
		Short: "Import consumption history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer func() { _ = f.Close() }()

			rows, rowErrs, err := importer.ReadEventsCSV(f, time.Local)
			if err != nil {
				return err
			}

			return runImport(cmd, "Importing history...", len(rows), rowErrs, nil,
				func(ctx context.Context, im *importer.Importer, household string) (importer.Result, error) {
					return im.ImportEvents(ctx, household, rows)
				})
		},
	}
}

type importFunc func(ctx context.Context, im *importer.Importer, household string) (importer.Result, error)

func runImport(cmd *cobra.Command, description string, total int, parseErrs []importer.RowError, tax *taxonomy.Taxonomy, run importFunc) error {
	out := cmd.OutOrStdout()

	handler := cli.NewInterruptHandler(out, "Import", "Rows imported so far were kept.")
	ctx := handler.HandleInterrupts(cmd.Context())

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	bar := cli.NewProgressBar(out, total, description)
	im := importer.New(a.store, tax)
	im.OnProgress(func() { cli.Advance(bar) })

	result, err := run(ctx, im, a.household)
	if err != nil {
		if handler.WasInterrupted() {
			slog.Info("Import interrupted", "imported", result.Imported)
			return nil
		}
		return err
	}

	slog.Info("Import finished", "household_id", a.household, "imported", result.Imported,
		"unreadable", len(parseErrs), "failed", len(result.Errors))

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d of %d rows", result.Imported, total+len(parseErrs))))
	for _, rowErr := range append(parseErrs, result.Errors...) {
		fmt.Fprintln(out, cli.FormatWarning(rowErr.Error()))
	}
	return nil
}
