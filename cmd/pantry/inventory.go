package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/pantry-intelligence/internal/cli"
	"github.com/Veraticus/pantry-intelligence/internal/common"
	"github.com/Veraticus/pantry-intelligence/internal/importer"
	"github.com/Veraticus/pantry-intelligence/internal/model"
	"github.com/Veraticus/pantry-intelligence/internal/storage"
	"github.com/Veraticus/pantry-intelligence/internal/taxonomy"
	"github.com/spf13/cobra"
)

func inventoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "inventory",
		Aliases: []string{"inv"},
		Short:   "Manage what is in the pantry",
		Long:    `Add purchases, record what was used, and list current stock.`,
	}

	cmd.AddCommand(inventoryAddCmd())
	cmd.AddCommand(inventoryConsumeCmd())
	cmd.AddCommand(inventoryListCmd())

	return cmd
}

func inventoryAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name> <quantity>",
		Short: "Add a purchase to the pantry",
		Long: `Add a purchase to the pantry.

When no expiration date is given, one is estimated from the built-in shelf life
table for known foods.`,
		Args: cobra.ExactArgs(2),
		RunE: runInventoryAdd,
	}

	cmd.Flags().String("unit", "", "Unit of measure (l, kg, pack, ...)")
	cmd.Flags().String("category", "", "Product category (defaults to the taxonomy category)")
	cmd.Flags().String("brand", "", "Product brand")
	cmd.Flags().String("purchased", "", "Purchase date, YYYY-MM-DD (default: today)")
	cmd.Flags().String("expires", "", "Expiration date, YYYY-MM-DD")
	cmd.Flags().Bool("frozen", false, "Item goes into the freezer")

	return cmd
}

func runInventoryAdd(cmd *cobra.Command, args []string) error {
	name := args[0]
	quantity, err := importer.ParseQuantity(args[1])
	if err != nil {
		return common.NewUserError("invalid quantity", err)
	}

	unit, _ := cmd.Flags().GetString("unit")
	category, _ := cmd.Flags().GetString("category")
	brand, _ := cmd.Flags().GetString("brand")
	purchasedFlag, _ := cmd.Flags().GetString("purchased")
	expiresFlag, _ := cmd.Flags().GetString("expires")
	frozen, _ := cmd.Flags().GetBool("frozen")

	purchased, err := parseDateFlag(purchasedFlag, time.Now())
	if err != nil {
		return err
	}

	tax, err := taxonomy.Default()
	if err != nil {
		return err
	}

	var expires *time.Time
	if expiresFlag != "" {
		t, err := parseDateFlag(expiresFlag, time.Time{})
		if err != nil {
			return err
		}
		expires = &t
	} else {
		expires = tax.DefaultExpiration(name, purchased, frozen)
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	product, err := importer.EnsureProduct(ctx, a.store, tax, name, category)
	if err != nil {
		return err
	}
	if brand != "" && product.Brand == "" {
		product.Brand = brand
	}

	item := &model.InventoryItem{
		HouseholdID:    a.household,
		ProductID:      product.ID,
		Product:        product,
		Quantity:       quantity,
		Unit:           unit,
		PurchaseDate:   purchased,
		ExpirationDate: expires,
	}
	if err := a.store.AddInventoryItem(ctx, item); err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}

	slog.Info("Added inventory item", "household_id", a.household, "product", product.Name, "quantity", quantity)

	amount := fmt.Sprintf("%g", quantity)
	if unit != "" {
		amount += " " + unit
	}
	msg := fmt.Sprintf("Added %s of %s", amount, product.Name)
	if expires != nil {
		msg += fmt.Sprintf(", expires %s", expires.Format(time.DateOnly))
		if expiresFlag == "" {
			msg += " (estimated)"
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(msg))
	return nil
}

func inventoryConsumeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consume <name> <quantity>",
		Short: "Record that some of a product was used",
		Long: `Record that some of a product was used.

Stock closest to expiring is used first. The removal is also written to the
consumption history that drives replenishment predictions.`,
		Args: cobra.ExactArgs(2),
		RunE: runInventoryConsume,
	}

	cmd.Flags().String("at", "", "Date it was used, YYYY-MM-DD (default: now)")

	return cmd
}

func runInventoryConsume(cmd *cobra.Command, args []string) error {
	name := args[0]
	quantity, err := importer.ParseQuantity(args[1])
	if err != nil {
		return common.NewUserError("invalid quantity", err)
	}

	atFlag, _ := cmd.Flags().GetString("at")
	at, err := parseDateFlag(atFlag, time.Now())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	product, err := a.store.FindProductByName(ctx, name)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.NewUserError(fmt.Sprintf("%q is not a known product", name), err)
		}
		return err
	}

	event, err := a.store.ConsumeInventory(ctx, a.household, product.ID, quantity, at)
	if err != nil {
		if errors.Is(err, storage.ErrInsufficientStock) {
			return common.NewUserError(fmt.Sprintf("there is no %s in the pantry", product.Name), err)
		}
		return err
	}

	slog.Info("Recorded consumption", "household_id", a.household, "product", product.Name, "quantity", event.QuantityDelta)

	msg := fmt.Sprintf("Used %g of %s", event.QuantityDelta, product.Name)
	if event.QuantityDelta < quantity {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning(fmt.Sprintf("Only %g of %s was in stock", event.QuantityDelta, product.Name)))
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(msg))
	return nil
}

func inventoryListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List current stock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, _ := cmd.Flags().GetBool("all")

			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := a.store.ListInventory(ctx, a.household, all)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatTitle(fmt.Sprintf("Pantry for %s", a.household)))
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderInventory(items, time.Now()))
			return nil
		},
	}

	cmd.Flags().Bool("all", false, "Include used-up items")

	return cmd
}
