package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Veraticus/pantry-intelligence/internal/cli"
	"github.com/Veraticus/pantry-intelligence/internal/common"
	"github.com/Veraticus/pantry-intelligence/internal/model"
	"github.com/Veraticus/pantry-intelligence/internal/normalize"
	"github.com/Veraticus/pantry-intelligence/internal/service"
	"github.com/Veraticus/pantry-intelligence/internal/storage"
	"github.com/Veraticus/pantry-intelligence/internal/taxonomy"
	"github.com/spf13/cobra"
)

func equivalentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "equivalents",
		Aliases: []string{"eq"},
		Short:   "Manage ingredient substitution rules",
		Long: `View and manage which ingredients may stand in for others.

System rules ship with pantry and apply to every household. A household may add
its own rules, which take precedence over the system rule for the same pair.`,
	}

	cmd.AddCommand(equivalentsResolveCmd())
	cmd.AddCommand(equivalentsListCmd())
	cmd.AddCommand(equivalentsAddCmd())
	cmd.AddCommand(equivalentsEditCmd())
	cmd.AddCommand(equivalentsDeleteCmd())
	cmd.AddCommand(equivalentsRestoreCmd())
	cmd.AddCommand(equivalentsActiveCmd("activate", true))
	cmd.AddCommand(equivalentsActiveCmd("deactivate", false))
	cmd.AddCommand(equivalentsImportCmd())

	return cmd
}

func equivalentsResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <name>",
		Short: "Show what can substitute for an ingredient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			candidates, err := a.engine.ResolveEquivalents(ctx, args[0], a.household)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatTitle(fmt.Sprintf("Substitutes for %s", normalize.Normalize(args[0]))))
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderCandidates(normalize.Normalize(args[0]), candidates))
			return nil
		},
	}
}

func equivalentsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List substitution rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			system, _ := cmd.Flags().GetBool("system")
			mine, _ := cmd.Flags().GetBool("mine")
			name, _ := cmd.Flags().GetString("name")
			all, _ := cmd.Flags().GetBool("all")

			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			filter := service.EdgeFilter{
				Name:            normalize.Normalize(name),
				IncludeInactive: all,
			}
			switch {
			case system && mine:
				return common.NewUserError("--system and --mine cannot be combined", common.ErrInvalidConfig)
			case system:
				filter.Scope = model.ScopeSystem
			case mine:
				filter.Scope = model.ScopeHousehold
				filter.HouseholdID = a.household
			}

			edges, err := a.store.ListEquivalencyEdges(ctx, filter)
			if err != nil {
				return err
			}
			if filter.Scope == "" {
				edges = visibleEdges(edges, a.household)
			}

			fmt.Fprint(cmd.OutOrStdout(), cli.RenderEdges(edges))
			return nil
		},
	}

	cmd.Flags().Bool("system", false, "Only system rules")
	cmd.Flags().Bool("mine", false, "Only this household's rules")
	cmd.Flags().String("name", "", "Only rules mentioning this ingredient")
	cmd.Flags().Bool("all", false, "Include inactive rules")

	return cmd
}

// visibleEdges drops other households' rules.
func visibleEdges(edges []model.EquivalencyEdge, householdID string) []model.EquivalencyEdge {
	visible := edges[:0]
	for _, e := range edges {
		if e.Scope == model.ScopeSystem || e.HouseholdID == householdID {
			visible = append(visible, e)
		}
	}
	return visible
}

func equivalentsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <ingredient> <substitute>",
		Short: "Add a household substitution rule",
		Long: `Add a household substitution rule.

The ratio reads "ingredient:substitute", so 1:2 means one unit of the ingredient
can be replaced by two units of the substitute.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			confidence, _ := cmd.Flags().GetFloat64("confidence")
			ratio, _ := cmd.Flags().GetString("ratio")
			bidirectional, _ := cmd.Flags().GetBool("bidirectional")

			if _, err := model.ParseRatio(ratio); err != nil {
				return common.NewUserError(fmt.Sprintf("invalid ratio %q", ratio), err)
			}

			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			edge := model.NewEquivalencyEdge(normalize.Normalize(args[0]), normalize.Normalize(args[1]),
				confidence, ratio, bidirectional, model.ScopeHousehold, a.household)
			if err := a.store.CreateEdge(ctx, &edge); err != nil {
				return edgeUserError(err)
			}
			a.invalidateEdge(ctx, &edge)

			slog.Info("Added substitution rule", "edge_id", edge.ID, "subject", edge.Subject, "equivalent", edge.Equivalent)
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added rule %d: %s → %s", edge.ID, edge.Subject, edge.Equivalent)))
			return nil
		},
	}

	cmd.Flags().Float64("confidence", 0.8, "How good a substitute it is, in (0, 1]")
	cmd.Flags().String("ratio", "1:1", "Substitution ratio, ingredient:substitute")
	cmd.Flags().Bool("bidirectional", false, "The rule also works in reverse")

	return cmd
}

func equivalentsEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a household substitution rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEdgeID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			edge, err := a.store.GetEdge(ctx, id)
			if err != nil {
				return edgeUserError(err)
			}

			flags := cmd.Flags()
			if flags.Changed("confidence") {
				edge.Confidence, _ = flags.GetFloat64("confidence")
			}
			if flags.Changed("ratio") {
				raw, _ := flags.GetString("ratio")
				if _, err := model.ParseRatio(raw); err != nil {
					return common.NewUserError(fmt.Sprintf("invalid ratio %q", raw), err)
				}
				edge.SetRawRatio(raw)
			}
			if flags.Changed("bidirectional") {
				edge.Bidirectional, _ = flags.GetBool("bidirectional")
			}

			if err := a.store.UpdateHouseholdEdge(ctx, a.household, edge); err != nil {
				return edgeUserError(err)
			}
			a.invalidateEdge(ctx, edge)

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Updated rule %d", edge.ID)))
			return nil
		},
	}

	cmd.Flags().Float64("confidence", 0, "New confidence, in (0, 1]")
	cmd.Flags().String("ratio", "", "New ratio, ingredient:substitute")
	cmd.Flags().Bool("bidirectional", false, "Whether the rule also works in reverse")

	return cmd
}

func equivalentsDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a household substitution rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEdgeID(args[0])
			if err != nil {
				return err
			}
			yes, _ := cmd.Flags().GetBool("yes")

			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			edge, err := a.store.GetEdge(ctx, id)
			if err != nil {
				return edgeUserError(err)
			}

			if !yes {
				ok, err := cli.Confirm(ctx, cmd.InOrStdin(), cmd.OutOrStdout(),
					fmt.Sprintf("Delete rule %d (%s → %s)?", edge.ID, edge.Subject, edge.Equivalent))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Nothing deleted"))
					return nil
				}
			}

			if err := a.store.DeleteHouseholdEdge(ctx, a.household, id); err != nil {
				return edgeUserError(err)
			}
			a.invalidateEdge(ctx, edge)

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted rule %d", id)))
			return nil
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	return cmd
}

func equivalentsRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <ingredient> <substitute>",
		Short: "Drop the household override so the system rule applies again",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			subject, equivalent := normalize.Normalize(args[0]), normalize.Normalize(args[1])
			removed, err := a.store.RestoreToDefault(ctx, a.household, subject, equivalent)
			if err != nil {
				return edgeUserError(err)
			}
			a.invalidateEdge(ctx, &model.EquivalencyEdge{
				Scope:       model.ScopeHousehold,
				HouseholdID: a.household,
				Subject:     subject,
				Equivalent:  equivalent,
			})

			if removed == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No household rule to remove"))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Restored default for %s → %s", subject, equivalent)))
			return nil
		},
	}
}

func equivalentsActiveCmd(use string, active bool) *cobra.Command {
	short := "Disable a substitution rule without deleting it"
	if active {
		short = "Enable a disabled substitution rule"
	}

	cmd := &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEdgeID(args[0])
			if err != nil {
				return err
			}
			system, _ := cmd.Flags().GetBool("system")

			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			owner := a.household
			if system {
				owner = ""
			}
			if err := a.store.SetEdgeActive(ctx, owner, id, active); err != nil {
				return edgeUserError(err)
			}

			edge, err := a.store.GetEdge(ctx, id)
			if err != nil {
				return err
			}
			a.invalidateEdge(ctx, edge)

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Rule %d %sd", id, use)))
			return nil
		},
	}

	cmd.Flags().Bool("system", false, "Target a system rule")

	return cmd
}

func equivalentsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file.yaml]",
		Short: "Load system substitution rules",
		Long: `Load system substitution rules from a YAML file, or the built-in defaults
when no file is given. Existing rules for the same pair are updated.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				edges  []model.EquivalencyEdge
				source = "built-in defaults"
				err    error
			)
			if len(args) == 1 {
				source = args[0]
				edges, err = readEdgesFile(args[0])
			} else {
				edges, err = taxonomy.DefaultSystemEdges()
			}
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.store.ImportSystemEdges(ctx, edges)
			if err != nil {
				return err
			}
			if err := a.resolver.InvalidateAll(ctx); err != nil {
				slog.Warn("Failed to clear equivalency cache", "error", err)
			}

			slog.Info("Imported system substitution rules", "source", source, "count", n)
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Imported %d rules from %s", n, source)))
			return nil
		},
	}
}

func readEdgesFile(path string) ([]model.EquivalencyEdge, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	edges, err := taxonomy.DecodeSystemEdges(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules from %s: %w", path, err)
	}
	return edges, nil
}

// edgeUserError turns storage rule violations into messages a person can act on.
func edgeUserError(err error) error {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return common.NewUserError("no such rule", err)
	case errors.Is(err, storage.ErrSystemEdgeReadOnly):
		return common.NewUserError("system rules cannot be changed by a household; add your own rule or use --system", err)
	case errors.Is(err, storage.ErrNotOwner):
		return common.NewUserError("that rule belongs to another household", err)
	case errors.Is(err, common.ErrDuplicateEntry):
		return common.NewUserError("a rule for that pair already exists; edit it instead", err)
	case errors.Is(err, storage.ErrInvalidEdge):
		return common.NewUserError("invalid rule", err)
	default:
		return err
	}
}
