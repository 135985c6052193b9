package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fdg312/nutrition-ledger/internal/calendar"
	"github.com/fdg312/nutrition-ledger/internal/datekey"
	"github.com/fdg312/nutrition-ledger/internal/ledger"
	"github.com/fdg312/nutrition-ledger/internal/nutrition"
	"github.com/fdg312/nutrition-ledger/internal/portion"
	"github.com/fdg312/nutrition-ledger/internal/reports"
)

func addCmd(a *app) *cobra.Command {
	var (
		date       string
		product    ledger.ProductSnapshot
		fullData   string
		multiplier float64
		spec       portion.Spec
		addons     map[string]int
	)

	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Record a consumed product",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := a.dateArg(date)
			if err != nil {
				return err
			}

			product.Name = strings.Join(args, " ")
			if fullData != "" {
				raw, err := os.ReadFile(fullData)
				if err != nil {
					return fmt.Errorf("read full data: %w", err)
				}
				product.FullData = ledger.RawText(raw)
			}

			req := ledger.AppendRequest{Product: product, Multiplier: multiplier}
			if portionFlagsChanged(cmd) {
				if spec.Addons, err = parseAddons(addons); err != nil {
					return err
				}
				req.Portion = &spec
			}

			updated, entry, err := a.ledger.Append(cmd.Context(), day, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Added entry: %s\n", entry.ID)
			fmt.Fprintf(out, "%s  x%g  %g kcal  P %g  F %g  C %g\n",
				truncate(entry.Name, 40), entry.ServingMultiplier, entry.Calories, entry.Protein, entry.Fat, entry.Carbs)
			fmt.Fprintf(out, "Day %s total: %g kcal (%d entries)\n", updated.Date, updated.Totals.Calories, len(updated.Entries))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&date, "date", "d", "", "day (DD.MM.YYYY, YYYY-MM-DD, today, yesterday)")
	f.StringVar(&product.ID, "id", "", "product id")
	f.Float64Var(&product.Calories, "kcal", 0, "kcal per reference weight")
	f.Float64Var(&product.Protein, "protein", 0, "protein g per reference weight")
	f.Float64Var(&product.Fat, "fat", 0, "fat g per reference weight")
	f.Float64Var(&product.Carbs, "carbs", 0, "carbs g per reference weight")
	f.Float64Var(&product.Sugar, "sugar", 0, "sugar g per reference weight")
	f.Float64Var(&product.Fiber, "fiber", 0, "fiber g per reference weight")
	f.Float64Var(&product.SaturatedFat, "sat-fat", 0, "saturated fat g per reference weight")
	f.StringVar(&product.Image, "image", "", "image reference")
	f.StringVar(&fullData, "full-data", "", "path to the full product snapshot JSON")
	f.Float64VarP(&multiplier, "multiplier", "m", 1, "serving multiplier (ignored when portion flags are set)")
	f.StringVar((*string)(&spec.Size), "size", "", "portion size: small|regular|large")
	f.IntVarP(&spec.Quantity, "quantity", "q", 0, "number of items")
	f.StringVar((*string)(&spec.Eaten), "eaten", "", "fraction eaten: all|three_quarters|half|third|quarter|tenth|sip")
	f.StringVar((*string)(&spec.Preparation), "prep", "", "preparation method")
	f.StringToIntVar(&addons, "addon", nil, "add-on counts, e.g. sauce=1,oil=2")
	return cmd
}

func portionFlagsChanged(cmd *cobra.Command) bool {
	for _, name := range []string{"size", "quantity", "eaten", "prep", "addon"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func parseAddons(m map[string]int) (portion.Addons, error) {
	var a portion.Addons
	for name, n := range m {
		if n < 0 {
			return a, fmt.Errorf("add-on %s: count must not be negative", name)
		}
		switch strings.ToLower(name) {
		case "sauce":
			a.Sauce = n
		case "sugar":
			a.Sugar = n
		case "oil":
			a.Oil = n
		case "cream":
			a.Cream = n
		case "cheese":
			a.Cheese = n
		case "nuts":
			a.Nuts = n
		default:
			return a, fmt.Errorf("unknown add-on %q", name)
		}
	}
	return a, nil
}

func removeCmd(a *app) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "remove [id]",
		Short: "Remove an entry (a unique id prefix is enough)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := a.dateArg(date)
			if err != nil {
				return err
			}

			updated, removed, err := a.ledger.Remove(cmd.Context(), day, args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("no single entry on %s matches %q", day, args[0])
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed. Day %s total: %g kcal (%d entries)\n",
				updated.Date, updated.Totals.Calories, len(updated.Entries))
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "day of the entry")
	return cmd
}

func showCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [date]",
		Short: "Show one day with its entries",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := ""
			if len(args) == 1 {
				raw = args[0]
			}
			day, err := a.dateArg(raw)
			if err != nil {
				return err
			}

			d, err := a.ledger.GetOrCreate(cmd.Context(), day)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", d.Date)
			if len(d.Entries) == 0 {
				fmt.Fprintln(out, "No entries. Use 'ledgerctl add' to record one.")
				return nil
			}
			for _, e := range d.Ordered() {
				at := "--:--"
				if e.CreatedAt > 0 {
					at = time.UnixMilli(e.CreatedAt).In(a.location()).Format("15:04")
				}
				fmt.Fprintf(out, "%s  %s  %-40s %7g kcal\n", e.ID, at, truncate(e.Name, 40), e.Calories)
			}
			t := d.Totals
			fmt.Fprintf(out, "Total: %g kcal  P %g  F %g  C %g  (sugar %g, fiber %g, sat. fat %g)\n",
				t.Calories, t.Protein, t.Fat, t.Carbs, t.Sugar, t.Fiber, t.SaturatedFat)
			return nil
		},
	}
}

func listCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded days, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			days := a.ledger.ListAll(cmd.Context())

			out := cmd.OutOrStdout()
			if len(days) == 0 {
				fmt.Fprintln(out, "No days recorded yet.")
				return nil
			}
			if limit > 0 && len(days) > limit {
				days = days[:limit]
			}
			for _, d := range days {
				fmt.Fprintf(out, "%s  %3d entries  %7g kcal\n", d.Date, len(d.Entries), d.Totals.Calories)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 30, "number of days to show (0 = all)")
	return cmd
}

func calendarCmd(a *app) *cobra.Command {
	var (
		center  string
		back    int
		forward int
		goal    float64
	)

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Per-day calorie status around a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.dateArg(center)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("goal") {
				if goal, err = a.nutrition.CalorieGoal(cmd.Context()); err != nil {
					return err
				}
			}

			window, err := datekey.Window(c, back, forward)
			if err != nil {
				return fmt.Errorf("calendar window: %w", err)
			}
			stats, err := calendar.NewProjector(a.ledger, a.location()).Project(cmd.Context(), window, goal, a.now())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Goal: %g kcal\n", goal)
			for _, s := range stats {
				marker := " "
				if s.IsToday {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s  %-6s  %7g kcal  remaining %g\n", marker, s.Date, s.Status, s.Consumed, s.Remaining)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&center, "center", "", "center day (default today)")
	f.IntVar(&back, "back", a.cfg.Ledger.CalendarDaysBack, "days before center")
	f.IntVar(&forward, "forward", a.cfg.Ledger.CalendarDaysForward, "days after center")
	f.Float64Var(&goal, "goal", 0, "calorie goal (default: stored targets)")
	return cmd
}

func exportCmd(a *app) *cobra.Command {
	var (
		from   string
		to     string
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a date range as CSV or PDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			fromKey, err := a.dateArg(from)
			if err != nil {
				return err
			}
			toKey, err := a.dateArg(to)
			if err != nil {
				return err
			}

			svc := reports.NewService(a.ledger, a.nutrition, nil, reports.Config{
				MaxRangeDays: a.cfg.Ledger.ExportMaxRangeDays,
				Location:     a.location(),
			}).WithClock(a.now)
			export, err := svc.Export(cmd.Context(), reports.ExportRequest{From: string(fromKey), To: string(toKey), Format: format})
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(export.Data)
				return err
			}
			if err := os.WriteFile(output, export.Data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%d bytes)\n", output, len(export.Data))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&from, "from", "", "first day (required)")
	f.StringVar(&to, "to", "today", "last day")
	f.StringVarP(&format, "format", "f", reports.FormatCSV, "csv or pdf")
	f.StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.MarkFlagRequired("from")
	return cmd
}

func goalCmd(a *app) *cobra.Command {
	var req nutrition.UpsertTargetsRequest

	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Show or set daily nutrition targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !cmd.Flags().Changed("kcal") {
				targets, isDefault, err := a.nutrition.GetOrDefault(cmd.Context())
				if err != nil {
					return err
				}
				suffix := ""
				if isDefault {
					suffix = " (default)"
				}
				fmt.Fprintf(out, "%d kcal  P %d g  F %d g  C %d g%s\n",
					targets.CaloriesKcal, targets.ProteinG, targets.FatG, targets.CarbsG, suffix)
				return nil
			}

			current, _, err := a.nutrition.GetOrDefault(cmd.Context())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("protein") {
				req.ProteinG = current.ProteinG
			}
			if !cmd.Flags().Changed("fat") {
				req.FatG = current.FatG
			}
			if !cmd.Flags().Changed("carbs") {
				req.CarbsG = current.CarbsG
			}

			targets, err := a.nutrition.Upsert(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Saved: %d kcal  P %d g  F %d g  C %d g\n",
				targets.CaloriesKcal, targets.ProteinG, targets.FatG, targets.CarbsG)
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&req.CaloriesKcal, "kcal", 0, "daily calorie target")
	f.IntVar(&req.ProteinG, "protein", 0, "daily protein target, g")
	f.IntVar(&req.FatG, "fat", 0, "daily fat target, g")
	f.IntVar(&req.CarbsG, "carbs", 0, "daily carbs target, g")
	return cmd
}
