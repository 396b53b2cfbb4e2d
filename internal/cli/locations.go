package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Ev19Coding/parktrack/internal/locations"
	"github.com/Ev19Coding/parktrack/pkg/types"
)

func newLocationsCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "locations",
		Aliases: []string{"loc"},
		Short:   "Query stored locations",
	}
	cmd.AddCommand(
		newSearchCmd(flags),
		newGetCmd(flags),
		newNearCmd(flags),
		newRandomCmd(flags),
		newOwnedCmd(flags),
	)
	return cmd
}

// withEngine runs fn with a location engine over a migrated database.
func withEngine(cmd *cobra.Command, flags *rootFlags, fn func(*app, *locations.Engine) error) error {
	a, err := loadApp(cmd, flags)
	if err != nil {
		return err
	}
	defer a.close()

	e, err := a.engine(cmd.Context())
	if err != nil {
		return err
	}
	return fn(a, e)
}

func printListings(a *app, rows []types.BareMinimumLocation) error {
	if a.jsonMode {
		return a.printJSON(rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(a.out, "no locations found")
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\n", r.ID, r.Title)
	}
	return w.Flush()
}

func newSearchCmd(flags *rootFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Fuzzy search locations by title, description, category and address",
		Args:  minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, flags, func(a *app, e *locations.Engine) error {
				if limit == 0 {
					limit = a.cfg.Search.MaxResults
				}
				rows, err := e.Search(cmd.Context(), strings.Join(args, " "), limit)
				if err != nil {
					return err
				}
				return printListings(a, rows)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum results (default: search.max_results)")
	return cmd
}

func newGetCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id> [id...]",
		Short: "Show full location records",
		Args:  minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, flags, func(a *app, e *locations.Engine) error {
				res := e.GetMany(cmd.Context(), args)
				for _, f := range res.Failed {
					a.logger.Error("get location", "id", f.ID, "err", f.Err)
				}

				if a.jsonMode {
					if err := a.printJSON(res.Found); err != nil {
						return err
					}
				} else {
					for _, loc := range res.Found {
						printLocation(a, loc)
					}
				}

				if len(res.Failed) > 0 {
					return fmt.Errorf("get %s: %w", res.Failed[0].ID, res.Failed[0].Err)
				}
				if len(res.Missing) > 0 {
					return fmt.Errorf("location %s: %w", strings.Join(res.Missing, ", "), types.ErrNotFound)
				}
				return nil
			})
		},
	}
}

func printLocation(a *app, loc *types.Location) {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "id:\t%s\n", loc.ID)
	fmt.Fprintf(w, "title:\t%s\n", loc.Title)
	fmt.Fprintf(w, "category:\t%s\n", loc.Category)
	fmt.Fprintf(w, "address:\t%s\n", loc.Address)
	fmt.Fprintf(w, "coordinates:\t%.6f, %.6f\n", loc.Latitude, loc.Longitude)
	owner := loc.Owner.ID
	if loc.Owner.Name != "" {
		owner = loc.Owner.Name + " (" + loc.Owner.ID + ")"
	}
	fmt.Fprintf(w, "owner:\t%s\n", owner)
	if loc.Rating != nil {
		fmt.Fprintf(w, "rating:\t%.1f (%d reviews)\n", *loc.Rating, loc.ReviewCount)
	}
	if len(loc.Tags) > 0 {
		fmt.Fprintf(w, "tags:\t%s\n", strings.Join(loc.Tags, ", "))
	}
	_ = w.Flush()
	fmt.Fprintln(a.out)
}

func newNearCmd(flags *rootFlags) *cobra.Command {
	var (
		lat, lng, rangeKm float64
		limit             int
	)
	cmd := &cobra.Command{
		Use:   "near",
		Short: "List locations within a distance of a point, nearest first",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lng") {
				return usageError{errors.New("--lat and --lng are required")}
			}
			return withEngine(cmd, flags, func(a *app, e *locations.Engine) error {
				if rangeKm == 0 {
					rangeKm = a.cfg.Near.RangeKm
				}
				if limit == 0 {
					limit = a.cfg.Near.MaxResults
				}
				rows, err := e.Near(cmd.Context(), lat, lng, rangeKm, limit)
				if err != nil {
					return err
				}
				if a.jsonMode {
					return a.printJSON(rows)
				}
				if len(rows) == 0 {
					fmt.Fprintln(a.out, "no locations found")
					return nil
				}
				w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tTITLE\tDISTANCE")
				for _, r := range rows {
					fmt.Fprintf(w, "%s\t%s\t%.2f km\n", r.ID, r.Title, r.DistanceKm)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude in degrees")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude in degrees")
	cmd.Flags().Float64VarP(&rangeKm, "range", "r", 0, "radius in km (default: near.range_km)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum results (default: near.max_results)")
	return cmd
}

func newRandomCmd(flags *rootFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "random <category>",
		Short: "List random locations whose category contains the given text",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, flags, func(a *app, e *locations.Engine) error {
				rows, err := e.RandomByCategory(cmd.Context(), args[0], limit)
				if err != nil {
					return err
				}
				return printListings(a, rows)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "maximum results")
	return cmd
}

func newOwnedCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "owned <user-id>",
		Short: "List locations owned by a user",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, flags, func(a *app, e *locations.Engine) error {
				rows, err := e.ByOwner(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printListings(a, rows)
			})
		},
	}
}
