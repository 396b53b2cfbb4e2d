package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Ev19Coding/parktrack/internal/sqlite"
	"github.com/Ev19Coding/parktrack/pkg/types"
)

func newMigrateCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage schema migrations",
	}
	cmd.AddCommand(
		newMigrateUpCmd(flags),
		newMigrateStatusCmd(flags),
		newMigrateValidateCmd(flags),
		newMigrateCheckCmd(flags),
		newMigrateResetCmd(flags),
		newMigrateCreateCmd(flags),
	)
	return cmd
}

// withMigrator runs fn with a migrator over the configured database.
func withMigrator(cmd *cobra.Command, flags *rootFlags, fn func(*app, *sqlite.Migrator) error) error {
	a, err := loadApp(cmd, flags)
	if err != nil {
		return err
	}
	defer a.close()

	m, err := a.migrator(cmd.Context())
	if err != nil {
		return err
	}
	return fn(a, m)
}

func newMigrateUpCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, flags, func(a *app, m *sqlite.Migrator) error {
				applied, err := m.Up(cmd.Context())
				if err != nil {
					return err
				}
				return printApplied(a, applied)
			})
		},
	}
}

func printApplied(a *app, applied []types.Migration) error {
	if a.jsonMode {
		names := make([]string, 0, len(applied))
		for _, mig := range applied {
			names = append(names, mig.Filename())
		}
		return a.printJSON(map[string]any{"applied": names})
	}
	if len(applied) == 0 {
		fmt.Fprintln(a.out, "database is up to date")
		return nil
	}
	for _, mig := range applied {
		fmt.Fprintf(a.out, "applied %s\n", mig.Filename())
	}
	return nil
}

// statusRow is the JSON form of one migration status line.
type statusRow struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	State     string     `json:"state"`
	AppliedAt *time.Time `json:"applied_at,omitempty"`
}

func statusState(st sqlite.MigrationStatus) string {
	switch {
	case st.Orphaned:
		return "orphaned"
	case st.Modified:
		return "modified"
	case st.Applied:
		return "applied"
	default:
		return "pending"
	}
}

func newMigrateStatusCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List migrations and whether each is applied",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, flags, func(a *app, m *sqlite.Migrator) error {
				statuses, err := m.Status(cmd.Context())
				if err != nil {
					return err
				}
				if a.jsonMode {
					rows := make([]statusRow, 0, len(statuses))
					for _, st := range statuses {
						row := statusRow{ID: st.ID, Name: st.Name, State: statusState(st)}
						if st.Applied {
							at := st.AppliedAt
							row.AppliedAt = &at
						}
						rows = append(rows, row)
					}
					return a.printJSON(rows)
				}

				w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tSTATE\tAPPLIED")
				for _, st := range statuses {
					when := "-"
					if st.Applied {
						when = humanize.Time(st.AppliedAt)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", st.ID, st.Name, statusState(st), when)
				}
				return w.Flush()
			})
		},
	}
}

func printIssues(a *app, report sqlite.ValidationReport) {
	for _, issue := range report.Issues {
		fmt.Fprintf(a.out, "  %s\n", issue)
	}
}

func newMigrateValidateCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Verify applied migrations still match their files",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, flags, func(a *app, m *sqlite.Migrator) error {
				report, err := m.Validate(cmd.Context())
				if err != nil {
					return err
				}
				if a.jsonMode {
					if err := a.printJSON(issueRows(report)); err != nil {
						return err
					}
					return report.Err()
				}
				if report.Valid() {
					fmt.Fprintf(a.out, "%d applied migration(s) verified\n", report.Checked)
					return nil
				}
				fmt.Fprintf(a.out, "%d issue(s) found:\n", len(report.Issues))
				printIssues(a, report)
				return report.Err()
			})
		},
	}
}

// issueRow is the JSON form of a validation issue.
type issueRow struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Problem  string `json:"problem"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
}

func issueRows(report sqlite.ValidationReport) []issueRow {
	rows := make([]issueRow, 0, len(report.Issues))
	for _, issue := range report.Issues {
		rows = append(rows, issueRow{
			ID:       issue.ID,
			Name:     issue.Name,
			Problem:  issue.Err.Error(),
			Expected: issue.Expected,
			Actual:   issue.Actual,
		})
	}
	return rows
}

func newMigrateCheckCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate applied migrations and report pending ones",
		Long: "Check exits non-zero when an applied migration drifted from its\n" +
			"file or when migrations are pending. It never changes the schema.",
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, flags, func(a *app, m *sqlite.Migrator) error {
				res, err := m.Check(cmd.Context())
				if err != nil {
					return err
				}
				if a.jsonMode {
					pending := make([]string, 0, len(res.Pending))
					for _, mig := range res.Pending {
						pending = append(pending, mig.Filename())
					}
					if err := a.printJSON(map[string]any{
						"ok":      res.OK(),
						"issues":  issueRows(res.Report),
						"pending": pending,
					}); err != nil {
						return err
					}
				} else {
					printIssues(a, res.Report)
					for _, mig := range res.Pending {
						fmt.Fprintf(a.out, "  pending %s\n", mig.Filename())
					}
					if res.OK() {
						fmt.Fprintln(a.out, "database is valid and up to date")
					}
				}
				if err := res.Report.Err(); err != nil {
					return err
				}
				if len(res.Pending) > 0 {
					return fmt.Errorf("%w: %d", types.ErrPendingMigrations, len(res.Pending))
				}
				return nil
			})
		},
	}
}

func newMigrateResetCmd(flags *rootFlags) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop all managed tables and reapply every migration",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, flags, func(a *app, m *sqlite.Migrator) error {
				applied, err := m.Reset(cmd.Context(), force)
				if err != nil {
					return err
				}
				return printApplied(a, applied)
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "confirm that all data will be destroyed")
	return cmd
}

func newMigrateCreateCmd(flags *rootFlags) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty migration file with the next id",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.close()

			if dir == "" {
				dir = a.cfg.MigrationsDir
			}
			if dir == "" {
				return usageError{errors.New("no migrations directory: set --dir or migrations_dir")}
			}
			path, err := sqlite.CreateMigration(dir, args[0])
			if err != nil {
				return err
			}
			if a.jsonMode {
				return a.printJSON(map[string]string{"path": path})
			}
			fmt.Fprintf(a.out, "created %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "migrations directory (default: migrations_dir from config)")
	return cmd
}
