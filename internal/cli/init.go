package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ev19Coding/parktrack/internal/paths"
)

func newInitCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize parktrack storage",
		Long: "Create the configuration and data directories, write a default\n" +
			"config.yaml if none exists, and apply all pending migrations.",
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, flags)
		},
	}
}

func runInit(cmd *cobra.Command, flags *rootFlags) error {
	a, err := loadApp(cmd, flags)
	if err != nil {
		return err
	}
	defer a.close()

	m, err := a.migrator(cmd.Context())
	if err != nil {
		return err
	}
	applied, err := m.Up(cmd.Context())
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if a.jsonMode {
		return a.printJSON(map[string]any{
			"config_dir": a.configDir,
			"database":   a.backend.Path(),
			"applied":    len(applied),
		})
	}
	fmt.Fprintf(a.out, "parktrack initialized\nconfig: %s\ndatabase: %s\napplied %d migration(s)\n",
		paths.ConfigFile(a.configDir), a.backend.Path(), len(applied))
	return nil
}
