package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felipi-hub/boxship-sistema/internal/settings"
	"github.com/felipi-hub/boxship-sistema/internal/transfer"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a full snapshot of the store and settings",
		Long: `Export every collection plus settings as one versioned JSON snapshot.

Writes to stdout unless --out is given. The snapshot can be fed back
through the import command, including into a different storage driver.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, outPath)
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "destination file (default stdout)")
	return cmd
}

func runExport(cmd *cobra.Command, outPath string) error {
	state, _, err := openStore()
	if err != nil {
		return err
	}
	cfg, err := settings.Open().Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	w := cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	if err := transfer.Export(w, state, &cfg); err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	if outPath != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "snapshot written to %s\n", outPath)
	}
	return nil
}
