// Package cli wires the boxship command tree: snapshot export/import,
// blob backups and a stats summary over the persistent store.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felipi-hub/boxship-sistema/internal/core"
	"github.com/felipi-hub/boxship-sistema/internal/transfer"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the boxship CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "boxship",
		Short: "BoxShip parcel consolidation store",
		Long:  "Operate the BoxShip store: export and import snapshots, archive backups, inspect counts.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewBackupCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// openStore opens the configured backend with the default rule set and
// asserts the snapshot surface the transfer commands need.
func openStore() (transfer.StateStore, core.PersistentStore, error) {
	store, err := core.OpenPersistentStore(core.DefaultRules())
	if err != nil {
		return nil, nil, err
	}
	state, ok := store.(transfer.StateStore)
	if !ok {
		return nil, nil, fmt.Errorf("storage driver does not support snapshots")
	}
	return state, store, nil
}
