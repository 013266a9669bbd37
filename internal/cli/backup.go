package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felipi-hub/boxship-sistema/internal/blob"
	"github.com/felipi-hub/boxship-sistema/internal/settings"
	"github.com/felipi-hub/boxship-sistema/internal/transfer"
)

// NewBackupCommand creates the backup command.
func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Archive a snapshot into the configured blob store",
		Long: `Export the current state and store it under a timestamped key in the
blob store selected by BOXSHIP_BLOB_DRIVER (fs, s3 or memory).`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackup(rootOpts, cmd)
		},
	}
	return cmd
}

func runBackup(opts *RootOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	state, _, err := openStore()
	if err != nil {
		return err
	}
	cfg, err := settings.Open().Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	dst, err := blob.Open(ctx)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}
	info, err := transfer.Backup(ctx, dst, state, &cfg)
	if err != nil {
		return fmt.Errorf("archive snapshot: %w", err)
	}
	if opts.Format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "archived %s (%d bytes, driver %s)\n", info.Key, info.Size, dst.Driver())
	return err
}
