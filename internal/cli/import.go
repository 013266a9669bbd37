package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felipi-hub/boxship-sistema/internal/settings"
	"github.com/felipi-hub/boxship-sistema/internal/transfer"
)

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <snapshot-file>",
		Short: "Restore collections and settings from a snapshot",
		Long: `Import a snapshot produced by the export command.

Each collection present in the snapshot replaces the stored one; missing
collections are left untouched. On failure the report names the
collections already restored.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, cmd, args[0])
		},
	}
	return cmd
}

func runImport(opts *RootOptions, cmd *cobra.Command, path string) error {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	state, _, err := openStore()
	if err != nil {
		return err
	}
	report, err := transfer.Import(r, state, settings.Open())
	if err != nil {
		var impErr *transfer.ImportError
		if errors.As(err, &impErr) {
			fmt.Fprintf(cmd.ErrOrStderr(), "restored before failure: %s\n", formatReport(impErr.Report))
		}
		return err
	}
	return printReport(opts, cmd.OutOrStdout(), report)
}

func formatReport(r transfer.Report) string {
	parts := []string{
		fmt.Sprintf("clients=%d", r.Clients),
		fmt.Sprintf("products=%d", r.Products),
		fmt.Sprintf("boxes=%d", r.Boxes),
		fmt.Sprintf("notifications=%d", r.Notifications),
		fmt.Sprintf("settings=%t", r.SettingsRestored),
	}
	if len(r.Skipped) > 0 {
		parts = append(parts, "skipped="+strings.Join(r.Skipped, ","))
	}
	return strings.Join(parts, " ")
}

func printReport(opts *RootOptions, w io.Writer, report transfer.Report) error {
	if opts.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	_, err := fmt.Fprintln(w, formatReport(report))
	return err
}
