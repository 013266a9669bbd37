package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/felipi-hub/boxship-sistema/internal/core"
)

// Stats summarizes stored record counts the way the dashboard does:
// totals per collection plus per-status breakdowns.
type Stats struct {
	Clients         int            `json:"clients"`
	ActiveClients   int            `json:"activeClients"`
	Products        int            `json:"products"`
	ProductsByState map[string]int `json:"productsByState"`
	Boxes           int            `json:"boxes"`
	BoxesByState    map[string]int `json:"boxesByState"`
	Notifications   int            `json:"notifications"`
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stats",
		Short:         "Summarize stored record counts",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(rootOpts, cmd)
		},
	}
	return cmd
}

func runStats(opts *RootOptions, cmd *cobra.Command) error {
	_, store, err := openStore()
	if err != nil {
		return err
	}
	stats := collectStats(store)
	return printStats(opts, cmd.OutOrStdout(), stats)
}

func collectStats(store core.PersistentStore) Stats {
	stats := Stats{
		ProductsByState: make(map[string]int),
		BoxesByState:    make(map[string]int),
	}
	for _, c := range store.ListClients() {
		stats.Clients++
		if c.Active {
			stats.ActiveClients++
		}
	}
	for _, p := range store.ListProducts() {
		stats.Products++
		stats.ProductsByState[string(p.Status)]++
	}
	for _, b := range store.ListBoxes() {
		stats.Boxes++
		stats.BoxesByState[string(b.Status)]++
	}
	stats.Notifications = len(store.ListNotifications())
	return stats
}

func printStats(opts *RootOptions, w io.Writer, stats Stats) error {
	if opts.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}
	fmt.Fprintf(w, "clients: %d (%d active)\n", stats.Clients, stats.ActiveClients)
	fmt.Fprintf(w, "products: %d", stats.Products)
	printBreakdown(w, stats.ProductsByState, []string{
		string(core.ProductStatusPending), string(core.ProductStatusInBox), string(core.ProductStatusShipped),
	})
	fmt.Fprintf(w, "boxes: %d", stats.Boxes)
	printBreakdown(w, stats.BoxesByState, []string{
		string(core.BoxStatusAssembling), string(core.BoxStatusReady), string(core.BoxStatusShipped), string(core.BoxStatusDelivered),
	})
	_, err := fmt.Fprintf(w, "notifications: %d\n", stats.Notifications)
	return err
}

func printBreakdown(w io.Writer, byState map[string]int, order []string) {
	first := true
	for _, state := range order {
		n, ok := byState[state]
		if !ok {
			continue
		}
		if first {
			fmt.Fprint(w, " (")
		} else {
			fmt.Fprint(w, ", ")
		}
		fmt.Fprintf(w, "%s %d", state, n)
		first = false
	}
	if !first {
		fmt.Fprint(w, ")")
	}
	fmt.Fprintln(w)
}
