package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show a summary of the case library",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := openApp(GetConfig(), GetLogger())
	if err != nil {
		return err
	}
	defer a.Close()

	stats := a.engine.Stats()
	out := cmd.OutOrStdout()

	if statsJSON {
		output, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Fprintln(out, string(output))
		return nil
	}

	fmt.Fprintf(out, "Trusted store: %s\n", a.trusted.Path())
	fmt.Fprintf(out, "  Symptoms:      %d\n", stats.Symptoms)
	fmt.Fprintf(out, "  Trusted cases: %d\n", stats.TrustedCases)
	fmt.Fprintf(out, "  Pending:       %d\n", stats.PendingCases)
	fmt.Fprintf(out, "  Metrics:       %d (%s vote)\n", a.registry.Len(), a.aggregator.Mode())

	labels := make([]string, 0, len(stats.Labels))
	for l := range stats.Labels {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	fmt.Fprintf(out, "\nCases per label:\n")
	for _, l := range labels {
		fmt.Fprintf(out, "  %-20s %d\n", l, stats.Labels[l])
	}
	return nil
}
