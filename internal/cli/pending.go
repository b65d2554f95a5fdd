package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var pendingJSON bool

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List pending inferences awaiting validation",
	Args:  cobra.NoArgs,
	RunE:  runPending,
}

func init() {
	rootCmd.AddCommand(pendingCmd)
	pendingCmd.Flags().BoolVar(&pendingJSON, "json", false, "output as JSON")
}

func runPending(cmd *cobra.Command, args []string) error {
	a, err := openApp(GetConfig(), GetLogger())
	if err != nil {
		return err
	}
	defer a.Close()

	records := a.engine.ListPending()
	out := cmd.OutOrStdout()

	if pendingJSON {
		output, _ := json.MarshalIndent(records, "", "  ")
		fmt.Fprintln(out, string(output))
		return nil
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "No pending inferences.")
		return nil
	}

	fmt.Fprintf(out, "%d pending inferences:\n\n", len(records))
	for i, r := range records {
		symptoms := strings.Join(r.Symptoms, ", ")
		if symptoms == "" {
			symptoms = "(none)"
		}
		fmt.Fprintf(out, "  [%d] %s -> %s", i+1, symptoms, r.Label)
		if share := r.Breakdown.Share(r.Label); share > 0 {
			fmt.Fprintf(out, " (%.2f%%)", share)
		}
		fmt.Fprintf(out, "  %s\n", r.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
