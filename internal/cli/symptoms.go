package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var symptomsJSON bool

var symptomsCmd = &cobra.Command{
	Use:   "symptoms",
	Short: "List the symptom vocabulary",
	Long: `List every symptom the trusted case library knows about, sorted by name.
The vocabulary is the header of the trusted store minus its last (label) column.`,
	Args: cobra.NoArgs,
	RunE: runSymptoms,
}

func init() {
	rootCmd.AddCommand(symptomsCmd)
	symptomsCmd.Flags().BoolVar(&symptomsJSON, "json", false, "output as JSON")
}

func runSymptoms(cmd *cobra.Command, args []string) error {
	a, err := openApp(GetConfig(), GetLogger())
	if err != nil {
		return err
	}
	defer a.Close()

	names := a.engine.SymptomNames()
	sort.Strings(names)

	out := cmd.OutOrStdout()
	if symptomsJSON {
		output, _ := json.MarshalIndent(names, "", "  ")
		fmt.Fprintln(out, string(output))
		return nil
	}

	fmt.Fprintf(out, "%d symptoms:\n", len(names))
	for _, n := range names {
		fmt.Fprintf(out, "  %s\n", n)
	}
	return nil
}
