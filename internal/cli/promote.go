package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var promoteAll bool

var promoteCmd = &cobra.Command{
	Use:   "promote [index...]",
	Short: "Promote validated pending inferences into the trusted library",
	Long: `Append the selected pending inferences to the trusted store. Indices are the
1-based positions shown by 'casebase pending'. Unselected inferences stay
pending unless promote.retain_unselected is false.

Examples:
  casebase promote 1 3
  casebase promote --all`,
	RunE: runPromote,
}

func init() {
	rootCmd.AddCommand(promoteCmd)
	promoteCmd.Flags().BoolVar(&promoteAll, "all", false, "promote every pending inference")
}

func runPromote(cmd *cobra.Command, args []string) error {
	if promoteAll && len(args) > 0 {
		return fmt.Errorf("--all cannot be combined with indices")
	}
	indices, err := parseIndices(args)
	if err != nil {
		return err
	}

	a, err := openApp(GetConfig(), GetLogger())
	if err != nil {
		return err
	}
	defer a.Close()

	var n int
	if promoteAll {
		n, err = a.engine.PromoteAll()
	} else {
		n, err = a.engine.Promote(indices)
	}
	if err != nil {
		return fmt.Errorf("promotion failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if n == 0 {
		fmt.Fprintln(out, "Nothing selected; trusted store unchanged.")
		return nil
	}
	stats := a.engine.Stats()
	fmt.Fprintf(out, "Promoted %d inferences into %s\n", n, a.trusted.Path())
	fmt.Fprintf(out, "  Trusted cases: %d\n", stats.TrustedCases)
	fmt.Fprintf(out, "  Still pending: %d\n", stats.PendingCases)
	return nil
}
