package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var discardCmd = &cobra.Command{
	Use:   "discard [index...]",
	Short: "Discard pending inferences without promoting them",
	Long: `Drop the selected pending inferences, or all of them when no index is given.
The trusted store is never modified.`,
	RunE: runDiscard,
}

func init() {
	rootCmd.AddCommand(discardCmd)
}

func runDiscard(cmd *cobra.Command, args []string) error {
	indices, err := parseIndices(args)
	if err != nil {
		return err
	}

	a, err := openApp(GetConfig(), GetLogger())
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.engine.Discard(indices)
	if err != nil {
		return fmt.Errorf("discard failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Discarded %d pending inferences.\n", n)
	return nil
}
