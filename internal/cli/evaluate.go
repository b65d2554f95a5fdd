package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"casebase/internal/adapter/retriever"
	"casebase/internal/usecase"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var evaluateJSON bool

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Measure leave-one-out accuracy of each metric and the ensemble",
	Long: `Hold out every trusted case in turn, diagnose it against the remaining cases
and compare the prediction with its recorded label. Pending inferences are not
used.`,
	Args: cobra.NoArgs,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().BoolVar(&evaluateJSON, "json", false, "output as JSON")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	a, err := openApp(cfg, GetLogger())
	if err != nil {
		return err
	}
	defer a.Close()

	// Every round sees a different base, so singular covariance warnings
	// are counted in the result instead of logged per round.
	quiet := a.logger.WithOptions(zap.IncreaseLevel(zapcore.ErrorLevel))
	evaluateUC := usecase.NewEvaluateUseCase(
		retriever.NewNearestRetriever(a.registry, cfg.Encoding.Signed, quiet),
		a.aggregator,
	)

	lib := a.session.Trusted()
	bar := progressbar.NewOptions(lib.Len(),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Evaluating[reset]"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(cmd.ErrOrStderr())
		}),
	)

	start := time.Now()
	result, err := evaluateUC.Evaluate(lib, func(done, total int) {
		bar.Set(done)
	})
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if evaluateJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(out, string(output))
		return nil
	}

	fmt.Fprintf(out, "\nLeave-one-out over %d cases (%s):\n\n", lib.Len(), formatDuration(time.Since(start)))
	fmt.Fprintf(out, "  %-16s %8s %10s\n", "METRIC", "CORRECT", "ACCURACY")
	for _, s := range result.Metrics {
		fmt.Fprintf(out, "  %-16s %4d/%-4d %9.2f%%\n", s.Name, s.Correct, s.Total, s.Percent)
	}
	e := result.Ensemble
	fmt.Fprintf(out, "  %-16s %4d/%-4d %9.2f%%\n", "ensemble:"+e.Name, e.Correct, e.Total, e.Percent)

	if result.Warnings > 0 {
		fmt.Fprintf(out, "\n%d rounds used a pseudo-inverse for a singular covariance.\n", result.Warnings)
	}
	return nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%ds", m, s)
}
