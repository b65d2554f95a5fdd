package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"casebase/internal/domain"

	"github.com/spf13/cobra"
)

var (
	diagnoseSymptoms []string
	diagnoseJSON     bool
	diagnoseStrict   bool
	diagnoseNoRecord bool
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose [symptom...]",
	Short: "Diagnose a set of symptoms",
	Long: `Encode the reported symptoms, find the nearest case under every configured
metric and vote on the outcome. The inference is recorded as pending knowledge
unless --no-record is given.

Examples:
  casebase diagnose -s fever -s cough
  casebase diagnose fever rash --json
  casebase diagnose -s fever --no-record`,
	RunE: runDiagnose,
}

func init() {
	rootCmd.AddCommand(diagnoseCmd)
	diagnoseCmd.Flags().StringSliceVarP(&diagnoseSymptoms, "symptom", "s", nil, "reported symptom (repeatable)")
	diagnoseCmd.Flags().BoolVar(&diagnoseJSON, "json", false, "output as JSON")
	diagnoseCmd.Flags().BoolVar(&diagnoseStrict, "strict", false, "reject unknown symptoms (overrides encoding.strict)")
	diagnoseCmd.Flags().BoolVar(&diagnoseNoRecord, "no-record", false, "do not record the inference as pending")
}

type diagnoseOutput struct {
	Symptoms []string              `json:"symptoms"`
	Dropped  []string              `json:"dropped,omitempty"`
	Decision domain.Decision       `json:"decision"`
	Pending  *domain.PendingHandle `json:"pending,omitempty"`
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if diagnoseStrict {
		cfg.Encoding.Strict = true
	}

	reported := append(append([]string(nil), diagnoseSymptoms...), args...)
	if len(reported) == 0 {
		return fmt.Errorf("no symptoms given; use -s or positional arguments")
	}

	a, err := openApp(cfg, GetLogger())
	if err != nil {
		return err
	}
	defer a.Close()

	var selected, dropped []string
	for _, s := range reported {
		next, err := a.engine.AddSymptom(selected, s)
		if err != nil {
			if cfg.Encoding.Strict {
				return err
			}
			dropped = append(dropped, s)
			continue
		}
		selected = next
	}

	result := diagnoseOutput{Symptoms: selected, Dropped: dropped}
	if diagnoseNoRecord {
		result.Decision, err = a.engine.Diagnose(selected)
	} else {
		var handle domain.PendingHandle
		result.Decision, handle, err = a.engine.RunInference(selected)
		if handle != "" {
			result.Pending = &handle
		}
	}
	if err != nil {
		return fmt.Errorf("inference failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if diagnoseJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(out, string(output))
		return nil
	}

	printDecision(out, result)
	if result.Pending != nil {
		fmt.Fprintf(out, "\nRecorded as pending #%d. Run 'casebase promote %d' once validated.\n",
			len(a.engine.ListPending()), len(a.engine.ListPending()))
	}
	return nil
}

func printDecision(out io.Writer, r diagnoseOutput) {
	d := r.Decision
	if len(r.Dropped) > 0 {
		fmt.Fprintf(out, "Ignored unknown symptoms: %v\n\n", r.Dropped)
	}
	fmt.Fprintf(out, "Diagnosis: %s (%s vote, %.2f%%)\n\n", d.Label, d.Mode, d.Breakdown.Share(d.Label))

	fmt.Fprintf(out, "  %-16s %-20s %10s %10s\n", "METRIC", "LABEL", "DISTANCE", "CLOSENESS")
	for _, m := range d.Results {
		fmt.Fprintf(out, "  %-16s %-20s %10.4f %10.2f\n", m.Metric, m.Label, m.Distance, m.Closeness)
	}

	fmt.Fprintf(out, "\nVote breakdown:\n")
	for _, v := range d.Breakdown {
		fmt.Fprintf(out, "  %-20s %6.2f%% (%d)\n", v.Label, v.Share, v.Count)
	}

	for _, w := range d.Warnings {
		fmt.Fprintf(out, "\nWarning: %s\n", w)
	}
}
