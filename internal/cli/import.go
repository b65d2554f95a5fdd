package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"casebase/internal/adapter/fs"
	"casebase/internal/usecase"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import [path]",
	Short: "Import seed case files into the trusted library",
	Long: `Discover seed case files below the given directory using the include and
exclude patterns in library.imports, and append their cases to the trusted
store. Files whose header differs from the trusted vocabulary are skipped.

Examples:
  casebase import seeds/
  casebase import .`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	path := GetRootDir()
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	cfg := GetConfig()
	a, err := openApp(cfg, GetLogger())
	if err != nil {
		return err
	}
	defer a.Close()

	walker := fs.NewWalker(cfg.Library.Imports.Includes, cfg.Library.Imports.Excludes)
	importUC := usecase.NewImportUseCase(a.engine, walker, a.logger, cfg.Library.Trusted, cfg.Library.Pending)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scanning %s...\n", path)

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Importing[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(cmd.ErrOrStderr())
				}),
			)
		}
		bar.Set(done)
	}

	result, err := importUC.Import(path, progress)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Fprintf(out, "\nImport complete:\n")
	fmt.Fprintf(out, "  Files imported: %d\n", result.FilesImported)
	fmt.Fprintf(out, "  Files skipped:  %d\n", result.FilesSkipped)
	fmt.Fprintf(out, "  Cases added:    %d\n", result.CasesAdded)

	if len(result.Errors) > 0 {
		fmt.Fprintf(out, "\nWarnings:\n")
		for _, e := range result.Errors {
			fmt.Fprintf(out, "  - %s\n", e)
		}
	}

	fmt.Fprintf(out, "\nTrusted store: %s\n", a.trusted.Path())
	return nil
}
