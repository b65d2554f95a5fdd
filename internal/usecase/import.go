package usecase

import (
	"fmt"

	"casebase/internal/adapter/fs"
	"casebase/internal/adapter/store"

	"go.uber.org/zap"
)

// ImportUseCase appends cases from seed files to the trusted store.
type ImportUseCase struct {
	engine *Engine
	walker *fs.Walker
	skip   []string
	logger *zap.Logger
}

// NewImportUseCase creates a new import use case. Files at the skip paths
// are never imported.
func NewImportUseCase(engine *Engine, walker *fs.Walker, logger *zap.Logger, skip ...string) *ImportUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportUseCase{
		engine: engine,
		walker: walker,
		skip:   skip,
		logger: logger,
	}
}

// ImportResult contains the results of an import.
type ImportResult struct {
	FilesImported int
	FilesSkipped  int
	CasesAdded    int
	Errors        []string
}

// Discover lists the seed files that Import would read.
func (u *ImportUseCase) Discover(root string) ([]fs.SeedFile, error) {
	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}
	return fs.Skip(files, u.skip...), nil
}

// Import reads every seed file under root. A file whose header does not
// match the trusted vocabulary is skipped and reported; the others are
// appended to the trusted store one file at a time. progress, if not nil,
// is called after each file.
func (u *ImportUseCase) Import(root string, progress func(done, total int)) (*ImportResult, error) {
	files, err := u.Discover(root)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	vocab := u.engine.Session().Vocabulary()

	for i, file := range files {
		cases, err := store.NewCSVStore(file.Path).LoadAs(vocab)
		if err != nil {
			result.FilesSkipped++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", file.RelPath, err))
		} else if err := u.engine.Seed(cases); err != nil {
			return result, fmt.Errorf("failed to import %s: %w", file.RelPath, err)
		} else {
			result.FilesImported++
			result.CasesAdded += len(cases)
		}

		if progress != nil {
			progress(i+1, len(files))
		}
	}

	u.logger.Info("import complete",
		zap.Int("files", result.FilesImported),
		zap.Int("skipped", result.FilesSkipped),
		zap.Int("cases", result.CasesAdded),
	)
	return result, nil
}
