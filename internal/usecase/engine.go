package usecase

import (
	"casebase/internal/adapter/cache"
	"casebase/internal/adapter/encoder"
	"casebase/internal/domain"
	"casebase/internal/port"

	"go.uber.org/zap"
)

// EngineOptions configures the engine facade.
type EngineOptions struct {
	// FoldPending makes pending inferences part of the retrieval base
	// before they are promoted.
	FoldPending bool

	// Cache is invalidated whenever the retrieval base changes. It must be
	// the cache behind the diagnose use case's retriever, if any.
	Cache *cache.QueryCache

	Logger *zap.Logger
}

// Engine is the surface the presentation layer talks to: vocabulary
// listing, symptom validation, inference and the pending/promote protocol.
type Engine struct {
	encoder  *encoder.Encoder
	session  *Session
	diagnose *DiagnoseUseCase
	opts     EngineOptions
	logger   *zap.Logger
}

// NewEngine wires the encoder, session and diagnose use case together.
func NewEngine(enc *encoder.Encoder, session *Session, diagnose *DiagnoseUseCase, opts EngineOptions) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		encoder:  enc,
		session:  session,
		diagnose: diagnose,
		opts:     opts,
		logger:   logger,
	}
}

// Session returns the underlying session.
func (e *Engine) Session() *Session {
	return e.session
}

// SymptomNames returns the vocabulary in column order.
func (e *Engine) SymptomNames() []string {
	return e.encoder.Vocabulary().Names()
}

// AddSymptom validates name against the vocabulary and adds its canonical
// form to selected. Already selected symptoms are not added twice.
func (e *Engine) AddSymptom(selected []string, name string) ([]string, error) {
	i, ok := e.encoder.Vocabulary().Index(name)
	if !ok {
		return selected, &domain.UnknownSymptomError{Names: []string{name}}
	}
	canonical := e.encoder.Vocabulary().Name(i)
	for _, s := range selected {
		if s == canonical {
			return selected, nil
		}
	}
	return append(selected, canonical), nil
}

// Base returns the current retrieval base: the trusted library, followed by
// the pending cases when pending inferences are folded in.
func (e *Engine) Base() (port.CaseBase, error) {
	trusted := e.session.Trusted()
	if !e.opts.FoldPending {
		return trusted, nil
	}
	pending := e.session.PendingCases()
	if len(pending) == 0 {
		return trusted, nil
	}
	return trusted.With(pending)
}

// Diagnose runs an inference without recording it.
func (e *Engine) Diagnose(symptoms []string) (domain.Decision, error) {
	_, query, err := e.encode(symptoms)
	if err != nil {
		return domain.Decision{}, err
	}
	base, err := e.Base()
	if err != nil {
		return domain.Decision{}, err
	}
	return e.diagnose.Diagnose(base, query)
}

// RunInference diagnoses the reported symptoms and records the result as a
// pending inference.
func (e *Engine) RunInference(symptoms []string) (domain.Decision, domain.PendingHandle, error) {
	known, query, err := e.encode(symptoms)
	if err != nil {
		return domain.Decision{}, "", err
	}
	base, err := e.Base()
	if err != nil {
		return domain.Decision{}, "", err
	}

	decision, err := e.diagnose.Diagnose(base, query)
	if err != nil {
		return domain.Decision{}, "", err
	}

	handle, err := e.session.Record(known, WinningCase(query, decision), decision.Breakdown)
	if err != nil {
		return decision, "", err
	}
	if e.opts.FoldPending {
		e.invalidate()
	}

	e.logger.Info("inference complete",
		zap.Strings("symptoms", known),
		zap.String("label", decision.Label),
		zap.String("id", string(handle)),
	)
	return decision, handle, nil
}

// ListPending returns the pending inferences in recording order.
func (e *Engine) ListPending() []domain.InferenceRecord {
	return e.session.Pending()
}

// Promote promotes the pending inferences at the given zero-based positions.
func (e *Engine) Promote(indices []int) (int, error) {
	handles, err := e.session.Resolve(indices)
	if err != nil {
		return 0, err
	}
	n, err := e.session.Promote(handles)
	if n > 0 || err != nil {
		e.invalidate()
	}
	return n, err
}

// PromoteAll promotes every pending inference.
func (e *Engine) PromoteAll() (int, error) {
	indices := make([]int, len(e.session.Pending()))
	for i := range indices {
		indices[i] = i
	}
	return e.Promote(indices)
}

// Discard drops the pending inferences at the given zero-based positions,
// or all of them when indices is empty.
func (e *Engine) Discard(indices []int) (int, error) {
	handles, err := e.session.Resolve(indices)
	if err != nil {
		return 0, err
	}
	n, err := e.session.Discard(handles...)
	if e.opts.FoldPending && n > 0 {
		e.invalidate()
	}
	return n, err
}

// Seed appends already validated cases to the trusted store and library.
func (e *Engine) Seed(cases []domain.Case) error {
	err := e.session.seed(cases)
	if len(cases) > 0 {
		e.invalidate()
	}
	return err
}

// Stats summarises the library for console output.
func (e *Engine) Stats() domain.LibraryStats {
	trusted := e.session.Trusted()
	return domain.LibraryStats{
		Symptoms:     trusted.Vocabulary().Len(),
		TrustedCases: trusted.Len(),
		PendingCases: len(e.session.Pending()),
		Labels:       trusted.LabelCounts(),
	}
}

func (e *Engine) encode(symptoms []string) ([]string, domain.Vector, error) {
	known, unknown := e.encoder.Normalize(symptoms)
	query, err := e.encoder.Encode(symptoms, false)
	if err != nil {
		return nil, nil, err
	}
	if len(unknown) > 0 {
		e.logger.Debug("dropped unknown symptoms", zap.Strings("symptoms", unknown))
	}
	return known, query, nil
}

func (e *Engine) invalidate() {
	if e.opts.Cache != nil {
		e.opts.Cache.Invalidate()
	}
}
