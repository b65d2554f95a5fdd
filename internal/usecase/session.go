package usecase

import (
	"errors"
	"fmt"
	"time"

	"casebase/internal/adapter/encoder"
	"casebase/internal/adapter/library"
	"casebase/internal/domain"
	"casebase/internal/port"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionOptions configures the pending/trusted protocol.
type SessionOptions struct {
	// RetainUnselected keeps pending inferences that were not promoted.
	// When false, any promotion clears the whole pending extent.
	RetainUnselected bool

	// PersistPending rewrites the pending side file after every change.
	PersistPending bool

	// Journal keeps records across process runs. Optional.
	Journal port.Journal

	// PendingStore is the side file holding the pending extent. Optional.
	PendingStore port.PendingStore

	Logger *zap.Logger
}

// Session owns the pending extent and inference history for one operator.
// Pending cases reach the trusted store and library only through Promote.
type Session struct {
	vocab   domain.Vocabulary
	trusted port.CaseStore
	base    *library.CaseLibrary
	journal port.Journal
	pending port.PendingStore
	opts    SessionOptions
	logger  *zap.Logger

	records []domain.InferenceRecord
	now     func() time.Time
}

// OpenSession starts a session over the trusted library. Records left in the
// journal are restored; if there are none, the pending side file is read
// back so an interrupted session does not lose its inferences.
func OpenSession(base *library.CaseLibrary, trusted port.CaseStore, opts SessionOptions) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Session{
		vocab:   base.Vocabulary(),
		trusted: trusted,
		base:    base,
		journal: opts.Journal,
		pending: opts.PendingStore,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}

	if err := s.restore(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) restore() error {
	if s.journal != nil {
		recs, err := s.journal.ListRecords()
		if err != nil {
			return fmt.Errorf("failed to read session journal: %w", err)
		}
		for _, rec := range recs {
			if len(rec.Case.Vector) != s.vocab.Len() {
				return fmt.Errorf("journal record %s has %d features, vocabulary has %d",
					rec.ID, len(rec.Case.Vector), s.vocab.Len())
			}
		}
		if len(recs) > 0 {
			s.records = recs
			s.logger.Debug("restored pending inferences", zap.Int("count", len(recs)))
			return nil
		}
	}

	if s.pending == nil {
		return nil
	}
	cases, err := s.pending.Read(s.vocab)
	var schemaErr *domain.SchemaError
	if errors.As(err, &schemaErr) {
		// Written for another vocabulary; the journal was cleared for the
		// same reason.
		s.logger.Warn("pending side file does not match the trusted vocabulary, starting empty",
			zap.String("path", schemaErr.Path),
			zap.String("reason", schemaErr.Reason),
		)
		if err := s.pending.Write(s.vocab, nil); err != nil {
			return fmt.Errorf("failed to reset pending store: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read pending store: %w", err)
	}
	if len(cases) == 0 {
		return nil
	}

	enc := encoder.New(s.vocab, false)
	for _, c := range cases {
		rec := domain.InferenceRecord{
			ID:        newHandle(),
			Symptoms:  enc.Decode(c.Vector),
			Label:     c.Label,
			Case:      c,
			CreatedAt: s.now(),
		}
		if s.journal != nil {
			if err := s.journal.PutRecord(rec); err != nil {
				return fmt.Errorf("failed to journal recovered inference: %w", err)
			}
		}
		s.records = append(s.records, rec)
	}
	s.logger.Info("recovered pending inferences from side file", zap.Int("count", len(cases)))
	return nil
}

func newHandle() domain.PendingHandle {
	return domain.PendingHandle(uuid.NewString())
}

// Vocabulary returns the session's vocabulary.
func (s *Session) Vocabulary() domain.Vocabulary {
	return s.vocab
}

// Trusted returns the trusted library. It grows only through Promote.
func (s *Session) Trusted() *library.CaseLibrary {
	return s.base
}

// Record adds an inference to the pending extent and the inference history.
func (s *Session) Record(symptoms []string, c domain.Case, breakdown domain.VoteBreakdown) (domain.PendingHandle, error) {
	if len(c.Vector) != s.vocab.Len() {
		return "", fmt.Errorf("case has %d features, vocabulary has %d", len(c.Vector), s.vocab.Len())
	}

	rec := domain.InferenceRecord{
		ID:        newHandle(),
		Symptoms:  append([]string(nil), symptoms...),
		Label:     c.Label,
		Case:      domain.Case{Vector: c.Vector.Clone(), Label: c.Label},
		Breakdown: append(domain.VoteBreakdown(nil), breakdown...),
		CreatedAt: s.now(),
	}

	if s.journal != nil {
		if err := s.journal.PutRecord(rec); err != nil {
			return "", fmt.Errorf("failed to journal inference: %w", err)
		}
	}
	s.records = append(s.records, rec)

	if err := s.persistPending(); err != nil {
		s.records = s.records[:len(s.records)-1]
		if s.journal != nil {
			if derr := s.journal.DeleteRecords([]domain.PendingHandle{rec.ID}); derr != nil {
				s.logger.Warn("failed to roll back journaled inference",
					zap.String("id", string(rec.ID)),
					zap.Error(derr),
				)
			}
		}
		return "", err
	}

	s.logger.Debug("inference recorded",
		zap.String("id", string(rec.ID)),
		zap.String("label", rec.Label),
	)
	return rec.ID, nil
}

// Pending returns the pending inference records in recording order.
func (s *Session) Pending() []domain.InferenceRecord {
	out := make([]domain.InferenceRecord, len(s.records))
	copy(out, s.records)
	return out
}

// PendingCases returns the pending cases in recording order.
func (s *Session) PendingCases() []domain.Case {
	out := make([]domain.Case, len(s.records))
	for i, rec := range s.records {
		out[i] = rec.Case
	}
	return out
}

// Resolve maps zero-based positions in Pending to handles.
func (s *Session) Resolve(indices []int) ([]domain.PendingHandle, error) {
	handles := make([]domain.PendingHandle, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(s.records) {
			return nil, fmt.Errorf("%w: index %d", domain.ErrUnknownHandle, i+1)
		}
		handles = append(handles, s.records[i].ID)
	}
	return handles, nil
}

// Promote appends the selected pending cases to the trusted store and the
// trusted library, then drops them from the pending extent. Unselected
// entries are kept unless RetainUnselected is off. An empty selection does
// nothing.
func (s *Session) Promote(handles []domain.PendingHandle) (int, error) {
	if len(handles) == 0 {
		return 0, nil
	}

	selected, err := s.selection(handles)
	if err != nil {
		return 0, err
	}

	var cases []domain.Case
	for _, rec := range s.records {
		if selected[rec.ID] {
			cases = append(cases, rec.Case)
		}
	}

	if err := s.trusted.Append(s.vocab, cases); err != nil {
		return 0, fmt.Errorf("failed to append to trusted store: %w", err)
	}
	for _, c := range cases {
		if err := s.base.Append(c); err != nil {
			return 0, err
		}
	}

	drop := selected
	if !s.opts.RetainUnselected {
		drop = make(map[domain.PendingHandle]bool, len(s.records))
		for _, rec := range s.records {
			drop[rec.ID] = true
		}
	}
	if err := s.remove(drop); err != nil {
		return len(cases), err
	}

	s.logger.Info("promoted pending inferences",
		zap.Int("promoted", len(cases)),
		zap.Int("retained", len(s.records)),
		zap.Int("trusted_cases", s.base.Len()),
	)
	return len(cases), nil
}

// Discard drops pending inferences without promoting them. With no handles
// the whole pending extent is discarded.
func (s *Session) Discard(handles ...domain.PendingHandle) (int, error) {
	var drop map[domain.PendingHandle]bool
	if len(handles) == 0 {
		drop = make(map[domain.PendingHandle]bool, len(s.records))
		for _, rec := range s.records {
			drop[rec.ID] = true
		}
	} else {
		var err error
		if drop, err = s.selection(handles); err != nil {
			return 0, err
		}
	}

	before := len(s.records)
	if err := s.remove(drop); err != nil {
		return 0, err
	}
	n := before - len(s.records)
	s.logger.Debug("discarded pending inferences", zap.Int("count", n))
	return n, nil
}

// seed appends already validated cases straight to the trusted store and
// library, bypassing the pending extent. Callers go through Engine.Seed so
// the retrieval cache follows the library.
func (s *Session) seed(cases []domain.Case) error {
	if len(cases) == 0 {
		return nil
	}
	if err := s.trusted.Append(s.vocab, cases); err != nil {
		return fmt.Errorf("failed to append to trusted store: %w", err)
	}
	for _, c := range cases {
		if err := s.base.Append(c); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) selection(handles []domain.PendingHandle) (map[domain.PendingHandle]bool, error) {
	known := make(map[domain.PendingHandle]bool, len(s.records))
	for _, rec := range s.records {
		known[rec.ID] = true
	}
	selected := make(map[domain.PendingHandle]bool, len(handles))
	for _, h := range handles {
		if !known[h] {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownHandle, h)
		}
		selected[h] = true
	}
	return selected, nil
}

func (s *Session) remove(drop map[domain.PendingHandle]bool) error {
	kept := s.records[:0:0]
	var ids []domain.PendingHandle
	for _, rec := range s.records {
		if drop[rec.ID] {
			ids = append(ids, rec.ID)
			continue
		}
		kept = append(kept, rec)
	}

	// Journal before memory: a failed update leaves both unchanged.
	if s.journal != nil && len(ids) > 0 {
		var err error
		if len(kept) == 0 {
			err = s.journal.Clear()
		} else {
			err = s.journal.DeleteRecords(ids)
		}
		if err != nil {
			return fmt.Errorf("failed to update session journal: %w", err)
		}
	}
	s.records = kept
	return s.persistPending()
}

func (s *Session) persistPending() error {
	if !s.opts.PersistPending || s.pending == nil {
		return nil
	}
	if err := s.pending.Write(s.vocab, s.PendingCases()); err != nil {
		return fmt.Errorf("failed to persist pending extent: %w", err)
	}
	return nil
}
