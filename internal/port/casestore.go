package port

import "casebase/internal/domain"

// CaseStore is the trusted, authoritative case store.
type CaseStore interface {
	// Load reads the vocabulary and all cases in file order.
	Load() (domain.Vocabulary, []domain.Case, error)

	// Append durably adds cases to the end of the store.
	Append(vocab domain.Vocabulary, cases []domain.Case) error

	// Path returns the backing file path.
	Path() string
}

// PendingStore persists the pending extent using the trusted schema.
// It is only read back for crash recovery, never as a retrieval base.
type PendingStore interface {
	// Write replaces the stored pending extent.
	Write(vocab domain.Vocabulary, cases []domain.Case) error

	// Read returns the stored pending extent, or nil if nothing was stored.
	Read(vocab domain.Vocabulary) ([]domain.Case, error)
}
