package port

import "casebase/internal/domain"

// Journal keeps the session's pending inference records across process runs.
type Journal interface {
	// PutRecord appends a record; records list back in insertion order.
	PutRecord(rec domain.InferenceRecord) error

	// ListRecords returns all records in insertion order.
	ListRecords() ([]domain.InferenceRecord, error)

	// DeleteRecords removes the given records. Unknown IDs are ignored.
	DeleteRecords(ids []domain.PendingHandle) error

	// Clear removes every record.
	Clear() error

	Close() error
}
