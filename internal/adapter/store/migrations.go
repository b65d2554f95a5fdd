package store

import (
	"encoding/json"
	"fmt"

	"casebase/internal/domain"

	"go.etcd.io/bbolt"
)

// CurrentSchemaVersion is the current journal schema version.
// Increment this when making breaking changes to the record format.
const CurrentSchemaVersion = 2

var (
	keySchemaVersion  = []byte("schema_version")
	keyVocabularyHash = []byte("vocabulary_hash")
)

// SchemaInfo stores the journal schema version and the vocabulary its
// record vectors were encoded against.
type SchemaInfo struct {
	Version        int    `json:"version"`
	VocabularyHash string `json:"vocabulary_hash"`
}

// GetSchemaInfo retrieves the current schema info from the journal.
func (j *BoltJournal) GetSchemaInfo() (*SchemaInfo, error) {
	var info SchemaInfo
	err := j.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		if b == nil {
			return nil
		}

		if versionData := b.Get(keySchemaVersion); versionData != nil {
			if err := json.Unmarshal(versionData, &info.Version); err != nil {
				info.Version = 1
			}
		}
		if hashData := b.Get(keyVocabularyHash); hashData != nil {
			info.VocabularyHash = string(hashData)
		}
		return nil
	})
	return &info, err
}

// SetSchemaInfo stores the schema info in the journal.
func (j *BoltJournal) SetSchemaInfo(info *SchemaInfo) error {
	return j.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)

		versionData, err := json.Marshal(info.Version)
		if err != nil {
			return err
		}
		if err := b.Put(keySchemaVersion, versionData); err != nil {
			return err
		}
		return b.Put(keyVocabularyHash, []byte(info.VocabularyHash))
	})
}

// MigrationResult describes the result of a migration check.
type MigrationResult struct {
	NeedsMigration bool
	NeedsRebuild   bool
	OldVersion     int
	NewVersion     int
	Reason         string
}

// CheckMigration checks whether the journal can be used with vocab.
// Records encoded against another vocabulary cannot be, so a changed
// vocabulary requires a rebuild.
func (j *BoltJournal) CheckMigration(vocab domain.Vocabulary) (*MigrationResult, error) {
	info, err := j.GetSchemaInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to get schema info: %w", err)
	}

	result := &MigrationResult{
		OldVersion: info.Version,
		NewVersion: CurrentSchemaVersion,
	}

	switch {
	case info.Version == 0:
		result.NeedsMigration = true
		result.Reason = "initializing schema version"
	case info.Version < CurrentSchemaVersion:
		result.NeedsMigration = true
		result.Reason = fmt.Sprintf("schema upgrade from v%d to v%d", info.Version, CurrentSchemaVersion)
	case info.Version > CurrentSchemaVersion:
		result.NeedsRebuild = true
		result.Reason = fmt.Sprintf("journal created by newer version (v%d > v%d)", info.Version, CurrentSchemaVersion)
		return result, nil
	}

	if info.VocabularyHash != "" && info.VocabularyHash != vocab.Hash() {
		result.NeedsRebuild = true
		result.Reason = "trusted store vocabulary changed"
	}

	return result, nil
}

// Migrate runs pending schema migrations and records vocab.
func (j *BoltJournal) Migrate(vocab domain.Vocabulary) error {
	info, err := j.GetSchemaInfo()
	if err != nil {
		return err
	}

	for v := info.Version; v < CurrentSchemaVersion; v++ {
		if err := j.runMigration(v, v+1); err != nil {
			return fmt.Errorf("migration from v%d to v%d failed: %w", v, v+1, err)
		}
	}

	return j.SetSchemaInfo(&SchemaInfo{
		Version:        CurrentSchemaVersion,
		VocabularyHash: vocab.Hash(),
	})
}

func (j *BoltJournal) runMigration(from, to int) error {
	switch {
	case from == 1 && to == 2:
		// v1 had no id index; rebuild it from the records.
		return j.db.Update(func(tx *bbolt.Tx) error {
			idx, err := tx.CreateBucketIfNotExists(bucketRecordIDs)
			if err != nil {
				return err
			}
			return tx.Bucket(bucketRecords).ForEach(func(k, v []byte) error {
				var meta recordMeta
				if err := json.Unmarshal(v, &meta); err != nil {
					return err
				}
				return idx.Put([]byte(meta.ID), append([]byte(nil), k...))
			})
		})
	default:
		return nil
	}
}

// Open prepares the journal for vocab, clearing records that were encoded
// against a different vocabulary. It reports whether records were dropped.
func (j *BoltJournal) Open(vocab domain.Vocabulary) (*MigrationResult, error) {
	result, err := j.CheckMigration(vocab)
	if err != nil {
		return nil, err
	}
	if result.NeedsRebuild {
		if err := j.Clear(); err != nil {
			return nil, fmt.Errorf("failed to clear journal: %w", err)
		}
		if err := j.SetSchemaInfo(&SchemaInfo{}); err != nil {
			return nil, err
		}
	}
	if result.NeedsRebuild || result.NeedsMigration {
		if err := j.Migrate(vocab); err != nil {
			return nil, err
		}
	}
	return result, nil
}
