package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"casebase/internal/domain"
	"casebase/internal/port"

	"go.etcd.io/bbolt"
)

var (
	bucketRecords   = []byte("records")
	bucketRecordIDs = []byte("record_ids")
	bucketMeta      = []byte("meta")
)

// BoltJournal persists pending inference records in a bbolt file so a
// session survives across process runs.
type BoltJournal struct {
	db *bbolt.DB
}

func NewBoltJournal(path string) (*BoltJournal, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{bucketRecords, bucketRecordIDs, bucketMeta}
		for _, b := range buckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltJournal{db: db}, nil
}

type recordMeta struct {
	ID        string               `json:"id"`
	Symptoms  []string             `json:"symptoms"`
	Label     string               `json:"label"`
	Vector    []float64            `json:"vector"`
	Breakdown domain.VoteBreakdown `json:"breakdown,omitempty"`
	CreatedAt int64                `json:"created_at"`
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

func (j *BoltJournal) PutRecord(rec domain.InferenceRecord) error {
	return j.db.Update(func(tx *bbolt.Tx) error {
		records := tx.Bucket(bucketRecords)
		ids := tx.Bucket(bucketRecordIDs)

		if ids.Get([]byte(rec.ID)) != nil {
			return fmt.Errorf("record already journaled: %s", rec.ID)
		}

		seq, err := records.NextSequence()
		if err != nil {
			return err
		}

		meta := recordMeta{
			ID:        string(rec.ID),
			Symptoms:  rec.Symptoms,
			Label:     rec.Case.Label,
			Vector:    rec.Case.Vector,
			Breakdown: rec.Breakdown,
			CreatedAt: rec.CreatedAt.UnixNano(),
		}
		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}

		key := seqKey(seq)
		if err := records.Put(key, data); err != nil {
			return err
		}
		return ids.Put([]byte(rec.ID), key)
	})
}

func (j *BoltJournal) ListRecords() ([]domain.InferenceRecord, error) {
	var recs []domain.InferenceRecord
	err := j.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRecords).ForEach(func(k, v []byte) error {
			var meta recordMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return fmt.Errorf("corrupt journal record %x: %w", k, err)
			}
			recs = append(recs, meta.toRecord())
			return nil
		})
	})
	return recs, err
}

func (j *BoltJournal) DeleteRecords(ids []domain.PendingHandle) error {
	return j.db.Update(func(tx *bbolt.Tx) error {
		records := tx.Bucket(bucketRecords)
		idx := tx.Bucket(bucketRecordIDs)
		for _, id := range ids {
			key := idx.Get([]byte(id))
			if key == nil {
				continue
			}
			if err := records.Delete(key); err != nil {
				return err
			}
			if err := idx.Delete([]byte(id)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Clear removes every record but keeps schema metadata.
func (j *BoltJournal) Clear() error {
	return j.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketRecords, bucketRecordIDs} {
			if err := tx.DeleteBucket(name); err != nil && err != bbolt.ErrBucketNotFound {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
}

func (j *BoltJournal) Close() error {
	return j.db.Close()
}

func (m recordMeta) toRecord() domain.InferenceRecord {
	return domain.InferenceRecord{
		ID:        domain.PendingHandle(m.ID),
		Symptoms:  m.Symptoms,
		Label:     m.Label,
		Case:      domain.Case{Vector: m.Vector, Label: m.Label},
		Breakdown: m.Breakdown,
		CreatedAt: time.Unix(0, m.CreatedAt),
	}
}

var _ port.Journal = (*BoltJournal)(nil)
