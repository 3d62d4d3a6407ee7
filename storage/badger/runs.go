package badger

import (
	"context"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
)

// RunStore implements storage.RunStore for BadgerDB.
type RunStore struct {
	backend *Backend
}

var _ storage.RunStore = (*RunStore)(nil)

// NewRunStore creates a new RunStore.
func NewRunStore(backend *Backend) *RunStore {
	return &RunStore{backend: backend}
}

// SaveRun stores a run snapshot.
func (s *RunStore) SaveRun(ctx context.Context, run *core.IngestionRun) error {
	if run == nil || run.ID == "" {
		return storage.ErrInvalidQuery
	}
	value, err := storage.MarshalRun(run)
	if err != nil {
		return err
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeRunKey(run.ID), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetRun returns a run by ID.
func (s *RunStore) GetRun(ctx context.Context, id string) (*core.IngestionRun, error) {
	var run *core.IngestionRun
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		run, err = getValue(tx, makeRunKey(id), storage.UnmarshalRun)
		return err
	}, false)
	return run, err
}

// ListRuns returns every run, most recently started first.
func (s *RunStore) ListRuns(ctx context.Context) ([]*core.IngestionRun, error) {
	var runs []*core.IngestionRun
	err := s.backend.ScanPrefix(ctx, []byte(runPrefix), func(_, val []byte) error {
		run, err := storage.UnmarshalRun(val)
		if err != nil {
			return err
		}
		runs = append(runs, run)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(runs, func(a, b *core.IngestionRun) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	return runs, nil
}
