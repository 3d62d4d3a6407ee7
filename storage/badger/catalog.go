package badger

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
)

// Catalog implements storage.Catalog for BadgerDB.
type Catalog struct {
	backend *Backend
}

var _ storage.Catalog = (*Catalog)(nil)

// NewCatalog creates a new Catalog.
func NewCatalog(backend *Backend) *Catalog {
	return &Catalog{backend: backend}
}

// CreateUser stores a new user.
func (c *Catalog) CreateUser(ctx context.Context, user *core.User) error {
	if user == nil || strings.TrimSpace(user.Email) == "" {
		return storage.ErrInvalidQuery
	}
	return c.backend.WithTx(func(tx *badger.Txn) error {
		key := makeUserKey(user.Email)
		if _, err := tx.Get(key); err == nil {
			return storage.ErrDuplicateKey
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		user.InsertedAt = now()
		user.UpdatedAt = user.InsertedAt
		if user.IngestedRepositories == nil {
			user.IngestedRepositories = []string{}
		}
		if err := tx.Set(key, storage.MarshalUser(user)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetUser returns a user by email.
func (c *Catalog) GetUser(ctx context.Context, email string) (*core.User, error) {
	var user *core.User
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		user, err = getValue(tx, makeUserKey(email), storage.UnmarshalUser)
		return err
	}, false)
	return user, err
}

// AddRepositoryToUser appends fullName to the user's ingested set.
func (c *Catalog) AddRepositoryToUser(ctx context.Context, email, fullName string) error {
	return c.backend.WithTx(func(tx *badger.Txn) error {
		key := makeUserKey(email)
		user, err := getValue(tx, key, storage.UnmarshalUser)
		if err != nil {
			return err
		}
		if slices.Contains(user.IngestedRepositories, fullName) {
			return nil
		}
		user.IngestedRepositories = append(user.IngestedRepositories, fullName)
		user.UpdatedAt = now()
		if err := tx.Set(key, storage.MarshalUser(user)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// CreateRepository upserts a repository record. The ID is always derived
// from the full name; InsertedAt survives an overwrite.
func (c *Catalog) CreateRepository(ctx context.Context, record *core.RepositoryRecord) error {
	if record == nil || record.FullName == "" {
		return storage.ErrInvalidQuery
	}
	return c.backend.WithTx(func(tx *badger.Txn) error {
		record.ID = core.RepositoryRecordID(record.FullName)
		key := makeRepoKey(record.ID)

		stamp := now()
		existing, err := getValue(tx, key, storage.UnmarshalRepositoryRecord)
		switch {
		case err == nil:
			record.InsertedAt = existing.InsertedAt
		case errors.Is(err, storage.ErrNotFound):
			record.InsertedAt = stamp
		default:
			return err
		}
		record.UpdatedAt = stamp

		if err := tx.Set(key, storage.MarshalRepositoryRecord(record)); err != nil {
			return err
		}
		if err := tx.Set(makeRepoNameKey(record.FullName), storage.MarshalID(record.ID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetRepository returns a repository record by ID.
func (c *Catalog) GetRepository(ctx context.Context, id core.ID) (*core.RepositoryRecord, error) {
	var record *core.RepositoryRecord
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		record, err = getValue(tx, makeRepoKey(id), storage.UnmarshalRepositoryRecord)
		return err
	}, false)
	return record, err
}

// FindRepositoryByName resolves the name index and returns the record.
func (c *Catalog) FindRepositoryByName(ctx context.Context, fullName string) (*core.RepositoryRecord, error) {
	var record *core.RepositoryRecord
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeRepoNameKey(fullName))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		var id core.ID
		if err := item.Value(func(val []byte) error {
			id, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return err
		}
		record, err = getValue(tx, makeRepoKey(id), storage.UnmarshalRepositoryRecord)
		return err
	}, false)
	return record, err
}

// ListRepositories returns every repository record ordered by full name.
func (c *Catalog) ListRepositories(ctx context.Context) ([]*core.RepositoryRecord, error) {
	var records []*core.RepositoryRecord
	err := c.backend.ScanPrefix(ctx, []byte(repoPrefix), func(_, val []byte) error {
		record, err := storage.UnmarshalRepositoryRecord(val)
		if err != nil {
			return err
		}
		records = append(records, record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(records, func(a, b *core.RepositoryRecord) int {
		return strings.Compare(a.FullName, b.FullName)
	})
	return records, nil
}

// DeleteRepository removes a repository record and its name index entry.
func (c *Catalog) DeleteRepository(ctx context.Context, id core.ID) (int, error) {
	deleted := 0
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		key := makeRepoKey(id)
		record, err := getValue(tx, key, storage.UnmarshalRepositoryRecord)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		if err := tx.Delete(makeRepoNameKey(record.FullName)); err != nil {
			return err
		}
		deleted = 1
		return tx.Commit()
	}, true)
	return deleted, err
}

// now returns the current time at the precision catalog records keep.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func getValue[T any](tx *badger.Txn, key []byte, unmarshal func([]byte) (*T, error)) (*T, error) {
	item, err := tx.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var v *T
	err = item.Value(func(val []byte) error {
		v, err = unmarshal(val)
		return err
	})
	return v, err
}
