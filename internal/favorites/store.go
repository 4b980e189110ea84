// Morfonica - Conversational Pixiv Browsing Service
// Copyright 2026 Roast-2007
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Roast-2007/morfonica

// Package favorites persists (user, illustration) bookmark records in
// BadgerDB. Records survive restarts; the browse layer reads them through
// the Store interface so tests can substitute an in-memory fake.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/Roast-2007/morfonica/internal/config"
	"github.com/Roast-2007/morfonica/internal/metrics"
	"github.com/Roast-2007/morfonica/internal/models"
)

// favoriteKeyPrefix namespaces favorite records in BadgerDB.
const favoriteKeyPrefix = "favorite:"

// Store is the persistence contract the browse layer consumes.
type Store interface {
	// List returns all favorites for a user, most recent first.
	List(ctx context.Context, userKey string) ([]models.Favorite, error)

	// Exists reports whether a (user, illustration) record is present.
	Exists(ctx context.Context, userKey string, illustID int64) (bool, error)

	// Create stores a record. Creating an existing pair overwrites it;
	// callers check Exists first when they need create-once semantics.
	Create(ctx context.Context, userKey string, illustID int64, createdAt time.Time) error
}

// BadgerStore implements Store using BadgerDB for durable storage.
type BadgerStore struct {
	db *badger.DB
}

// Ensure BadgerStore implements Store.
var _ Store = (*BadgerStore)(nil)

// Open opens the BadgerDB at the configured path and wraps it in a store.
// The caller owns the returned DB handle and must Close it on shutdown.
func Open(cfg config.DatabaseConfig) (*BadgerStore, *badger.DB, error) {
	opts := badger.DefaultOptions(cfg.Path).WithLogger(nil)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("open badger at %s: %w", cfg.Path, err)
	}
	return NewBadgerStore(db), db, nil
}

// NewBadgerStore wraps an already-open BadgerDB handle.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// recordKey builds the storage key for one (user, illustration) pair.
func recordKey(userKey string, illustID int64) []byte {
	return []byte(favoriteKeyPrefix + userKey + ":" + strconv.FormatInt(illustID, 10))
}

// List returns all favorites for a user, most recent first.
func (s *BadgerStore) List(ctx context.Context, userKey string) ([]models.Favorite, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(favoriteKeyPrefix + userKey + ":")
	var records []models.Favorite

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var record models.Favorite
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return fmt.Errorf("decode favorite record: %w", err)
			}
			records = append(records, record)
		}
		return nil
	})
	metrics.RecordFavoriteOp("list", err)
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// Exists reports whether a (user, illustration) record is present.
func (s *BadgerStore) Exists(ctx context.Context, userKey string, illustID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var found bool
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(recordKey(userKey, illustID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get favorite: %w", err)
		}
		found = true
		return nil
	})
	metrics.RecordFavoriteOp("exists", err)
	return found, err
}

// Create stores a favorite record.
func (s *BadgerStore) Create(ctx context.Context, userKey string, illustID int64, createdAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	record := models.Favorite{
		UserKey:   userKey,
		IllustID:  illustID,
		CreatedAt: createdAt,
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal favorite record: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(userKey, illustID), data)
	})
	metrics.RecordFavoriteOp("create", err)
	if err != nil {
		return fmt.Errorf("store favorite: %w", err)
	}
	return nil
}
