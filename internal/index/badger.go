/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

const badgerKeyPrefix = "track/"

// BadgerStore implements Store on an embedded Badger database, for
// single-host catalogs that do not warrant a network index.
type BadgerStore struct {
	db     *badger.DB
	logger zerolog.Logger
}

// badgerLogger adapts zerolog to badger.Logger.
type badgerLogger struct {
	logger zerolog.Logger
}

var _ badger.Logger = (*badgerLogger)(nil)

func (bl *badgerLogger) Errorf(msg string, items ...any)   { bl.logger.Error().Msgf(msg, items...) }
func (bl *badgerLogger) Warningf(msg string, items ...any) { bl.logger.Warn().Msgf(msg, items...) }
func (bl *badgerLogger) Infof(msg string, items ...any)    { bl.logger.Debug().Msgf(msg, items...) }
func (bl *badgerLogger) Debugf(msg string, items ...any)   { bl.logger.Trace().Msgf(msg, items...) }

// OpenBadgerStore opens (creating if needed) a Badger database at path.
// An inMemory store ignores path and is discarded on Close.
func OpenBadgerStore(path string, inMemory bool, logger zerolog.Logger) (*BadgerStore, error) {
	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, fmt.Errorf("create badger dir: %w", err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = &badgerLogger{logger: logger.With().Str("component", "badger").Logger()}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db, logger: logger}, nil
}

func badgerKey(compositeKey string) []byte {
	return []byte(badgerKeyPrefix + compositeKey)
}

// Put writes one record.
func (s *BadgerStore) Put(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", rec.CompositeKey, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(rec.CompositeKey), data)
	})
}

// BatchPut writes recs in one transaction. When the transaction fills up,
// what fits is committed and the rest is returned as unprocessed.
func (s *BadgerStore) BatchPut(ctx context.Context, recs []Record) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	txn := s.db.NewTransaction(true)
	defer txn.Discard()

	for i, rec := range recs {
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", rec.CompositeKey, err)
		}
		if err := txn.Set(badgerKey(rec.CompositeKey), data); err != nil {
			if errors.Is(err, badger.ErrTxnTooBig) && i > 0 {
				if err := txn.Commit(); err != nil {
					return nil, fmt.Errorf("badger commit: %w", err)
				}
				return recs[i:], nil
			}
			return nil, fmt.Errorf("badger set: %w", err)
		}
	}
	if err := txn.Commit(); err != nil {
		return nil, fmt.Errorf("badger commit: %w", err)
	}
	return nil, nil
}

// Get reads one record.
func (s *BadgerStore) Get(ctx context.Context, compositeKey string) (*Record, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(compositeKey))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("badger get: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", compositeKey, err)
	}
	return &rec, nil
}

// Close flushes and closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
