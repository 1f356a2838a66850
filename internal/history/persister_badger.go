// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/queuewatch/internal/models"
)

// snapshotKey holds the whole session log document.
var snapshotKey = []byte("history:sessions")

// quarantinePrefix prefixes keys holding snapshots that failed to decode.
const quarantinePrefix = "history:sessions:corrupt:"

// BadgerPersister stores the snapshot document under a single BadgerDB key,
// replaced in one transaction per save.
type BadgerPersister struct {
	db     *badger.DB
	ownsDB bool
}

// OpenBadgerPersister opens (or creates) a BadgerDB at dir.
func OpenBadgerPersister(dir string) (*BadgerPersister, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dir, err)
	}
	return &BadgerPersister{db: db, ownsDB: true}, nil
}

// NewBadgerPersister wraps an already-open database. Close leaves it open.
func NewBadgerPersister(db *badger.DB) *BadgerPersister {
	return &BadgerPersister{db: db}
}

// Name implements Persister.
func (p *BadgerPersister) Name() string { return "badger" }

// Load implements Persister.
func (p *BadgerPersister) Load(_ context.Context) ([]models.CompletedSession, error) {
	var sessions []models.CompletedSession
	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get snapshot: %w", err)
		}
		return item.Value(func(val []byte) error {
			decoded, derr := decodeDocument(val)
			sessions = decoded
			return derr
		})
	})
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// Save implements Persister.
func (p *BadgerPersister) Save(ctx context.Context, sessions []models.CompletedSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeDocument(sessions)
	if err != nil {
		return err
	}
	return p.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(snapshotKey, data); err != nil {
			return fmt.Errorf("set snapshot: %w", err)
		}
		return nil
	})
}

// Quarantine implements Quarantiner by moving the snapshot value to a
// timestamped key in the same transaction that deletes it.
func (p *BadgerPersister) Quarantine(_ context.Context) (string, error) {
	key := quarantinePrefix + time.Now().UTC().Format("20060102T150405.000Z")
	err := p.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey)
		if err != nil {
			return fmt.Errorf("get snapshot: %w", err)
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("read snapshot: %w", err)
		}
		if err := txn.Set([]byte(key), val); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
		return txn.Delete(snapshotKey)
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// Close implements Persister.
func (p *BadgerPersister) Close() error {
	if !p.ownsDB {
		return nil
	}
	return p.db.Close()
}
