// Copyright 2025 The go-tmlight Authors
// This file is part of the go-tmlight library.
//
// The go-tmlight library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-tmlight library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-tmlight library. If not, see <http://www.gnu.org/licenses/>.

// Package db implements a leveldb backed light block store, suitable as a
// persistent trust base. A small LRU cache sits in front of the database so
// the verification loop's re-reads of the latest trusted block stay cheap.
package db

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/tmlight/go-tmlight/light/store"
	"github.com/tmlight/go-tmlight/log"
	"github.com/tmlight/go-tmlight/types"
)

const cacheSize = 64

// keyPrefix namespaces light block entries within a shared database.
var keyPrefix = []byte("lb/")

// Store keeps light blocks in a leveldb database.
type Store struct {
	chainID string
	db      *leveldb.DB
	logger  log.Logger

	mtx   sync.Mutex
	cache *lru.Cache // height -> *storedEntry
}

type storedEntry struct {
	Status store.Status      `json:"status"`
	Block  *types.LightBlock `json:"block"`
}

// New opens a store on top of the given database handle. The handle is
// shared, not owned: closing it is the caller's responsibility.
func New(chainID string, db *leveldb.DB, logger log.Logger) *Store {
	if logger == nil {
		logger = log.DiscardLogger()
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		panic(err) // only fails for non-positive sizes
	}
	return &Store{
		chainID: chainID,
		db:      db,
		logger:  logger.With("module", "lightstore"),
		cache:   cache,
	}
}

// Open opens (creating if needed) a leveldb database at path and returns a
// store on top of it together with a close function.
func Open(chainID, path string, logger log.Logger) (*Store, func() error, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("opening light store at %s: %w", path, err)
	}
	return New(chainID, db, logger), db.Close, nil
}

var _ store.Store = (*Store)(nil)

func (s *Store) key(height int64) []byte {
	key := make([]byte, 0, len(keyPrefix)+len(s.chainID)+1+8)
	key = append(key, keyPrefix...)
	key = append(key, s.chainID...)
	key = append(key, '/')
	var h [8]byte
	binary.BigEndian.PutUint64(h[:], uint64(height))
	return append(key, h[:]...)
}

// Insert implements store.Store.
func (s *Store) Insert(lb *types.LightBlock, status store.Status) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, err := s.readLocked(lb.Height())
	switch err {
	case nil:
		if existing.Block.Hash() != lb.Hash() {
			return store.ErrConflictingBlock
		}
		return nil
	case store.ErrBlockNotFound:
	default:
		return err
	}
	return s.writeLocked(lb.Height(), &storedEntry{Status: status, Block: lb})
}

// Get implements store.Store.
func (s *Store) Get(height int64) (*types.LightBlock, store.Status, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	e, err := s.readLocked(height)
	if err != nil {
		return nil, 0, err
	}
	return e.Block, e.Status, nil
}

// GetNonFailed implements store.Store.
func (s *Store) GetNonFailed(height int64) (*types.LightBlock, store.Status, error) {
	lb, status, err := s.Get(height)
	if err != nil {
		return nil, 0, err
	}
	if status == store.StatusFailed {
		return nil, 0, store.ErrBlockNotFound
	}
	return lb, status, nil
}

// Update implements store.Store.
func (s *Store) Update(height int64, status store.Status) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	e, err := s.readLocked(height)
	if err != nil {
		return err
	}
	next, err := store.ApplyUpdate(e.Status, status)
	if err != nil {
		return err
	}
	if next == e.Status {
		return nil
	}
	e.Status = next
	return s.writeLocked(height, e)
}

// LatestTrusted implements store.Store.
func (s *Store) LatestTrusted() (*types.LightBlock, error) {
	return s.Highest(store.StatusTrusted)
}

// Highest implements store.Store.
func (s *Store) Highest(status store.Status) (*types.LightBlock, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.scanLocked(status, true)
}

// Lowest implements store.Store.
func (s *Store) Lowest(status store.Status) (*types.LightBlock, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.scanLocked(status, false)
}

// Prune implements store.Store.
func (s *Store) Prune(keep int) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	type candidate struct {
		height  int64
		trusted bool
	}
	var all []candidate
	iter := s.db.NewIterator(util.BytesPrefix(s.prefix()), nil)
	for iter.Next() {
		height, e, err := s.decode(iter.Key(), iter.Value())
		if err != nil {
			iter.Release()
			return err
		}
		all = append(all, candidate{height: height, trusted: e.Status == store.StatusTrusted})
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return err
	}

	excess := len(all) - keep
	if excess <= 0 {
		return nil
	}
	batch := new(leveldb.Batch)
	// Non-trusted entries go first, in height order; trusted entries are
	// only pruned if the budget is still exceeded.
	for _, trusted := range []bool{false, true} {
		for _, c := range all {
			if excess == 0 {
				break
			}
			if c.trusted != trusted {
				continue
			}
			batch.Delete(s.key(c.height))
			s.cache.Remove(c.height)
			excess--
		}
	}
	if err := s.db.Write(batch, nil); err != nil {
		return err
	}
	s.logger.Debug("Pruned light store", "keep", keep, "removed", len(all)-keep)
	return nil
}

func (s *Store) prefix() []byte {
	p := make([]byte, 0, len(keyPrefix)+len(s.chainID)+1)
	p = append(p, keyPrefix...)
	p = append(p, s.chainID...)
	return append(p, '/')
}

func (s *Store) readLocked(height int64) (*storedEntry, error) {
	if cached, ok := s.cache.Get(height); ok {
		return cached.(*storedEntry), nil
	}
	raw, err := s.db.Get(s.key(height), nil)
	if err == leveldb.ErrNotFound {
		return nil, store.ErrBlockNotFound
	}
	if err != nil {
		return nil, err
	}
	var e storedEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("corrupt light store entry at height %d: %w", height, err)
	}
	s.cache.Add(height, &e)
	return &e, nil
}

func (s *Store) writeLocked(height int64, e *storedEntry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := s.db.Put(s.key(height), raw, nil); err != nil {
		return err
	}
	s.cache.Add(height, e)
	return nil
}

func (s *Store) scanLocked(status store.Status, highest bool) (*types.LightBlock, error) {
	iter := s.db.NewIterator(util.BytesPrefix(s.prefix()), nil)
	defer iter.Release()

	step := iter.Next
	if highest {
		if !iter.Last() {
			return nil, store.ErrBlockNotFound
		}
		step = iter.Prev
		// Examine the last entry before stepping backwards.
		for ok := true; ok; ok = step() {
			if lb, err := s.match(iter.Key(), iter.Value(), status); err != nil || lb != nil {
				return lb, err
			}
		}
		return nil, store.ErrBlockNotFound
	}
	for step() {
		if lb, err := s.match(iter.Key(), iter.Value(), status); err != nil || lb != nil {
			return lb, err
		}
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return nil, store.ErrBlockNotFound
}

func (s *Store) match(key, value []byte, status store.Status) (*types.LightBlock, error) {
	_, e, err := s.decode(key, value)
	if err != nil {
		return nil, err
	}
	if e.Status != status {
		return nil, nil
	}
	return e.Block, nil
}

func (s *Store) decode(key, value []byte) (int64, *storedEntry, error) {
	if len(key) < 8 {
		return 0, nil, fmt.Errorf("malformed light store key %x", key)
	}
	height := int64(binary.BigEndian.Uint64(key[len(key)-8:]))
	if cached, ok := s.cache.Get(height); ok {
		return height, cached.(*storedEntry), nil
	}
	var e storedEntry
	if err := json.Unmarshal(value, &e); err != nil {
		return 0, nil, fmt.Errorf("corrupt light store entry at height %d: %w", height, err)
	}
	s.cache.Add(height, &e)
	return height, &e, nil
}
