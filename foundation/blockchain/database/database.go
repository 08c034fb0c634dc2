// Package database handles the lower level support for maintaining the
// blockchain: the block entity, its validation protocol, and the chain of
// accepted blocks in storage.
package database

import (
	"fmt"
	"sync"
)

// Storage interface represents the behavior required to be implemented by
// any package providing support for storing and reading the blockchain.
type Storage interface {
	Write(data BlockData) error
	GetBlock(height uint64) (BlockData, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by
// any package providing support to iterate over the stored blocks in height
// order, starting at genesis.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// =============================================================================

// Database manages the sequence of accepted blocks. It owns the chain tip
// and is the only writer: a block enters storage exclusively through
// AcceptBlock after passing the full validation protocol.
type Database struct {
	mu          sync.RWMutex
	latestBlock Block
	storage     Storage
	evHandler   func(v string, args ...any)
}

// New constructs the database by replaying the chain from storage. Every
// stored block is validated against its predecessor on the way in. When
// storage is empty a fresh genesis block is created and persisted.
func New(storage Storage, evHandler func(v string, args ...any)) (*Database, error) {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	db := Database{
		storage:   storage,
		evHandler: ev,
	}

	var latest Block
	var loaded bool

	iter := storage.ForEach()
	for data, err := iter.Next(); !iter.Done(); data, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		block := ToBlock(data)

		// The genesis block has no predecessor to validate against; it
		// only needs a consistent hash and an empty parent hash.
		if !loaded {
			if block.Height() != 0 || block.PrevHash() != "" {
				return nil, fmt.Errorf("first stored block is not a genesis block, height %d", block.Height())
			}
			if err := block.VerifyHash(); err != nil {
				return nil, fmt.Errorf("genesis block: %w", err)
			}

			latest = block
			loaded = true
			continue
		}

		if err := block.ValidateBlock(latest, ev); err != nil {
			return nil, fmt.Errorf("block %d: %w", block.Height(), err)
		}

		latest = block
	}

	if !loaded {
		ev("database: New: no blocks in storage, creating genesis")

		latest = NewGenesisBlock()
		if err := storage.Write(NewBlockData(latest)); err != nil {
			return nil, err
		}
	}

	db.latestBlock = latest

	return &db, nil
}

// Close closes the underlying storage.
func (db *Database) Close() {
	db.storage.Close()
}

// Reset clears the chain from storage and starts over with a fresh genesis
// block.
func (db *Database) Reset() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.storage.Reset(); err != nil {
		return err
	}

	db.latestBlock = NewGenesisBlock()

	return db.storage.Write(NewBlockData(db.latestBlock))
}

// LatestBlock returns the current chain tip.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.latestBlock
}

// AcceptBlock runs the full validation protocol against the current chain
// tip and, on success, persists the block and advances the tip.
func (db *Database) AcceptBlock(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := block.ValidateBlock(db.latestBlock, db.evHandler); err != nil {
		return err
	}

	if err := db.storage.Write(NewBlockData(block)); err != nil {
		return err
	}

	db.latestBlock = block

	return nil
}

// GetBlock searches storage to locate and return the block stored with the
// specified height.
func (db *Database) GetBlock(height uint64) (Block, error) {
	data, err := db.storage.GetBlock(height)
	if err != nil {
		return Block{}, err
	}

	return ToBlock(data), nil
}

// ForEach returns an iterator to walk through all the blocks starting with
// the genesis block.
func (db *Database) ForEach() DatabaseIterator {
	return DatabaseIterator{iterator: db.storage.ForEach()}
}

// =============================================================================

// DatabaseIterator provides support for walking through the stored blocks
// as reconstructed Block values.
type DatabaseIterator struct {
	iterator Iterator
}

// Next retrieves the next block from storage.
func (di *DatabaseIterator) Next() (Block, error) {
	data, err := di.iterator.Next()
	if err != nil {
		return Block{}, err
	}

	return ToBlock(data), nil
}

// Done returns the end of chain value.
func (di *DatabaseIterator) Done() bool {
	return di.iterator.Done()
}
