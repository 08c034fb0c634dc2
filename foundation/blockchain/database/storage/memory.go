package storage

import (
	"errors"
	"io/fs"
	"sync"

	"github.com/rblocklabs/rblock/foundation/blockchain/database"
)

// Memory represents the serialization implementation for keeping blocks in
// memory. Used for testing and for running a node without persistence.
type Memory struct {
	mu     sync.RWMutex
	blocks map[uint64]database.BlockData
}

// NewMemory constructs a Memory value for use.
func NewMemory() (*Memory, error) {
	return &Memory{
		blocks: make(map[uint64]database.BlockData),
	}, nil
}

// Close in this implementation has nothing to do.
func (m *Memory) Close() error {
	return nil
}

// Write stores the specified block data keyed by its height.
func (m *Memory) Write(data database.BlockData) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks[data.Height] = data

	return nil
}

// GetBlock returns the block data stored with the specified height.
func (m *Memory) GetBlock(height uint64) (database.BlockData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, exists := m.blocks[height]
	if !exists {
		return database.BlockData{}, fs.ErrNotExist
	}

	return data, nil
}

// ForEach returns an iterator to walk through all the blocks starting with
// the genesis block at height 0.
func (m *Memory) ForEach() database.Iterator {
	return &MemoryIterator{memory: m}
}

// Reset clears out all the blocks.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = make(map[uint64]database.BlockData)

	return nil
}

// =============================================================================

// MemoryIterator represents the iteration implementation for walking
// through the blocks in memory. This implements the database Iterator
// interface.
type MemoryIterator struct {
	memory  *Memory
	next    uint64
	started bool
	eoc     bool
}

// Next retrieves the next block from memory.
func (mi *MemoryIterator) Next() (database.BlockData, error) {
	if mi.eoc {
		return database.BlockData{}, errors.New("end of chain")
	}

	if mi.started {
		mi.next++
	}
	mi.started = true

	data, err := mi.memory.GetBlock(mi.next)
	if errors.Is(err, fs.ErrNotExist) {
		mi.eoc = true
	}

	return data, err
}

// Done returns the end of chain value.
func (mi *MemoryIterator) Done() bool {
	return mi.eoc
}
