// Package storage implements the database.Storage interface for reading and
// storing blocks on disk and in memory.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strconv"

	"github.com/rblocklabs/rblock/foundation/blockchain/database"
)

// Disk represents the serialization implementation for reading and storing
// blocks in their own separate files on disk. Each block lives in a JSON
// file named by its height, so height is the storage key.
type Disk struct {
	dbPath string
}

// NewDisk constructs a Disk value for use, creating the data directory when
// it doesn't exist yet.
func NewDisk(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, err
	}

	return &Disk{dbPath: dbPath}, nil
}

// Close in this implementation has nothing to do since a new file is
// written to disk for each new block and then immediately closed.
func (d *Disk) Close() error {
	return nil
}

// Write takes the specified block data and stores it on disk in a file
// labeled with the block height.
func (d *Disk) Write(data database.BlockData) error {

	// Marshal the block for writing to disk in a more human readable format.
	doc, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	// Create a new file for this block and name it based on the block height.
	f, err := os.OpenFile(d.getPath(data.Height), os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	// Write the new block to disk.
	if _, err := f.Write(doc); err != nil {
		return err
	}

	return nil
}

// GetBlock searches the blockchain on disk to locate and return the
// contents of the block stored with the specified height.
func (d *Disk) GetBlock(height uint64) (database.BlockData, error) {

	// Open the block file for the specified height.
	f, err := os.OpenFile(d.getPath(height), os.O_RDONLY, 0600)
	if err != nil {
		return database.BlockData{}, err
	}
	defer f.Close()

	// Decode the contents of the block.
	var data database.BlockData
	if err := json.NewDecoder(f).Decode(&data); err != nil {
		return database.BlockData{}, err
	}

	return data, nil
}

// ForEach returns an iterator to walk through all the blocks starting with
// the genesis block at height 0.
func (d *Disk) ForEach() database.Iterator {
	return &DiskIterator{disk: d}
}

// Reset clears out the blockchain on disk.
func (d *Disk) Reset() error {
	if err := os.RemoveAll(d.dbPath); err != nil {
		return err
	}

	return os.MkdirAll(d.dbPath, 0755)
}

// getPath forms the path to the file for the specified block.
func (d *Disk) getPath(height uint64) string {
	name := strconv.FormatUint(height, 10)
	return path.Join(d.dbPath, fmt.Sprintf("%s.json", name))
}

// =============================================================================

// DiskIterator represents the iteration implementation for walking through
// and reading blocks on disk. This implements the database Iterator
// interface.
type DiskIterator struct {
	disk    *Disk  // Access to the disk storage API.
	next    uint64 // Height of the next block to read.
	started bool   // The first read returns the genesis block at height 0.
	eoc     bool   // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from disk.
func (di *DiskIterator) Next() (database.BlockData, error) {
	if di.eoc {
		return database.BlockData{}, errors.New("end of chain")
	}

	if di.started {
		di.next++
	}
	di.started = true

	data, err := di.disk.GetBlock(di.next)
	if errors.Is(err, fs.ErrNotExist) {
		di.eoc = true
	}

	return data, err
}

// Done returns the end of chain value.
func (di *DiskIterator) Done() bool {
	return di.eoc
}
