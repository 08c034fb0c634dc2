// Package mempool maintains the mempool for the blockchain.
package mempool

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jinzhu/copier"

	"github.com/rblocklabs/rblock/foundation/blockchain/database"
)

// Mempool represents a cache of transactions waiting to be mined into a
// block, organized by account:nonce. A new transaction from the same account
// with the same nonce replaces the old one.
type Mempool struct {
	mu   sync.RWMutex
	pool map[string]database.BlockTx
}

// New constructs a new mempool for use.
func New() (*Mempool, error) {
	mp := Mempool{
		pool: make(map[string]database.BlockTx),
	}

	return &mp, nil
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds or replaces a transaction in the mempool. Reward transactions
// never enter the pool; the miner attaches its own when building a block.
func (mp *Mempool) Upsert(tx database.BlockTx) (int, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if tx.IsReward() {
		return 0, errors.New("reward transactions don't belong in the mempool")
	}

	key, err := mapKey(tx)
	if err != nil {
		return 0, err
	}

	mp.pool[key] = tx

	return len(mp.pool), nil
}

// Delete removes a transaction from the mempool.
func (mp *Mempool) Delete(tx database.BlockTx) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	key, err := mapKey(tx)
	if err != nil {
		return err
	}

	delete(mp.pool, key)

	return nil
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]database.BlockTx)
}

// PickBest returns at most howMany transactions for the next block, oldest
// first with the account nonce as the tiebreaker. Pass -1 to take the whole
// pool. The returned transactions are deep copies so the caller can't reach
// back into the pool through shared payload slices.
func (mp *Mempool) PickBest(howMany int) []database.BlockTx {
	var txs []database.BlockTx

	mp.mu.RLock()
	{
		if howMany == -1 || howMany > len(mp.pool) {
			howMany = len(mp.pool)
		}

		txs = make([]database.BlockTx, 0, len(mp.pool))
		for _, tx := range mp.pool {
			txs = append(txs, tx)
		}
	}
	mp.mu.RUnlock()

	sort.Slice(txs, func(i, j int) bool {
		if txs[i].TimeStamp != txs[j].TimeStamp {
			return txs[i].TimeStamp < txs[j].TimeStamp
		}
		return txs[i].Nonce < txs[j].Nonce
	})
	txs = txs[:howMany]

	cpy := make([]database.BlockTx, len(txs))
	for i, tx := range txs {
		if err := copier.CopyWithOption(&cpy[i], &tx, copier.Option{DeepCopy: true}); err != nil {
			cpy[i] = tx
		}
	}

	return cpy
}

// =============================================================================

// mapKey is used to generate the map key.
func mapKey(tx database.BlockTx) (string, error) {
	account, err := tx.FromAccount()
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s:%d", account, tx.Nonce), nil
}
