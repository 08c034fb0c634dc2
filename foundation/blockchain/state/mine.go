package state

import (
	"context"
	"errors"

	"github.com/rblocklabs/rblock/foundation/blockchain/database"
)

// ErrNoTransactions is returned when a block is requested to be created
// and there are not enough transactions.
var ErrNoTransactions = errors.New("no transactions in mempool")

// =============================================================================

// MineNewBlock attempts to create a new block with a proper hash that can
// become the next block in the chain.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: check mempool count")

	// Are there enough transactions in the pool.
	if s.mempool.Count() == 0 {
		return database.Block{}, ErrNoTransactions
	}

	s.evHandler("state: MineNewBlock: MINING: create new block")

	// Pick the best transactions, leaving room for the reward transaction
	// which counts toward the per-block limit.
	trans := s.mempool.PickBest(int(s.genesis.TransPerBlock) - 1)

	block := database.NewBlock(s.db.LatestBlock(), trans)

	if err := block.RewardMiner(s.genesis.ChainID, s.beneficiaryID, s.genesis.MiningReward); err != nil {
		return database.Block{}, err
	}

	// The block inherits its parent's difficulty. Apply the configured
	// difficulty when chain policy differs.
	if block.Difficulty() != s.genesis.Difficulty {
		block.SetDifficulty(s.genesis.Difficulty)
	}

	s.evHandler("state: MineNewBlock: MINING: perform POW")

	// Attempt to solve the POW puzzle. This can be cancelled.
	if err := performPOW(ctx, &block, s.evHandler); err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: MineNewBlock: MINING: update local state")

	if err := s.db.AcceptBlock(block); err != nil {
		return database.Block{}, err
	}

	// Remove the mined transactions from the mempool.
	for _, tx := range block.Transactions() {
		if tx.IsReward() {
			continue
		}

		s.evHandler("state: MineNewBlock: MINING: tx[%s] remove from mempool", tx)
		s.mempool.Delete(tx)
	}

	return block, nil
}

// =============================================================================

// performPOW drives the discrete mining step until the block hash satisfies
// the difficulty target. A block whose hash already satisfies the target
// needs no steps. When the nonce space for this block is spent the search
// surfaces ErrNonceExhausted; only a change to the transaction set or the
// difficulty reopens it.
func performPOW(ctx context.Context, block *database.Block, ev EventHandler) error {
	var attempts uint64

	for !database.VerifyDifficulty(block.Hash(), block.Difficulty()) {
		if attempts%1_000_000 == 0 && attempts > 0 {
			ev("state: performPOW: MINING: attempts[%d]", attempts)
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if err := block.IncrementAndHash(); err != nil {
			return err
		}
		attempts++
	}

	ev("state: performPOW: MINING: SOLVED: nonce[%d] hash[%s]", block.Nonce(), block.Hash())

	return nil
}
