package state

import (
	"github.com/rblocklabs/rblock/foundation/blockchain/database"
)

// QueryMempoolLength returns the current number of transactions in the
// mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryBlockByHeight returns the block stored with the specified height.
func (s *State) QueryBlockByHeight(height uint64) (database.Block, error) {
	return s.db.GetBlock(height)
}

// QueryBlocksByAccount returns the set of blocks that carry transactions
// involving the specified account. Pass the zero value account to get all
// the blocks in the chain.
func (s *State) QueryBlocksByAccount(accountID database.AccountID) ([]database.Block, error) {
	var blocks []database.Block

	iter := s.db.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		if accountID == "" {
			blocks = append(blocks, block)
			continue
		}

		for _, tx := range block.Transactions() {
			from, err := tx.FromAccount()
			if err != nil {
				continue
			}

			if from == accountID || tx.ToID == accountID {
				blocks = append(blocks, block)
				break
			}
		}
	}

	return blocks, nil
}
