package state

import (
	"fmt"

	"github.com/rblocklabs/rblock/foundation/blockchain/database"
)

// UpsertWalletTransaction accepts a transaction from a wallet for inclusion.
func (s *State) UpsertWalletTransaction(signedTx database.SignedTx) error {
	if err := s.validateTransaction(signedTx); err != nil {
		return err
	}

	tx := database.NewBlockTx(signedTx)

	if _, err := s.mempool.Upsert(tx); err != nil {
		return err
	}

	if s.Worker != nil {
		s.Worker.SignalStartMining()
	}

	return nil
}

// =============================================================================

// validateTransaction takes the signed transaction and validates it has
// a proper signature and other aspects of the data.
func (s *State) validateTransaction(signedTx database.SignedTx) error {
	if signedTx.IsReward() {
		return fmt.Errorf("reward transactions can't be submitted")
	}

	if signedTx.ChainID != s.genesis.ChainID {
		return fmt.Errorf("transaction is for chain %d, this chain is %d", signedTx.ChainID, s.genesis.ChainID)
	}

	if err := signedTx.Validate(); err != nil {
		return err
	}

	return nil
}
