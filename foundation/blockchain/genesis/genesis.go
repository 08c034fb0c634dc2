// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Genesis represents the chain parameters fixed at the birth of the chain.
type Genesis struct {
	Date          time.Time `json:"date"`
	ChainID       uint16    `json:"chain_id"`        // Unique id for this running instance.
	TransPerBlock uint16    `json:"trans_per_block"` // Maximum number of transactions in a block.
	Difficulty    uint32    `json:"difficulty"`      // Nibble target word a block hash must satisfy.
	MiningReward  uint64    `json:"mining_reward"`   // Reward for mining a block.
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("unable to decode genesis file: %w", err)
	}

	return genesis, nil
}
