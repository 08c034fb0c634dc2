package database

import "errors"

// Set of errors reported by block construction, mining, and validation.
// Validation failures are verdicts for the chain manager to act on, never
// reasons to stop the process.
var (
	// ErrNonceExhausted is returned by the mining step when the nonce is at
	// its maximum value. The block is left untouched; changing the
	// transaction set (and with it the merkel root) reopens the search space.
	ErrNonceExhausted = errors.New("nonce is at max value, mining is exhausted for this block")

	// ErrTooManyTxs is returned when a block carries more transactions than
	// the per-block limit allows.
	ErrTooManyTxs = errors.New("too many transactions in block")

	// ErrHashMismatch is returned when the stored hash does not match the
	// recomputed digest of the block's fields.
	ErrHashMismatch = errors.New("stored hash does not match the recomputed digest")

	// ErrDifficultyNotMet is returned when the block hash fails the
	// nibble-wise difficulty target.
	ErrDifficultyNotMet = errors.New("hash does not meet the difficulty target")

	// ErrRewardExists is returned when a reward transaction is added to a
	// block that already carries one.
	ErrRewardExists = errors.New("block already contains a reward transaction")
)
