package database

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/rblocklabs/rblock/foundation/blockchain/merkle"
	"github.com/rblocklabs/rblock/foundation/blockchain/signature"
)

// TransPerBlock is the fixed upper bound on the number of transactions a
// single block may carry. The reward transaction counts toward this limit;
// it is only exempt from signature verification.
const TransPerBlock = 5000

// MaxDifficulty is the all-ones nibble target. Every hash satisfies it, so
// the genesis block carries it and needs no mining.
const MaxDifficulty uint32 = 0xFFFFFFFF

// =============================================================================

// Block is the chained, hashable, mineable unit of the ledger. Every field
// that feeds the canonical message is unexported and mutated only through
// methods that re-derive the hash as their last step, so the stored hash
// always reflects the other fields.
type Block struct {
	height       uint64
	hash         string
	timestamp    uint64
	prevHash     string
	nonce        uint32
	difficulty   uint32
	merkelRoot   string
	transactions []BlockTx
}

// NewGenesisBlock constructs the first block of a chain: height 0, no
// predecessor, no transactions, and the maximal difficulty so its hash is
// trivially satisfying. No mining is required.
func NewGenesisBlock() Block {
	b := Block{
		timestamp:  uint64(time.Now().UTC().Unix()),
		difficulty: MaxDifficulty,
	}
	b.setHash()

	return b
}

// NewBlock constructs the successor of prev carrying the specified
// transactions in the given order. The difficulty is inherited from prev;
// use SetDifficulty when chain policy has changed. The block is not mined:
// drive IncrementAndHash against VerifyDifficulty to search for a
// satisfying nonce.
func NewBlock(prev Block, txs []BlockTx) Block {
	transactions := make([]BlockTx, len(txs))
	copy(transactions, txs)

	b := Block{
		height:       prev.height + 1,
		timestamp:    uint64(time.Now().UTC().Unix()),
		prevHash:     prev.hash,
		difficulty:   prev.difficulty,
		merkelRoot:   getMerkelRoot(transactions),
		transactions: transactions,
	}
	b.setHash()

	return b
}

// =============================================================================

// Height returns the block's distance from genesis.
func (b Block) Height() uint64 {
	return b.height
}

// Hash returns the current block hash.
func (b Block) Hash() string {
	return b.hash
}

// Timestamp returns the unix time the block was constructed. It never
// changes after construction; re-mining and reward attachment keep it.
func (b Block) Timestamp() uint64 {
	return b.timestamp
}

// PrevHash returns the hash of the block's predecessor. It is empty only
// for a genesis block.
func (b Block) PrevHash() string {
	return b.prevHash
}

// Nonce returns the current mining counter.
func (b Block) Nonce() uint32 {
	return b.nonce
}

// Difficulty returns the current nibble target word.
func (b Block) Difficulty() uint32 {
	return b.difficulty
}

// MerkelRoot returns the commitment over the block's transactions.
func (b Block) MerkelRoot() string {
	return b.merkelRoot
}

// Transactions returns a copy of the block's ordered transaction list.
func (b Block) Transactions() []BlockTx {
	txs := make([]BlockTx, len(b.transactions))
	copy(txs, b.transactions)

	return txs
}

// String implements the fmt.Stringer interface for logging.
func (b Block) String() string {
	return fmt.Sprintf("blk[%d] hash[%s] prev[%s] nonce[%d] diff[%08x] root[%s] txs[%d]",
		b.height, b.hash, b.prevHash, b.nonce, b.difficulty, b.merkelRoot, len(b.transactions))
}

// =============================================================================

// IncrementAndHash advances the nonce by one and re-derives the hash. This
// is the single discrete mining step: repeated calls interleaved with
// VerifyDifficulty constitute the proof of work search. The loop lives with
// the caller so mining can be parallelized, checkpointed, or rate limited.
//
// When the nonce is already at its maximum value the block is left untouched
// and ErrNonceExhausted is returned: the search space for this
// (height, prevHash, difficulty, merkelRoot) tuple is spent and only a
// change to the transaction set or the difficulty reopens it.
func (b *Block) IncrementAndHash() error {
	if b.nonce == math.MaxUint32 {
		return ErrNonceExhausted
	}

	b.nonce++
	b.setHash()

	return nil
}

// RewardMiner appends the one reward transaction a block may carry, paying
// the specified beneficiary, then recommits the merkel root and re-derives
// the hash. If a reward transaction is already present the block is left
// untouched and ErrRewardExists is returned.
func (b *Block) RewardMiner(chainID uint16, beneficiaryID AccountID, value uint64) error {
	for _, tx := range b.transactions {
		if tx.IsReward() {
			return ErrRewardExists
		}
	}

	b.transactions = append(b.transactions, NewRewardTx(chainID, beneficiaryID, value))
	b.merkelRoot = getMerkelRoot(b.transactions)
	b.setHash()

	return nil
}

// SetDifficulty replaces the difficulty target and re-derives the hash. It
// does not re-mine: if the new target is not already satisfied the caller
// must run the mining step again.
func (b *Block) SetDifficulty(difficulty uint32) {
	b.difficulty = difficulty
	b.setHash()
}

// =============================================================================

// VerifyHash recomputes the canonical digest and compares it to the stored
// hash. It detects tampering with any hashed field without needing to know
// which field changed.
func (b Block) VerifyHash() error {
	if b.hash != signature.HashText(b.message()) {
		return ErrHashMismatch
	}

	return nil
}

// VerifyTransactions validates every transaction carried by the block. The
// block is rejected when it exceeds the per-block limit, when it carries
// more than one reward transaction, or when any non-reward transaction
// fails signature verification. Reward transactions are exempt from the
// signature check but still count toward the limit.
func (b Block) VerifyTransactions() error {
	if len(b.transactions) > TransPerBlock {
		return fmt.Errorf("%w: got %d, limit %d", ErrTooManyTxs, len(b.transactions), TransPerBlock)
	}

	var rewards int
	for i, tx := range b.transactions {
		if tx.IsReward() {
			if rewards++; rewards > 1 {
				return fmt.Errorf("transaction %d: %w", i, ErrRewardExists)
			}
			continue
		}

		if err := tx.Validate(); err != nil {
			return fmt.Errorf("transaction %d [%s]: invalid signature: %w", i, tx, err)
		}
	}

	return nil
}

// ValidateBlock determines whether this block can be accepted as the
// successor of prev. It layers the chain linkage check and an independent
// merkel root recomputation on top of the block's own hash, difficulty, and
// transaction checks.
func (b Block) ValidateBlock(prev Block, evHandler func(v string, args ...any)) error {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	ev("database: ValidateBlock: blk[%d]: check: stored hash matches recomputed digest", b.height)

	if err := b.VerifyHash(); err != nil {
		return err
	}

	ev("database: ValidateBlock: blk[%d]: check: hash meets the difficulty target", b.height)

	if !VerifyDifficulty(b.hash, b.difficulty) {
		return fmt.Errorf("%w: hash %s, difficulty %08x", ErrDifficultyNotMet, b.hash, b.difficulty)
	}

	ev("database: ValidateBlock: blk[%d]: check: transactions are valid", b.height)

	if err := b.VerifyTransactions(); err != nil {
		return err
	}

	ev("database: ValidateBlock: blk[%d]: check: block height is the next height", b.height)

	if b.height != prev.height+1 {
		return fmt.Errorf("block is not the next height, got %d, exp %d", b.height, prev.height+1)
	}

	ev("database: ValidateBlock: blk[%d]: check: parent hash matches parent block", b.height)

	if b.prevHash != prev.hash {
		return fmt.Errorf("parent hash doesn't match our known parent, got %s, exp %s", b.prevHash, prev.hash)
	}

	// The block hash only commits to the merkel root, not the transaction
	// payloads themselves. Recomputing the root over the carried
	// transactions catches a payload swapped after the root was committed.
	ev("database: ValidateBlock: blk[%d]: check: merkel root matches transactions", b.height)

	if root := getMerkelRoot(b.transactions); root != b.merkelRoot {
		return fmt.Errorf("merkel root does not match transactions, got %s, exp %s", root, b.merkelRoot)
	}

	return nil
}

// =============================================================================

// VerifyDifficulty reports whether the hash satisfies the difficulty target.
// The last 8 hex characters of the hash (4 bytes, read big endian) are
// compared against the target one 4-bit nibble at a time: every hash nibble
// must not exceed the difficulty nibble in the same position. This is a
// per-nibble soft target, not a numeric less-than comparison and not
// leading-zero counting; it is kept nibble-for-nibble because changing it
// changes which hashes are valid.
//
// A difficulty of 0xFFFFFFFF accepts any hash. A difficulty of 0x00000000
// accepts only hashes whose last 4 bytes are all zero.
func VerifyDifficulty(hash string, difficulty uint32) bool {
	if len(hash) < 8 {
		return false
	}

	tail, err := strconv.ParseUint(hash[len(hash)-8:], 16, 32)
	if err != nil {
		return false
	}
	hashWord := uint32(tail)

	for shift := 0; shift <= 28; shift += 4 {
		hashNibble := (hashWord >> shift) & 0xf
		difficultyNibble := (difficulty >> shift) & 0xf

		if hashNibble > difficultyNibble {
			return false
		}
	}

	return true
}

// =============================================================================

// message builds the canonical text the block hash commits to. The field
// order is part of the chain format and must never change.
func (b Block) message() string {
	return fmt.Sprintf("%d%d%s%d%d%s",
		b.height,
		b.timestamp,
		b.prevHash,
		b.nonce,
		b.difficulty,
		b.merkelRoot)
}

// setHash re-derives the stored hash from the canonical message. Every
// mutation of a hashed field runs this as its last step.
func (b *Block) setHash() {
	b.hash = signature.HashText(b.message())
}

// getMerkelRoot computes the commitment over an ordered transaction list.
// The root is empty for an empty list, which only a genesis block carries.
func getMerkelRoot(txs []BlockTx) string {
	if len(txs) == 0 {
		return ""
	}

	tree, err := merkle.NewTree(txs)
	if err != nil {
		return ""
	}

	return tree.RootHex()
}

// =============================================================================

// BlockData is the unit written to and read from storage. It preserves
// every field exactly, including the stored hash and the transaction order,
// so tampering with a stored block is caught by VerifyHash and the merkel
// recomputation on the way back in. Blocks are keyed by height externally.
type BlockData struct {
	Height       uint64    `json:"height"`
	Hash         string    `json:"hash"`
	TimeStamp    uint64    `json:"timestamp"`
	PrevHash     string    `json:"prev_hash"`
	Nonce        uint32    `json:"nonce"`
	Difficulty   uint32    `json:"difficulty"`
	MerkelRoot   string    `json:"merkel_root"`
	Transactions []BlockTx `json:"transactions"`
}

// NewBlockData constructs the value to serialize to storage.
func NewBlockData(block Block) BlockData {
	return BlockData{
		Height:       block.height,
		Hash:         block.hash,
		TimeStamp:    block.timestamp,
		PrevHash:     block.prevHash,
		Nonce:        block.nonce,
		Difficulty:   block.difficulty,
		MerkelRoot:   block.merkelRoot,
		Transactions: block.Transactions(),
	}
}

// ToBlock reconstructs a block from its stored form. The stored fields are
// trusted as-is; run VerifyHash or ValidateBlock on the result to decide
// whether to accept it.
func ToBlock(data BlockData) Block {
	return Block{
		height:       data.Height,
		hash:         data.Hash,
		timestamp:    data.TimeStamp,
		prevHash:     data.PrevHash,
		nonce:        data.Nonce,
		difficulty:   data.Difficulty,
		merkelRoot:   data.MerkelRoot,
		transactions: data.Transactions,
	}
}
