package database

import (
	"bytes"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/rblocklabs/rblock/foundation/blockchain/signature"
)

// Tx is the transactional information between two parties.
type Tx struct {
	ChainID uint16    `json:"chain_id"` // The chain the transaction is intended for.
	Nonce   uint64    `json:"nonce"`    // Unique id for the transaction supplied by the sender.
	ToID    AccountID `json:"to"`       // Account receiving the benefit of the transaction.
	Value   uint64    `json:"value"`    // Monetary value received from this transaction.
	Data    []byte    `json:"data"`     // Extra data related to the transaction.
}

// NewTx constructs a new transaction.
func NewTx(chainID uint16, nonce uint64, toID AccountID, value uint64, data []byte) (Tx, error) {
	if !toID.IsAccountID() {
		return Tx{}, fmt.Errorf("to account is not properly formatted")
	}

	tx := Tx{
		ChainID: chainID,
		Nonce:   nonce,
		ToID:    toID,
		Value:   value,
		Data:    data,
	}

	return tx, nil
}

// Sign uses the specified private key to sign the transaction.
func (tx Tx) Sign(privateKey *ecdsa.PrivateKey) (SignedTx, error) {

	// Validate the to account address is a valid address.
	if !tx.ToID.IsAccountID() {
		return SignedTx{}, fmt.Errorf("to account is not properly formatted")
	}

	// Sign the transaction with the private key to produce a signature.
	v, r, s, err := signature.Sign(tx, privateKey)
	if err != nil {
		return SignedTx{}, err
	}

	// Construct the signed transaction by adding the signature
	// in the [R|S|V] format.
	signedTx := SignedTx{
		Tx: tx,
		V:  v,
		R:  r,
		S:  s,
	}

	return signedTx, nil
}

// =============================================================================

// SignedTx is a signed version of the transaction. This is how clients like
// a wallet provide transactions for inclusion into the blockchain. A mining
// reward transaction carries no signature at all; its sender is the zero
// account.
type SignedTx struct {
	Tx
	V *big.Int `json:"v"` // Recovery identifier, either 31 or 32 with rblockID.
	R *big.Int `json:"r"` // First coordinate of the ECDSA signature.
	S *big.Int `json:"s"` // Second coordinate of the ECDSA signature.
}

// IsReward reports whether this transaction is an unsigned mining reward.
func (tx SignedTx) IsReward() bool {
	return tx.V == nil && tx.R == nil && tx.S == nil
}

// Validate verifies the transaction has a proper signature that conforms to
// our standards and is associated with the data claimed to be signed. It
// also checks the format of the to account.
func (tx SignedTx) Validate() error {
	if !tx.ToID.IsAccountID() {
		return fmt.Errorf("invalid account for to account")
	}

	if tx.IsReward() {
		return nil
	}

	if err := signature.VerifySignature(tx.Tx, tx.V, tx.R, tx.S); err != nil {
		return err
	}

	return nil
}

// FromAccount extracts the account id that signed the transaction. For a
// reward transaction the sender is the zero account.
func (tx SignedTx) FromAccount() (AccountID, error) {
	if tx.IsReward() {
		return ZeroAccountID, nil
	}

	address, err := signature.FromAddress(tx.Tx, tx.V, tx.R, tx.S)
	return AccountID(address), err
}

// SignatureString returns the signature as a string.
func (tx SignedTx) SignatureString() string {
	if tx.IsReward() {
		return ""
	}

	return signature.SignatureString(tx.V, tx.R, tx.S)
}

// String implements the fmt.Stringer interface for logging.
func (tx SignedTx) String() string {
	from, err := tx.FromAccount()
	if err != nil {
		from = "unknown"
	}

	return fmt.Sprintf("%s:%d", from, tx.Nonce)
}

// =============================================================================

// BlockTx represents the transaction as it's recorded inside a block.
type BlockTx struct {
	SignedTx
	TimeStamp uint64 `json:"timestamp"` // The time the transaction was received.
}

// NewBlockTx constructs a new block transaction.
func NewBlockTx(signedTx SignedTx) BlockTx {
	return BlockTx{
		SignedTx:  signedTx,
		TimeStamp: uint64(time.Now().UTC().Unix()),
	}
}

// NewRewardTx constructs the unsigned transaction that pays the mining
// reward to the specified beneficiary. Its sender is the zero account.
func NewRewardTx(chainID uint16, beneficiaryID AccountID, value uint64) BlockTx {
	return BlockTx{
		SignedTx: SignedTx{
			Tx: Tx{
				ChainID: chainID,
				ToID:    beneficiaryID,
				Value:   value,
			},
		},
		TimeStamp: uint64(time.Now().UTC().Unix()),
	}
}

// Hash implements the merkle Hashable interface for providing a hash
// of a block transaction.
func (tx BlockTx) Hash() ([]byte, error) {
	return hexutil.Decode(signature.Hash(tx))
}

// Equals implements the merkle Hashable interface for providing an equality
// check between two block transactions.
func (tx BlockTx) Equals(otherTx BlockTx) bool {
	if tx.IsReward() || otherTx.IsReward() {
		return tx.IsReward() == otherTx.IsReward() &&
			tx.ToID == otherTx.ToID &&
			tx.Nonce == otherTx.Nonce &&
			tx.TimeStamp == otherTx.TimeStamp
	}

	txSig := signature.ToSignatureBytes(tx.V, tx.R, tx.S)
	otherTxSig := signature.ToSignatureBytes(otherTx.V, otherTx.R, otherTx.S)

	return tx.Nonce == otherTx.Nonce && bytes.Equal(txSig, otherTxSig)
}
