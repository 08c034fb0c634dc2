package public

import (
	"math/big"

	"github.com/rblocklabs/rblock/foundation/blockchain/database"
)

// newTx is the request model a wallet submits for inclusion in the chain.
type newTx struct {
	ChainID uint16   `json:"chain_id" validate:"required"`
	Nonce   uint64   `json:"nonce" validate:"required"`
	To      string   `json:"to" validate:"required"`
	Value   uint64   `json:"value" validate:"required"`
	Data    []byte   `json:"data"`
	V       *big.Int `json:"v" validate:"required"`
	R       *big.Int `json:"r" validate:"required"`
	S       *big.Int `json:"s" validate:"required"`
}

// toSignedTx converts the request model into the database transaction.
func toSignedTx(app newTx) database.SignedTx {
	return database.SignedTx{
		Tx: database.Tx{
			ChainID: app.ChainID,
			Nonce:   app.Nonce,
			ToID:    database.AccountID(app.To),
			Value:   app.Value,
			Data:    app.Data,
		},
		V: app.V,
		R: app.R,
		S: app.S,
	}
}

// tx is the view model for a transaction carried by a block or sitting in
// the mempool.
type tx struct {
	FromAccount database.AccountID `json:"from"`
	To          database.AccountID `json:"to"`
	ChainID     uint16             `json:"chain_id"`
	Nonce       uint64             `json:"nonce"`
	Value       uint64             `json:"value"`
	Data        []byte             `json:"data"`
	TimeStamp   uint64             `json:"timestamp"`
	Sig         string             `json:"sig"`
}

// block is the view model for a block in the chain.
type block struct {
	Height       uint64 `json:"height"`
	Hash         string `json:"hash"`
	PrevHash     string `json:"prev_hash"`
	TimeStamp    uint64 `json:"timestamp"`
	Nonce        uint32 `json:"nonce"`
	Difficulty   uint32 `json:"difficulty"`
	MerkelRoot   string `json:"merkel_root"`
	Transactions []tx   `json:"transactions"`
}

// toViewTx converts a block transaction into its view model.
func toViewTx(blockTx database.BlockTx) tx {
	account, _ := blockTx.FromAccount()

	return tx{
		FromAccount: account,
		To:          blockTx.ToID,
		ChainID:     blockTx.ChainID,
		Nonce:       blockTx.Nonce,
		Value:       blockTx.Value,
		Data:        blockTx.Data,
		TimeStamp:   blockTx.TimeStamp,
		Sig:         blockTx.SignatureString(),
	}
}

// toViewBlock converts a chain block into its view model.
func toViewBlock(blk database.Block) block {
	blockTxs := blk.Transactions()

	trans := make([]tx, len(blockTxs))
	for i, blockTx := range blockTxs {
		trans[i] = toViewTx(blockTx)
	}

	return block{
		Height:       blk.Height(),
		Hash:         blk.Hash(),
		PrevHash:     blk.PrevHash(),
		TimeStamp:    blk.Timestamp(),
		Nonce:        blk.Nonce(),
		Difficulty:   blk.Difficulty(),
		MerkelRoot:   blk.MerkelRoot(),
		Transactions: trans,
	}
}
