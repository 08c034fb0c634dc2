package state_test

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rblocklabs/rblock/foundation/blockchain/database"
	"github.com/rblocklabs/rblock/foundation/blockchain/database/storage"
	"github.com/rblocklabs/rblock/foundation/blockchain/genesis"
	"github.com/rblocklabs/rblock/foundation/blockchain/state"
)

const (
	pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	miner    = database.AccountID("0xFef311483Cc040e1A89fb9bb469eeB8A70935EF8")
	to       = database.AccountID("0xF01813E4B85e178A83e29B8E7bF26BD830a25f32")
)

var testGenesis = genesis.Genesis{
	Date:          time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	ChainID:       1,
	TransPerBlock: 5000,
	Difficulty:    0x1FFFFFFF,
	MiningReward:  700,
}

// fakeWorker satisfies the state.Worker interface and records the signals
// the state sends it.
type fakeWorker struct {
	startSignals int
}

func (w *fakeWorker) Shutdown()           {}
func (w *fakeWorker) SignalStartMining()  { w.startSignals++ }
func (w *fakeWorker) SignalCancelMining() {}

func newState(t *testing.T) (*state.State, *fakeWorker) {
	t.Helper()

	strg, err := storage.NewMemory()
	require.NoError(t, err)

	st, err := state.New(state.Config{
		BeneficiaryID: miner,
		Genesis:       testGenesis,
		Storage:       strg,
	})
	require.NoError(t, err)

	w := fakeWorker{}
	st.Worker = &w

	return st, &w
}

func signTx(t *testing.T, nonce uint64, value uint64) database.SignedTx {
	t.Helper()

	pk, err := crypto.HexToECDSA(pkHexKey)
	require.NoError(t, err)

	tx, err := database.NewTx(testGenesis.ChainID, nonce, to, value, nil)
	require.NoError(t, err)

	signedTx, err := tx.Sign(pk)
	require.NoError(t, err)

	return signedTx
}

// =============================================================================

func Test_SubmitAndMine(t *testing.T) {
	st, w := newState(t)
	defer st.Shutdown()

	require.NoError(t, st.UpsertWalletTransaction(signTx(t, 1, 100)))
	require.NoError(t, st.UpsertWalletTransaction(signTx(t, 2, 50)))
	assert.Equal(t, 2, st.QueryMempoolLength())
	assert.Equal(t, 2, w.startSignals)

	block, err := st.MineNewBlock(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(1), block.Height())
	assert.Equal(t, testGenesis.Difficulty, block.Difficulty())
	assert.True(t, database.VerifyDifficulty(block.Hash(), block.Difficulty()))
	assert.Len(t, block.Transactions(), 3, "two wallet transactions plus the reward")

	assert.Equal(t, block.Hash(), st.RetrieveLatestBlock().Hash())
	assert.Equal(t, 0, st.QueryMempoolLength(), "mined transactions must leave the mempool")

	var rewards int
	for _, tx := range block.Transactions() {
		if tx.IsReward() {
			rewards++
			assert.Equal(t, miner, tx.ToID)
			assert.Equal(t, testGenesis.MiningReward, tx.Value)
		}
	}
	assert.Equal(t, 1, rewards)
}

func Test_MineEmptyMempool(t *testing.T) {
	st, _ := newState(t)
	defer st.Shutdown()

	_, err := st.MineNewBlock(context.Background())
	assert.ErrorIs(t, err, state.ErrNoTransactions)
}

func Test_MineCancelled(t *testing.T) {
	st, _ := newState(t)
	defer st.Shutdown()

	require.NoError(t, st.UpsertWalletTransaction(signTx(t, 1, 100)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := st.MineNewBlock(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, uint64(0), st.RetrieveLatestBlock().Height(), "tip must not move on a cancelled mine")
	assert.Equal(t, 1, st.QueryMempoolLength(), "transaction must stay pooled on a cancelled mine")
}

func Test_SubmitRejections(t *testing.T) {
	st, _ := newState(t)
	defer st.Shutdown()

	// Reward transactions never enter through the wallet path.
	reward := database.NewRewardTx(testGenesis.ChainID, miner, testGenesis.MiningReward)
	assert.Error(t, st.UpsertWalletTransaction(reward.SignedTx))

	// A transaction for another chain is refused.
	pk, err := crypto.HexToECDSA(pkHexKey)
	require.NoError(t, err)

	tx, err := database.NewTx(99, 1, to, 100, nil)
	require.NoError(t, err)

	otherChain, err := tx.Sign(pk)
	require.NoError(t, err)
	assert.Error(t, st.UpsertWalletTransaction(otherChain))

	assert.Equal(t, 0, st.QueryMempoolLength())
}

func Test_QueryBlocksByAccount(t *testing.T) {
	st, _ := newState(t)
	defer st.Shutdown()

	require.NoError(t, st.UpsertWalletTransaction(signTx(t, 1, 100)))

	_, err := st.MineNewBlock(context.Background())
	require.NoError(t, err)

	all, err := st.QueryBlocksByAccount("")
	require.NoError(t, err)
	assert.Len(t, all, 2, "genesis plus the mined block")

	mined, err := st.QueryBlocksByAccount(to)
	require.NoError(t, err)
	require.Len(t, mined, 1)
	assert.Equal(t, uint64(1), mined[0].Height())

	none, err := st.QueryBlocksByAccount(database.AccountID("0x00000000000000000000000000000000000000FF"))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func Test_Truncate(t *testing.T) {
	st, _ := newState(t)
	defer st.Shutdown()

	require.NoError(t, st.UpsertWalletTransaction(signTx(t, 1, 100)))

	_, err := st.MineNewBlock(context.Background())
	require.NoError(t, err)

	require.NoError(t, st.UpsertWalletTransaction(signTx(t, 2, 50)))

	require.NoError(t, st.Truncate())

	assert.Equal(t, uint64(0), st.RetrieveLatestBlock().Height())
	assert.Equal(t, 0, st.QueryMempoolLength())
}
