package mempool_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rblocklabs/rblock/foundation/blockchain/database"
	"github.com/rblocklabs/rblock/foundation/blockchain/mempool"
)

const (
	pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	to       = database.AccountID("0xF01813E4B85e178A83e29B8E7bF26BD830a25f32")
	chainID  = uint16(1)
)

func signTx(t *testing.T, nonce uint64, value uint64, data []byte) database.BlockTx {
	t.Helper()

	pk, err := crypto.HexToECDSA(pkHexKey)
	require.NoError(t, err)

	tx, err := database.NewTx(chainID, nonce, to, value, data)
	require.NoError(t, err)

	signedTx, err := tx.Sign(pk)
	require.NoError(t, err)

	return database.NewBlockTx(signedTx)
}

func Test_UpsertDelete(t *testing.T) {
	mp, err := mempool.New()
	require.NoError(t, err)

	tx1 := signTx(t, 1, 100, nil)
	tx2 := signTx(t, 2, 50, nil)

	n, err := mp.Upsert(tx1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = mp.Upsert(tx2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Same account and nonce replaces, not grows.
	n, err = mp.Upsert(signTx(t, 1, 999, nil))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, mp.Delete(tx2))
	assert.Equal(t, 1, mp.Count())

	mp.Truncate()
	assert.Equal(t, 0, mp.Count())
}

func Test_RewardRejected(t *testing.T) {
	mp, err := mempool.New()
	require.NoError(t, err)

	_, err = mp.Upsert(database.NewRewardTx(chainID, to, 700))
	assert.Error(t, err)
	assert.Equal(t, 0, mp.Count())
}

func Test_PickBest(t *testing.T) {
	mp, err := mempool.New()
	require.NoError(t, err)

	for nonce := uint64(1); nonce <= 4; nonce++ {
		_, err := mp.Upsert(signTx(t, nonce, nonce*10, nil))
		require.NoError(t, err)
	}

	txs := mp.PickBest(2)
	require.Len(t, txs, 2)

	// Same timestamps, so the nonce decides the order.
	assert.Equal(t, uint64(1), txs[0].Nonce)
	assert.Equal(t, uint64(2), txs[1].Nonce)

	all := mp.PickBest(-1)
	assert.Len(t, all, 4)
	assert.Equal(t, 4, mp.Count(), "picking must not drain the pool")

	over := mp.PickBest(100)
	assert.Len(t, over, 4)
}

func Test_PickBestDeepCopy(t *testing.T) {
	mp, err := mempool.New()
	require.NoError(t, err)

	_, err = mp.Upsert(signTx(t, 1, 100, []byte{1, 2, 3}))
	require.NoError(t, err)

	picked := mp.PickBest(-1)
	require.Len(t, picked, 1)

	picked[0].Data[0] = 99

	again := mp.PickBest(-1)
	require.Len(t, again, 1)
	assert.Equal(t, byte(1), again[0].Data[0], "pooled transaction must not share payload memory")
}
