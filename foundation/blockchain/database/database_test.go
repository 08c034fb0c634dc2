package database_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/rblocklabs/rblock/foundation/blockchain/database"
	"github.com/rblocklabs/rblock/foundation/blockchain/database/storage"
)

func newDatabase(t *testing.T) (*database.Database, database.Storage) {
	t.Helper()

	strg, err := storage.NewMemory()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct memory storage: %s", failed, err)
	}

	db, err := database.New(strg, nil)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the database: %s", failed, err)
	}

	return db, strg
}

func mineBlock(t *testing.T, db *database.Database, txs []database.BlockTx) database.Block {
	t.Helper()

	block := database.NewBlock(db.LatestBlock(), txs)
	if err := block.RewardMiner(chainID, miner, reward); err != nil {
		t.Fatalf("\t%s\tShould be able to attach the reward: %s", failed, err)
	}

	for !database.VerifyDifficulty(block.Hash(), block.Difficulty()) {
		if err := block.IncrementAndHash(); err != nil {
			t.Fatalf("\t%s\tShould be able to keep stepping the nonce: %s", failed, err)
		}
	}

	return block
}

// =============================================================================

func Test_DatabaseGenesis(t *testing.T) {
	t.Log("Given the need to start a chain from empty storage.")
	{
		db, strg := newDatabase(t)
		defer db.Close()

		latest := db.LatestBlock()
		if latest.Height() != 0 || latest.PrevHash() != "" {
			t.Fatalf("\t%s\tShould sit on a genesis block tip.", failed)
		}
		t.Logf("\t%s\tShould sit on a genesis block tip.", success)

		data, err := strg.GetBlock(0)
		if err != nil {
			t.Fatalf("\t%s\tShould have persisted the genesis block: %s", failed, err)
		}
		if data.Hash != latest.Hash() {
			t.Fatalf("\t%s\tShould have persisted the tip's hash.", failed)
		}
		t.Logf("\t%s\tShould have persisted the genesis block.", success)
	}
}

func Test_DatabaseAcceptBlock(t *testing.T) {
	t.Log("Given the need to grow the chain one validated block at a time.")
	{
		db, _ := newDatabase(t)
		defer db.Close()

		block1 := mineBlock(t, db, []database.BlockTx{signTx(t, 1, 100)})
		if err := db.AcceptBlock(block1); err != nil {
			t.Fatalf("\t%s\tShould accept a mined successor: %s", failed, err)
		}
		t.Logf("\t%s\tShould accept a mined successor.", success)

		if db.LatestBlock().Hash() != block1.Hash() {
			t.Fatalf("\t%s\tShould advance the tip to the accepted block.", failed)
		}
		t.Logf("\t%s\tShould advance the tip to the accepted block.", success)

		block2 := mineBlock(t, db, []database.BlockTx{signTx(t, 2, 50)})
		if err := db.AcceptBlock(block2); err != nil {
			t.Fatalf("\t%s\tShould accept a second successor: %s", failed, err)
		}
		t.Logf("\t%s\tShould accept a second successor.", success)

		// block1 no longer chains off the tip.
		if err := db.AcceptBlock(block1); err == nil {
			t.Fatalf("\t%s\tShould reject a block that doesn't chain off the tip.", failed)
		}
		t.Logf("\t%s\tShould reject a block that doesn't chain off the tip.", success)

		got, err := db.GetBlock(1)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to read a block back by height: %s", failed, err)
		}
		if got.Hash() != block1.Hash() {
			t.Fatalf("\t%s\tShould read back the exact block that was accepted.", failed)
		}
		t.Logf("\t%s\tShould read back the exact block that was accepted.", success)
	}
}

func Test_DatabaseRejectTampered(t *testing.T) {
	t.Log("Given the need to refuse a tampered block at the door.")
	{
		db, _ := newDatabase(t)
		defer db.Close()

		block := mineBlock(t, db, []database.BlockTx{signTx(t, 1, 100)})

		data := database.NewBlockData(block)
		data.Transactions[0].Value += 1
		tampered := database.ToBlock(data)

		if err := db.AcceptBlock(tampered); err == nil {
			t.Fatalf("\t%s\tShould reject the tampered block.", failed)
		}
		t.Logf("\t%s\tShould reject the tampered block.", success)

		if db.LatestBlock().Height() != 0 {
			t.Fatalf("\t%s\tShould leave the tip where it was.", failed)
		}
		t.Logf("\t%s\tShould leave the tip where it was.", success)
	}
}

func Test_DatabaseReplay(t *testing.T) {
	t.Log("Given the need to rebuild the chain state from storage.")
	{
		db, strg := newDatabase(t)

		block1 := mineBlock(t, db, []database.BlockTx{signTx(t, 1, 100)})
		if err := db.AcceptBlock(block1); err != nil {
			t.Fatalf("\t%s\tShould accept the first successor: %s", failed, err)
		}

		block2 := mineBlock(t, db, []database.BlockTx{signTx(t, 2, 50)})
		if err := db.AcceptBlock(block2); err != nil {
			t.Fatalf("\t%s\tShould accept the second successor: %s", failed, err)
		}
		db.Close()

		db2, err := database.New(strg, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to replay the chain from storage: %s", failed, err)
		}
		defer db2.Close()
		t.Logf("\t%s\tShould be able to replay the chain from storage.", success)

		if db2.LatestBlock().Hash() != block2.Hash() {
			t.Fatalf("\t%s\tShould land on the same tip after the replay.", failed)
		}
		t.Logf("\t%s\tShould land on the same tip after the replay.", success)

		var heights []uint64
		iter := db2.ForEach()
		for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
			if err != nil {
				t.Fatalf("\t%s\tShould be able to iterate the chain: %s", failed, err)
			}
			heights = append(heights, block.Height())
		}
		if len(heights) != 3 || heights[0] != 0 || heights[2] != 2 {
			t.Fatalf("\t%s\tShould iterate every block in height order: got %v", failed, heights)
		}
		t.Logf("\t%s\tShould iterate every block in height order.", success)
	}
}

func Test_DatabaseReplayCorrupt(t *testing.T) {
	t.Log("Given the need to refuse a corrupted chain at startup.")
	{
		db, strg := newDatabase(t)

		block1 := mineBlock(t, db, []database.BlockTx{signTx(t, 1, 100)})
		if err := db.AcceptBlock(block1); err != nil {
			t.Fatalf("\t%s\tShould accept the successor: %s", failed, err)
		}
		db.Close()

		// Corrupt the stored block behind the database's back.
		data, err := strg.GetBlock(1)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to read the stored block: %s", failed, err)
		}
		data.Nonce++
		if err := strg.Write(data); err != nil {
			t.Fatalf("\t%s\tShould be able to overwrite the stored block: %s", failed, err)
		}

		if _, err := database.New(strg, nil); err == nil {
			t.Fatalf("\t%s\tShould refuse to start on the corrupted chain.", failed)
		}
		t.Logf("\t%s\tShould refuse to start on the corrupted chain.", success)
	}
}

func Test_DatabaseReset(t *testing.T) {
	t.Log("Given the need to wipe the chain and start over.")
	{
		db, _ := newDatabase(t)
		defer db.Close()

		block1 := mineBlock(t, db, []database.BlockTx{signTx(t, 1, 100)})
		if err := db.AcceptBlock(block1); err != nil {
			t.Fatalf("\t%s\tShould accept the successor: %s", failed, err)
		}

		if err := db.Reset(); err != nil {
			t.Fatalf("\t%s\tShould be able to reset the chain: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to reset the chain.", success)

		if db.LatestBlock().Height() != 0 {
			t.Fatalf("\t%s\tShould sit on a fresh genesis tip after the reset.", failed)
		}
		t.Logf("\t%s\tShould sit on a fresh genesis tip after the reset.", success)

		if _, err := db.GetBlock(1); err == nil {
			t.Fatalf("\t%s\tShould no longer find the old successor.", failed)
		}
		t.Logf("\t%s\tShould no longer find the old successor.", success)
	}
}

func Test_DiskStorage(t *testing.T) {
	t.Log("Given the need to persist blocks as one file per height.")
	{
		strg, err := storage.NewDisk(t.TempDir())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct disk storage: %s", failed, err)
		}
		defer strg.Close()

		db, err := database.New(strg, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the database: %s", failed, err)
		}
		defer db.Close()

		block1 := mineBlock(t, db, []database.BlockTx{signTx(t, 1, 100)})
		if err := db.AcceptBlock(block1); err != nil {
			t.Fatalf("\t%s\tShould accept the successor: %s", failed, err)
		}
		t.Logf("\t%s\tShould accept the successor.", success)

		db2, err := database.New(strg, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to replay the chain from disk: %s", failed, err)
		}
		defer db2.Close()

		if db2.LatestBlock().Hash() != block1.Hash() {
			t.Fatalf("\t%s\tShould land on the same tip after the disk replay.", failed)
		}
		t.Logf("\t%s\tShould land on the same tip after the disk replay.", success)
	}
}

func Test_AccountIDConversions(t *testing.T) {
	t.Log("Given the need to derive account ids from keys.")
	{
		pk, err := crypto.HexToECDSA(pkHexKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to parse the private key: %s", failed, err)
		}

		accountID := database.PublicKeyToAccountID(pk.PublicKey)
		if !accountID.IsAccountID() {
			t.Fatalf("\t%s\tShould derive a well-formed account id: got %s", failed, accountID)
		}
		t.Logf("\t%s\tShould derive a well-formed account id.", success)

		if _, err := database.ToAccountID(string(accountID)); err != nil {
			t.Fatalf("\t%s\tShould round-trip through ToAccountID: %s", failed, err)
		}
		t.Logf("\t%s\tShould round-trip through ToAccountID.", success)

		if _, err := database.ToAccountID("not-an-account"); err == nil {
			t.Fatalf("\t%s\tShould reject a malformed account id.", failed)
		}
		t.Logf("\t%s\tShould reject a malformed account id.", success)
	}
}
