package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rblocklabs/rblock/foundation/blockchain/database"
)

var beneficiary string

func init() {
	mineCmd.Flags().StringVarP(&beneficiary, "beneficiary", "b", "", "Account to credit with the mining reward.")
	mineCmd.MarkFlagRequired("beneficiary")
	rootCmd.AddCommand(mineCmd)
}

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Mine an empty block carrying only the reward transaction",
	RunE:  mineRun,
}

func mineRun(cmd *cobra.Command, args []string) error {
	beneficiaryID, err := database.ToAccountID(beneficiary)
	if err != nil {
		return fmt.Errorf("unable to use beneficiary account: %w", err)
	}

	gen, db, err := openChain()
	if err != nil {
		return err
	}
	defer db.Close()

	block := database.NewBlock(db.LatestBlock(), nil)

	if err := block.RewardMiner(gen.ChainID, beneficiaryID, gen.MiningReward); err != nil {
		return err
	}

	if block.Difficulty() != gen.Difficulty {
		block.SetDifficulty(gen.Difficulty)
	}

	for !database.VerifyDifficulty(block.Hash(), block.Difficulty()) {
		if err := block.IncrementAndHash(); err != nil {
			return err
		}
	}

	if err := db.AcceptBlock(block); err != nil {
		return err
	}

	fmt.Printf("mined block %d: nonce[%d] hash[%s]\n", block.Height(), block.Nonce(), block.Hash())

	return nil
}
