package commands

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rblocklabs/rblock/foundation/blockchain/database"
)

func init() {
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show [height]",
	Short: "Show the block stored at the specified height",
	Args:  cobra.ExactArgs(1),
	RunE:  showRun,
}

func showRun(cmd *cobra.Command, args []string) error {
	height, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("height must be a non-negative number: %w", err)
	}

	_, db, err := openChain()
	if err != nil {
		return err
	}
	defer db.Close()

	block, err := db.GetBlock(height)
	if err != nil {
		return err
	}

	doc, err := json.MarshalIndent(database.NewBlockData(block), "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(doc))

	return nil
}
