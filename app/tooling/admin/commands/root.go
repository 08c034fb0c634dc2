// Package commands contains the admin chain tooling.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rblocklabs/rblock/foundation/blockchain/database"
	"github.com/rblocklabs/rblock/foundation/blockchain/database/storage"
	"github.com/rblocklabs/rblock/foundation/blockchain/genesis"
)

var (
	dbPath      string
	genesisPath string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db-path", "d", "zblock/miner/", "Path to the chain storage directory.")
	rootCmd.PersistentFlags().StringVarP(&genesisPath, "genesis-path", "g", "zblock/genesis.json", "Path to the genesis file.")
}

var rootCmd = &cobra.Command{
	Use:   "admin",
	Short: "Chain administration tooling",
}

// Execute runs the admin tooling.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openChain loads the genesis file and replays the chain from storage.
func openChain() (genesis.Genesis, *database.Database, error) {
	gen, err := genesis.Load(genesisPath)
	if err != nil {
		return genesis.Genesis{}, nil, err
	}

	strg, err := storage.NewDisk(dbPath)
	if err != nil {
		return genesis.Genesis{}, nil, err
	}

	db, err := database.New(strg, nil)
	if err != nil {
		return genesis.Genesis{}, nil, err
	}

	return gen, db, nil
}
