// This program provides chain administration tooling: mining a block
// directly into storage, showing stored blocks, and verifying the chain.
package main

import "github.com/rblocklabs/rblock/app/tooling/admin/commands"

func main() {
	commands.Execute()
}
