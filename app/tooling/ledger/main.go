// This program performs administrative tasks against a running ledger node.
package main

import "github.com/ardanlabs/reszka/app/tooling/ledger/cmd"

func main() {
	cmd.Execute()
}
