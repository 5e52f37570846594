// Package cmd contains the ledger admin app.
package cmd

import (
	"os"
	"strings"
	"time"

	"github.com/ardanlabs/reszka/foundation/blockchain/rpc"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	url     string
	timeout time.Duration
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 2*time.Minute, "Time to wait for the node to respond.")
}

var rootCmd = &cobra.Command{
	Use:          "ledger",
	Short:        "Manage the blocks and nodes of a ledger network",
	SilenceUsage: true,
}

// Execute runs the command line and exits non zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func client() *rpc.Client {
	return rpc.NewClient(timeout)
}

func endpoint(path string) string {
	return strings.TrimSuffix(url, "/") + path
}
