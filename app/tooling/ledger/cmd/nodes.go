package cmd

import (
	"github.com/ardanlabs/reszka/foundation/blockchain/peer"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var key string

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "Work with the nodes registered on the master.",
}

var nodesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the registered nodes.",
	Args:  cobra.NoArgs,
	RunE:  nodesListRun,
}

var nodesRegisterCmd = &cobra.Command{
	Use:   "register <url>",
	Short: "Register a node with the master.",
	Args:  cobra.ExactArgs(1),
	RunE:  nodesRegisterRun,
}

func init() {
	nodesRegisterCmd.Flags().StringVarP(&key, "key", "k", "", "The network key.")
	if err := nodesRegisterCmd.MarkFlagRequired("key"); err != nil {
		panic(err)
	}

	nodesCmd.AddCommand(nodesListCmd)
	nodesCmd.AddCommand(nodesRegisterCmd)
	rootCmd.AddCommand(nodesCmd)
}

func nodesListRun(cmd *cobra.Command, args []string) error {
	var nodes []peer.Node
	if _, err := client().Get(cmd.Context(), endpoint("/nodes"), &nodes); err != nil {
		return err
	}

	if len(nodes) == 0 {
		pterm.Info.Println("no nodes registered")
		return nil
	}

	items := make([]pterm.BulletListItem, len(nodes))
	for i, node := range nodes {
		items[i] = pterm.BulletListItem{Level: 0, Text: node.URL}
	}

	return pterm.DefaultBulletList.WithItems(items).Render()
}

func nodesRegisterRun(cmd *cobra.Command, args []string) error {
	req := peer.RegisterRequest{
		Node: peer.New(args[0]),
		Key:  key,
	}

	if _, err := client().Post(cmd.Context(), endpoint("/nodes"), req, nil); err != nil {
		return err
	}

	pterm.Success.Printfln("registered %s", req.Node.URL)
	return nil
}
