package cmd

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/ardanlabs/reszka/foundation/blockchain/database"
	"github.com/ardanlabs/reszka/foundation/blockchain/propagator"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var blocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "Work with the blocks on a node.",
}

var blocksListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the chain held by the node.",
	Args:  cobra.NoArgs,
	RunE:  blocksListRun,
}

var blocksCreateCmd = &cobra.Command{
	Use:   "create <content>",
	Short: "Mine the content into a new block.",
	Args:  cobra.ExactArgs(1),
	RunE:  blocksCreateRun,
}

func init() {
	blocksCmd.AddCommand(blocksListCmd)
	blocksCmd.AddCommand(blocksCreateCmd)
	rootCmd.AddCommand(blocksCmd)
}

func blocksListRun(cmd *cobra.Command, args []string) error {
	var blocks []database.Block
	if _, err := client().Get(cmd.Context(), endpoint("/blocks"), &blocks); err != nil {
		return err
	}

	data := pterm.TableData{{"#", "ID", "Content", "Hash", "Previous", "Nonce"}}
	for i, blk := range blocks {
		data = append(data, []string{
			strconv.Itoa(i),
			blk.ID.String(),
			blk.Content,
			short(blk.Hash),
			short(blk.PreviousHash),
			strconv.FormatUint(blk.Nonce, 10),
		})
	}

	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func blocksCreateRun(cmd *cobra.Command, args []string) error {
	send := struct {
		Content string `json:"content"`
	}{
		Content: args[0],
	}

	var resp struct {
		Block       database.Block    `json:"block"`
		Propagation propagator.Report `json:"propagation"`
		Error       string            `json:"error"`
	}

	spinner, _ := pterm.DefaultSpinner.Start("mining block")
	status, err := client().Post(cmd.Context(), endpoint("/blocks"), send, &resp)
	if err != nil {
		spinner.Fail(err.Error())
		return err
	}

	switch status {
	case http.StatusAccepted:
		spinner.Warning(fmt.Sprintf("block %s stored, not propagated: %s", resp.Block.ID, resp.Error))
	default:
		spinner.Success(fmt.Sprintf("block %s mined: %s", resp.Block.ID, resp.Block.Hash))
	}

	if len(resp.Propagation) == 0 {
		return nil
	}

	data := pterm.TableData{{"Node", "Status", "Error"}}
	for _, res := range resp.Propagation {
		data = append(data, []string{res.URL, string(res.Status), res.Error})
	}

	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

// short trims a hash down for display.
func short(hash string) string {
	if len(hash) <= 16 {
		return hash
	}
	return hash[:16] + "..."
}
