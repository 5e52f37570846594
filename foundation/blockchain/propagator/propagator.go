// Package propagator pushes newly mined blocks to every registered node.
package propagator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ardanlabs/reszka/foundation/blockchain/database"
	"github.com/ardanlabs/reszka/foundation/blockchain/peer"
	"github.com/ardanlabs/reszka/foundation/blockchain/rpc"
)

// ErrPropagation is returned when a node rejects or can't be reached
// during a broadcast.
var ErrPropagation = errors.New("block not propagated to every node")

// Status represents the outcome of sending a block to a single node.
type Status string

// Set of outcomes for a node during a broadcast.
const (
	Delivered Status = "delivered"
	Failed    Status = "failed"
	Skipped   Status = "skipped"
)

// Result is the outcome of a broadcast for a single node.
type Result struct {
	URL    string `json:"url"`
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Report is the outcome of a broadcast for every registered node in
// registration order.
type Report []Result

// Complete reports if every node received the block.
func (r Report) Complete() bool {
	for _, res := range r {
		if res.Status != Delivered {
			return false
		}
	}
	return true
}

// Delivered returns the number of nodes that received the block.
func (r Report) Delivered() int {
	var n int
	for _, res := range r {
		if res.Status == Delivered {
			n++
		}
	}
	return n
}

// ExistingRequest is the document a node posts to a peer's /existing route.
type ExistingRequest struct {
	Block  database.Block `json:"block"`
	Source string         `json:"source"`
}

// =============================================================================

// Propagator sends blocks to the nodes held by a registry.
type Propagator struct {
	registry  *peer.Registry
	client    *rpc.Client
	evHandler func(v string, args ...any)
}

// New constructs a propagator for the nodes in the registry.
func New(registry *peer.Registry, client *rpc.Client, evHandler func(v string, args ...any)) *Propagator {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	return &Propagator{
		registry:  registry,
		client:    client,
		evHandler: ev,
	}
}

// Broadcast sends the block, tagged with the origin url, to every registered
// node in registration order. The first node to reject the block or fail to
// respond stops the broadcast and ErrPropagation is returned. Nodes that
// already received the block keep it. The report always lists every node.
func (p *Propagator) Broadcast(ctx context.Context, block database.Block, origin string) (Report, error) {
	p.evHandler("propagator: Broadcast: started: blk[%s]", block.ID)
	defer p.evHandler("propagator: Broadcast: completed: blk[%s]", block.ID)

	nodes := p.registry.Copy()
	report := make(Report, len(nodes))
	for i, node := range nodes {
		report[i] = Result{URL: node.URL, Status: Skipped}
	}

	req := ExistingRequest{
		Block:  block,
		Source: origin,
	}

	for i, node := range nodes {
		url := strings.TrimSuffix(node.URL, "/") + "/existing"

		if _, err := p.client.Post(ctx, url, req, nil); err != nil {
			report[i].Status = Failed
			report[i].Error = err.Error()

			p.evHandler("propagator: Broadcast: ERROR: node[%s]: %s", node.URL, err)
			return report, fmt.Errorf("%w: %s: %w", ErrPropagation, node.URL, err)
		}

		report[i].Status = Delivered
		p.evHandler("propagator: Broadcast: sent to node[%s]", node.URL)
	}

	return report, nil
}
