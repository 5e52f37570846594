package public

import (
	"github.com/ardanlabs/reszka/business/sys/validate"
	"github.com/ardanlabs/reszka/foundation/blockchain/database"
	"github.com/ardanlabs/reszka/foundation/blockchain/peer"
	"github.com/ardanlabs/reszka/foundation/blockchain/propagator"
)

// newBlock is what a client sends to have content mined into a block.
// Content may be empty but must be present.
type newBlock struct {
	Content *string `json:"content" validate:"required"`
}

// Validate checks the data in the model is considered clean.
func (nb newBlock) Validate() error {
	return validate.Check(nb)
}

// =============================================================================

type node struct {
	URL string `json:"url" validate:"required,url"`
}

// registerNode is what a node sends to the master to join the network.
type registerNode struct {
	Node node   `json:"node"`
	Key  string `json:"key"`
}

// Validate checks the data in the model is considered clean.
func (rn registerNode) Validate() error {
	return validate.Check(rn)
}

func (rn registerNode) toPeer() peer.Node {
	return peer.New(rn.Node.URL)
}

// =============================================================================

// minedBlock is the response for a block created on this node along with
// where it was sent.
type minedBlock struct {
	Block       database.Block    `json:"block"`
	Propagation propagator.Report `json:"propagation"`
	Error       string            `json:"error,omitempty"`
}
