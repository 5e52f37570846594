package state

import (
	"github.com/ardanlabs/reszka/foundation/blockchain/database"
	"github.com/ardanlabs/reszka/foundation/blockchain/peer"
)

// RetrieveBlocks returns a copy of the full chain in order.
func (s *State) RetrieveBlocks() []database.Block {
	return s.ledger.Blocks()
}

// RetrieveLatestBlock returns the block at the tail of the chain.
func (s *State) RetrieveLatestBlock() database.Block {
	return s.ledger.Latest()
}

// RetrieveNodes returns a copy of the registered nodes.
func (s *State) RetrieveNodes() []peer.Node {
	return s.registry.Copy()
}

// RetrieveRole returns the role this node plays in the network.
func (s *State) RetrieveRole() peer.Role {
	return s.registry.Role()
}

// RetrieveMaster returns the master node of the network.
func (s *State) RetrieveMaster() peer.Node {
	return s.registry.Master()
}

// RetrieveDifficulty returns the difficulty blocks must solve.
func (s *State) RetrieveDifficulty() uint {
	return s.ledger.Difficulty()
}

// VerifyChain checks every hash and link in the chain.
func (s *State) VerifyChain() error {
	return s.ledger.Verify()
}
