package state

import (
	"github.com/ardanlabs/reszka/foundation/blockchain/peer"
)

// RegisterNode adds a node to the network if the key is the network key.
func (s *State) RegisterNode(node peer.Node, key string) error {
	s.evHandler("state: RegisterNode: started: node[%s]", node.URL)
	defer s.evHandler("state: RegisterNode: completed: node[%s]", node.URL)

	if err := s.registry.Register(node, key); err != nil {
		s.evHandler("state: RegisterNode: ERROR: node[%s]: %s", node.URL, err)
		return err
	}

	return nil
}
