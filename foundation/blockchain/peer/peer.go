// Package peer maintains the membership of the network: the master node,
// the set of registered nodes and the shared key that authorizes joining.
package peer

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/sasha-s/go-deadlock"
)

// Set of error variables for membership operations.
var (
	ErrUnauthorized = errors.New("invalid network key, cannot register node")
	ErrNotMaster    = errors.New("node is not the network master, cannot register node")
	ErrBootstrap    = errors.New("cannot register node with master")
)

// Node represents a peer in the network reachable at a base url.
type Node struct {
	URL string `json:"url"`
}

// New constructs a node for the url.
func New(url string) Node {
	return Node{
		URL: url,
	}
}

// Match validates if the specified url matches this node.
func (n Node) Match(url string) bool {
	return strings.TrimSuffix(n.URL, "/") == strings.TrimSuffix(url, "/")
}

// =============================================================================

// Role is the part a process plays in the network. It is decided once
// at startup and never changes.
type Role int

// Set of roles a node can play.
const (
	Master Role = iota
	Satellite
)

// String implements the fmt.Stringer interface.
func (r Role) String() string {
	switch r {
	case Master:
		return "master"
	case Satellite:
		return "satellite"
	}
	return "unknown"
}

// =============================================================================

// Registry represents the set of nodes that have joined the network through
// this process. Only a master accepts registrations.
type Registry struct {
	role   Role
	master Node
	key    string

	mu    deadlock.RWMutex
	nodes []Node
}

// NewMaster constructs the registry for the master node. The master
// starts with no registered nodes.
func NewMaster(self Node, key string) *Registry {
	return &Registry{
		role:   Master,
		master: self,
		key:    key,
	}
}

// NewSatellite constructs the registry for a node that joins the network
// through the specified master.
func NewSatellite(master Node, key string) *Registry {
	return &Registry{
		role:   Satellite,
		master: master,
		key:    key,
	}
}

// Role returns the role of this process.
func (r *Registry) Role() Role {
	return r.role
}

// Master returns the master node of the network.
func (r *Registry) Master() Node {
	return r.master
}

// Register adds the node to the registry if the key matches the network key.
// Registering a node that is already known does nothing.
func (r *Registry) Register(node Node, key string) error {
	if r.role != Master {
		return ErrNotMaster
	}

	if subtle.ConstantTimeCompare([]byte(r.key), []byte(key)) != 1 {
		return ErrUnauthorized
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range r.nodes {
		if n.Match(node.URL) {
			return nil
		}
	}

	r.nodes = append(r.nodes, node)

	return nil
}

// Copy returns the registered nodes in registration order.
func (r *Registry) Copy() []Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nodes := make([]Node, len(r.nodes))
	copy(nodes, r.nodes)

	return nodes
}

// Count returns the number of registered nodes.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.nodes)
}
