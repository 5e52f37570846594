// Package state is the core API for the blockchain node and ties together
// the ledger, the network membership and block propagation.
package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/reszka/foundation/blockchain/database"
	"github.com/ardanlabs/reszka/foundation/blockchain/ledger"
	"github.com/ardanlabs/reszka/foundation/blockchain/miner"
	"github.com/ardanlabs/reszka/foundation/blockchain/peer"
	"github.com/ardanlabs/reszka/foundation/blockchain/propagator"
	"github.com/ardanlabs/reszka/foundation/blockchain/rpc"
	"github.com/ardanlabs/reszka/foundation/blockchain/signature"
)

// ErrNoWorker is returned when blocks are requested before a worker
// has been registered with the state.
var ErrNoWorker = errors.New("no mining worker registered")

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of blocks and nodes.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining blocks off the request path.
type Worker interface {
	Shutdown()
	SignalMineBlock(ctx context.Context, content string) (database.Block, error)
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	Host        string
	Difficulty  uint
	MaxAttempts uint64
	Registry    *peer.Registry
	Client      *rpc.Client
	EvHandler   EventHandler
}

// State manages the blockchain for this node.
type State struct {
	host      string
	evHandler EventHandler

	ledger     *ledger.Ledger
	registry   *peer.Registry
	propagator *propagator.Propagator

	Worker Worker
}

// New constructs a new blockchain for data management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.Difficulty > signature.HashLength {
		return nil, fmt.Errorf("difficulty %d is larger than the hash length %d", cfg.Difficulty, signature.HashLength)
	}

	if cfg.Registry == nil {
		return nil, errors.New("a registry is required")
	}

	client := cfg.Client
	if client == nil {
		client = rpc.NewClient(rpc.DefaultTimeout)
	}

	// Select the mining strategy. A capped search gives up after the
	// configured number of attempts.
	var m miner.Miner = miner.NewPOW(cfg.Difficulty, miner.EventHandler(ev))
	if cfg.MaxAttempts > 0 {
		m = miner.NewCapped(cfg.Difficulty, cfg.MaxAttempts, miner.EventHandler(ev))
	}

	// Create the State to provide support for managing the blockchain.
	state := State{
		host:       cfg.Host,
		evHandler:  ev,
		ledger:     ledger.New(m, ledger.EventHandler(ev)),
		registry:   cfg.Registry,
		propagator: propagator.New(cfg.Registry, client, ev),
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}

// Host returns the url other nodes use to reach this node.
func (s *State) Host() string {
	return s.host
}
