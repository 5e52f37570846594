package state

import (
	"context"

	"github.com/ardanlabs/reszka/foundation/blockchain/database"
	"github.com/ardanlabs/reszka/foundation/blockchain/propagator"
)

// MineNewBlock asks the worker to mine a block for the content and then
// sends the block to every registered node. When the returned error is
// ErrPropagation the block is stored locally and the report says which
// nodes have it. A block that has been appended is always broadcast, even
// if the caller's context ended while mining.
func (s *State) MineNewBlock(ctx context.Context, content string) (database.Block, propagator.Report, error) {
	s.evHandler("state: MineNewBlock: started")
	defer s.evHandler("state: MineNewBlock: completed")

	if s.Worker == nil {
		return database.Block{}, nil, ErrNoWorker
	}

	block, err := s.Worker.SignalMineBlock(ctx, content)
	if err != nil {
		return database.Block{}, nil, err
	}

	// The block is already part of the chain. The broadcast runs to
	// completion even if the caller goes away.
	report, err := s.propagator.Broadcast(context.WithoutCancel(ctx), block, s.host)
	if err != nil {
		s.evHandler("state: MineNewBlock: WARNING: %s", err)
		return block, report, err
	}

	return block, report, nil
}

// CreateBlock mines the content into a new block and appends it to the
// chain. This is called by the worker and runs on a worker goroutine.
func (s *State) CreateBlock(ctx context.Context, content string) (database.Block, error) {
	return s.ledger.CreateAndAppend(ctx, content)
}

// ProcessExternalBlock takes a block received from another node, validates
// it and if that passes, adds the block to the local chain.
func (s *State) ProcessExternalBlock(block database.Block, source string) error {
	s.evHandler("state: ProcessExternalBlock: started: blk[%s]: source[%s]", block.ID, source)
	defer s.evHandler("state: ProcessExternalBlock: completed: blk[%s]", block.ID)

	return s.ledger.AcceptExternal(block)
}
