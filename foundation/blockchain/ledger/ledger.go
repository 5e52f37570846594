// Package ledger maintains the ordered, append only sequence of blocks that
// make up the chain for a single node.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/reszka/foundation/blockchain/database"
	"github.com/ardanlabs/reszka/foundation/blockchain/miner"
	"github.com/sasha-s/go-deadlock"
)

// EventHandler defines a function that is called when events
// occur in the processing of appending blocks.
type EventHandler func(v string, args ...any)

// Ledger manages the chain of blocks starting with the genesis block.
type Ledger struct {
	miner     miner.Miner
	evHandler EventHandler

	// author serializes local block creation so two creates never
	// compute the same previous hash. It is held for the whole search
	// which can outlive the deadlock detector's timeout.
	author sync.Mutex

	// mu guards blocks and is never held while mining.
	mu     deadlock.RWMutex
	blocks []database.Block
}

// New constructs a ledger holding only the genesis block. The miner is used
// for locally created blocks and its difficulty is required of blocks
// received from peers.
func New(m miner.Miner, evHandler EventHandler) *Ledger {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	return &Ledger{
		miner:     m,
		evHandler: ev,
		blocks:    []database.Block{database.Genesis()},
	}
}

// Difficulty returns the difficulty every block in this ledger must solve.
func (l *Ledger) Difficulty() uint {
	return l.miner.Difficulty()
}

// CreateAndAppend constructs a new block for the content, mines it and
// appends it to the chain. If a peer block is accepted while mining is
// taking place, the block is rebuilt against the new tail and mined again.
func (l *Ledger) CreateAndAppend(ctx context.Context, content string) (database.Block, error) {
	l.author.Lock()
	defer l.author.Unlock()

	for {
		block := database.NewBlock(content, l.Latest().Hash)

		l.evHandler("ledger: CreateAndAppend: MINING: blk[%s]: prevBlk[%s]", block.ID, block.PreviousHash)

		mined, err := l.miner.Mine(ctx, block)
		if err != nil {
			return database.Block{}, fmt.Errorf("mining block: %w", err)
		}

		err = l.append(mined, func(tail database.Block) error {
			return mined.ValidateLink(tail)
		})

		switch {
		case err == nil:
			l.evHandler("ledger: CreateAndAppend: appended: %s", mined)
			return mined, nil

		case errors.Is(err, database.ErrChainLinkage):
			l.evHandler("ledger: CreateAndAppend: tail moved while mining, rebuilding: blk[%s]", mined.ID)
			continue

		default:
			return database.Block{}, err
		}
	}
}

// AcceptExternal validates a block mined by another node and appends it
// to the chain. The block's hash must be genuine and solve the difficulty.
// The block must link to the current tail unless the tail is the genesis
// block, in which case the linkage check is skipped.
func (l *Ledger) AcceptExternal(block database.Block) error {
	if err := block.ValidateHash(l.miner.Difficulty()); err != nil {
		return err
	}

	err := l.append(block, func(tail database.Block) error {
		if tail.IsGenesis() {
			l.evHandler("ledger: AcceptExternal: WARNING: tail is genesis, omitting linkage check: blk[%s]", block.ID)
			return nil
		}
		return block.ValidateLink(tail)
	})
	if err != nil {
		l.evHandler("ledger: AcceptExternal: rejected: blk[%s]: %s", block.ID, err)
		return err
	}

	l.evHandler("ledger: AcceptExternal: appended: %s", block)

	return nil
}

// Blocks returns a point in time copy of the chain in order.
func (l *Ledger) Blocks() []database.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()

	blocks := make([]database.Block, len(l.blocks))
	copy(blocks, l.blocks)

	return blocks
}

// Latest returns the block at the tail of the chain.
func (l *Ledger) Latest() database.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.blocks[len(l.blocks)-1]
}

// Len returns the number of blocks in the chain including genesis.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.blocks)
}

// Verify walks the chain checking every hash and every link. The block
// following genesis is not link checked since it may have been accepted
// from a peer with a longer chain.
func (l *Ledger) Verify() error {
	blocks := l.Blocks()

	if blocks[0].Hash != blocks[0].Digest() {
		return fmt.Errorf("block[0]: %w", database.ErrInvalidHash)
	}

	for i := 1; i < len(blocks); i++ {
		if err := blocks[i].ValidateHash(l.miner.Difficulty()); err != nil {
			return fmt.Errorf("block[%d]: %w", i, err)
		}
		if blocks[i-1].IsGenesis() {
			continue
		}
		if err := blocks[i].ValidateLink(blocks[i-1]); err != nil {
			return fmt.Errorf("block[%d]: %w", i, err)
		}
	}

	return nil
}

// =============================================================================

// append runs the check against the current tail and appends the block
// if the check passes. Both happen under the same lock so the tail can't
// change between the check and the append.
func (l *Ledger) append(block database.Block, check func(tail database.Block) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := check(l.blocks[len(l.blocks)-1]); err != nil {
		return err
	}

	l.blocks = append(l.blocks, block)

	return nil
}
