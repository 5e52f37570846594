// Package miner provides the proof of work strategies used to mine blocks.
package miner

import (
	"context"
	"errors"

	"github.com/ardanlabs/reszka/foundation/blockchain/database"
)

// ErrAttemptsExhausted is returned by a capped strategy when no solution
// was found within the allowed number of attempts.
var ErrAttemptsExhausted = errors.New("mining attempts exhausted")

// EventHandler defines a function that is called when events
// occur in the processing of mining blocks.
type EventHandler func(v string, args ...any)

// Miner interface represents the behavior required to be implemented by any
// package providing a strategy for mining blocks. The ledger only ever talks
// to this interface.
type Miner interface {
	Mine(ctx context.Context, block database.Block) (database.Block, error)
	Difficulty() uint
}

// =============================================================================

// POW mines blocks by searching for a nonce that produces a hash with
// difficulty leading zeros. The search has no attempt limit.
type POW struct {
	difficulty uint
	evHandler  EventHandler
}

// NewPOW constructs a proof of work miner for the specified difficulty.
func NewPOW(difficulty uint, evHandler EventHandler) *POW {
	return &POW{
		difficulty: difficulty,
		evHandler:  safe(evHandler),
	}
}

// Difficulty returns the number of leading zeros required in a hash.
func (p *POW) Difficulty() uint {
	return p.difficulty
}

// Mine performs the work of finding a valid hash for the block.
func (p *POW) Mine(ctx context.Context, block database.Block) (database.Block, error) {
	return search(ctx, block, p.difficulty, 0, p.evHandler)
}

// =============================================================================

// Capped mines blocks like POW but gives up after a fixed number of attempts.
type Capped struct {
	difficulty  uint
	maxAttempts uint64
	evHandler   EventHandler
}

// NewCapped constructs a proof of work miner that stops searching after
// maxAttempts hashes. A maxAttempts of 0 means there is no limit.
func NewCapped(difficulty uint, maxAttempts uint64, evHandler EventHandler) *Capped {
	return &Capped{
		difficulty:  difficulty,
		maxAttempts: maxAttempts,
		evHandler:   safe(evHandler),
	}
}

// Difficulty returns the number of leading zeros required in a hash.
func (c *Capped) Difficulty() uint {
	return c.difficulty
}

// Mine performs the work of finding a valid hash for the block.
func (c *Capped) Mine(ctx context.Context, block database.Block) (database.Block, error) {
	return search(ctx, block, c.difficulty, c.maxAttempts, c.evHandler)
}

// =============================================================================

// search increments the nonce until the hash solves the difficulty. The
// block is a copy so the caller's value is never touched. Only the nonce and
// hash fields are changed.
func search(ctx context.Context, block database.Block, difficulty uint, maxAttempts uint64, ev EventHandler) (database.Block, error) {
	ev("miner: search: MINING: started: blk[%s]: difficulty[%d]", block.ID, difficulty)
	defer ev("miner: search: MINING: completed: blk[%s]", block.ID)

	block.Hash = ""

	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("miner: search: MINING: blk[%s]: attempts[%d]", block.ID, attempts)
		}

		// Checking the context on every hash costs more than the hash.
		if attempts%1024 == 0 && ctx.Err() != nil {
			ev("miner: search: MINING: CANCELLED: blk[%s]", block.ID)
			return database.Block{}, ctx.Err()
		}

		block.Nonce++
		hash := block.Digest()
		if database.IsHashSolved(difficulty, hash) {
			block.Hash = hash
			ev("miner: search: MINING: SOLVED: blk[%s]: hash[%s]: attempts[%d]", block.ID, hash, attempts)
			return block, nil
		}

		if maxAttempts > 0 && attempts >= maxAttempts {
			ev("miner: search: MINING: EXHAUSTED: blk[%s]: attempts[%d]", block.ID, attempts)
			return database.Block{}, ErrAttemptsExhausted
		}
	}
}

// safe returns an event handler that can always be called.
func safe(ev EventHandler) EventHandler {
	if ev == nil {
		return func(string, ...any) {}
	}
	return ev
}
