// Package worker implements the mining pool for the blockchain. Blocks are
// mined on the worker goroutines and never on the goroutine serving the
// request.
package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/ardanlabs/reszka/foundation/blockchain/database"
	"github.com/ardanlabs/reszka/foundation/blockchain/state"
)

// ErrShutdown is returned when a block is requested from a worker
// that is shutting down.
var ErrShutdown = errors.New("worker is shutting down")

// =============================================================================

// job represents a request to mine content into the next block.
type job struct {
	content string
	result  chan outcome
}

// outcome is what a miner G hands back for a job.
type outcome struct {
	block database.Block
	err   error
}

// Worker manages the POW workflows for the blockchain.
type Worker struct {
	state     *state.State
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	shut      chan struct{}
	jobs      chan job
	evHandler state.EventHandler
}

// Run creates a worker, registers the worker with the state package, and
// starts up the requested number of mining G's.
func Run(st *state.State, miners int, evHandler state.EventHandler) *Worker {
	if miners < 1 {
		miners = 1
	}

	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	ctx, cancel := context.WithCancel(context.Background())

	w := Worker{
		state:     st,
		ctx:       ctx,
		cancel:    cancel,
		shut:      make(chan struct{}),
		jobs:      make(chan job),
		evHandler: evHandler,
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Set waitgroup to match the number of G's we need.
	w.wg.Add(miners)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the mining G's.
	for i := range miners {
		go func(id int) {
			defer w.wg.Done()
			hasStarted <- true
			w.miningOperations(id)
		}(i)
	}

	// Wait for the G's to report they are running.
	for range miners {
		<-hasStarted
	}

	return &w
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutines performing work. Any search in
// progress is cancelled.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: signal cancel mining")
	w.cancel()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalMineBlock hands the content to a mining G and waits for the mined
// block. The caller's context only bounds the wait for a free G. Once a G
// has taken the job the block is appended, so the result is always returned
// and the caller can still send the block to the network.
func (w *Worker) SignalMineBlock(ctx context.Context, content string) (database.Block, error) {
	if err := ctx.Err(); err != nil {
		return database.Block{}, err
	}

	j := job{
		content: content,
		result:  make(chan outcome, 1),
	}

	select {
	case w.jobs <- j:
		w.evHandler("worker: SignalMineBlock: mining signaled")
	case <-w.shut:
		return database.Block{}, ErrShutdown
	case <-ctx.Done():
		return database.Block{}, ctx.Err()
	}

	// The G always answers, even on shutdown, since the result
	// channel is buffered.
	out := <-j.result
	return out.block, out.err
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
