package worker

import (
	"time"
)

// miningOperations handles mining jobs until shutdown.
func (w *Worker) miningOperations(id int) {
	w.evHandler("worker: miningOperations: G[%d] started", id)
	defer w.evHandler("worker: miningOperations: G[%d] completed", id)

	for {
		select {
		case j := <-w.jobs:
			if !w.isShutdown() {
				w.runMiningOperation(id, j)
				continue
			}
			j.result <- outcome{err: ErrShutdown}
		case <-w.shut:
			w.evHandler("worker: miningOperations: G[%d]: received shut signal", id)
			return
		}
	}
}

// runMiningOperation mines the job's content into the next block and
// appends it to the chain.
func (w *Worker) runMiningOperation(id int, j job) {
	w.evHandler("worker: runMiningOperation: G[%d]: MINING: started", id)
	defer w.evHandler("worker: runMiningOperation: G[%d]: MINING: completed", id)

	t := time.Now()
	block, err := w.state.CreateBlock(w.ctx, j.content)
	duration := time.Since(t)

	w.evHandler("worker: runMiningOperation: G[%d]: MINING: mining duration[%v]", id, duration)

	switch {
	case err != nil && w.ctx.Err() != nil:
		w.evHandler("worker: runMiningOperation: G[%d]: MINING: CANCEL: complete", id)
		err = ErrShutdown
	case err != nil:
		w.evHandler("worker: runMiningOperation: G[%d]: MINING: ERROR: %s", id, err)
	default:
		w.evHandler("worker: runMiningOperation: G[%d]: MINING: SOLVED: blk[%s]", id, block.Hash)
	}

	// The result channel is buffered so this never blocks.
	j.result <- outcome{block: block, err: err}
}
