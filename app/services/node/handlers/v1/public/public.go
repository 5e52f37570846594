// Package public maintains the group of handlers for client access.
package public

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ardanlabs/reszka/business/sys/validate"
	"github.com/ardanlabs/reszka/business/web/errs"
	"github.com/ardanlabs/reszka/foundation/blockchain/miner"
	"github.com/ardanlabs/reszka/foundation/blockchain/peer"
	"github.com/ardanlabs/reszka/foundation/blockchain/propagator"
	"github.com/ardanlabs/reszka/foundation/blockchain/state"
	"github.com/ardanlabs/reszka/foundation/blockchain/worker"
	"github.com/ardanlabs/reszka/foundation/events"
	"github.com/ardanlabs/reszka/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of client endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// The upgrade wrote the response so record it for the logger.
	web.SetStatusCode(ctx, http.StatusSwitchingProtocols)

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// CreateBlock mines the content into a new block, appends it to the chain
// and sends it to every registered node.
func (h Handlers) CreateBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var nb newBlock
	if err := web.Decode(r, &nb); err != nil {
		return badRequest(err)
	}

	h.Log.Infow("create block", "traceid", v.TraceID, "content", len(*nb.Content))

	block, report, err := h.State.MineNewBlock(ctx, *nb.Content)
	switch {
	case err == nil:
		return web.Respond(ctx, w, minedBlock{Block: block, Propagation: report}, http.StatusCreated)

	case errors.Is(err, propagator.ErrPropagation):
		h.Log.Infow("create block", "traceid", v.TraceID, "WARNING", err)
		resp := minedBlock{
			Block:       block,
			Propagation: report,
			Error:       err.Error(),
		}
		return web.Respond(ctx, w, resp, http.StatusAccepted)

	case errors.Is(err, worker.ErrShutdown), errors.Is(err, miner.ErrAttemptsExhausted):
		return errs.NewTrusted(err, http.StatusServiceUnavailable)

	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return errs.NewTrusted(err, http.StatusGatewayTimeout)
	}

	return err
}

// Blocks returns the full chain in order.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveBlocks(), http.StatusOK)
}

// RegisterNode adds the node to the network when the key matches.
func (h Handlers) RegisterNode(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var rn registerNode
	if err := web.Decode(r, &rn); err != nil {
		return badRequest(err)
	}

	node := rn.toPeer()
	h.Log.Infow("register node", "traceid", v.TraceID, "node", node.URL)

	if err := h.State.RegisterNode(node, rn.Key); err != nil {
		switch {
		case errors.Is(err, peer.ErrUnauthorized):
			return errs.NewTrusted(err, http.StatusUnauthorized)

		case errors.Is(err, peer.ErrNotMaster):
			return errs.NewTrusted(err, http.StatusBadGateway)
		}
		return err
	}

	return web.Respond(ctx, w, node, http.StatusCreated)
}

// Nodes returns the registered nodes.
func (h Handlers) Nodes(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveNodes(), http.StatusOK)
}

// =============================================================================

// badRequest marks a decode failure as the client's fault. Field errors
// are passed through so the middleware can render them.
func badRequest(err error) error {
	if validate.IsFieldErrors(err) {
		return err
	}
	return errs.NewTrusted(err, http.StatusBadRequest)
}
