// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"errors"
	"net/http"

	"github.com/ardanlabs/reszka/business/sys/validate"
	"github.com/ardanlabs/reszka/business/web/errs"
	"github.com/ardanlabs/reszka/foundation/blockchain/database"
	"github.com/ardanlabs/reszka/foundation/blockchain/state"
	"github.com/ardanlabs/reszka/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node to node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// AcceptBlock takes a block mined by another node, validates it and
// if that passes, adds the block to the local chain.
func (h Handlers) AcceptBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var eb existingBlock
	if err := web.Decode(r, &eb); err != nil {
		if validate.IsFieldErrors(err) {
			return err
		}
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("accept block", "traceid", v.TraceID, "blk", eb.Block.ID, "source", eb.Source)

	if err := h.State.ProcessExternalBlock(eb.Block, eb.Source); err != nil {
		switch {
		case errors.Is(err, database.ErrChainLinkage):
			return errs.NewTrusted(err, http.StatusConflict)

		case errors.Is(err, database.ErrInvalidHash):
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return err
	}

	resp := struct {
		Status string `json:"status"`
		ID     string `json:"id"`
	}{
		Status: "accepted",
		ID:     eb.Block.ID.String(),
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}
