// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/reszka/app/services/node/handlers/v1/private"
	"github.com/ardanlabs/reszka/app/services/node/handlers/v1/public"
	"github.com/ardanlabs/reszka/business/web/mid"
	"github.com/ardanlabs/reszka/foundation/blockchain/state"
	"github.com/ardanlabs/reszka/foundation/events"
	"github.com/ardanlabs/reszka/foundation/web"
	"go.uber.org/zap"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// Routes binds all the version 1 routes. The paths are bound at the root
// since other nodes address each other by host alone.
func Routes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, "", "/events", pbl.Events)
	app.Handle(http.MethodGet, "", "/blocks", pbl.Blocks, mid.Cors("*"))
	app.Handle(http.MethodPost, "", "/blocks", pbl.CreateBlock, mid.Cors("*"))
	app.Handle(http.MethodGet, "", "/nodes", pbl.Nodes, mid.Cors("*"))
	app.Handle(http.MethodPost, "", "/nodes", pbl.RegisterNode)

	prv := private.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
	}

	app.Handle(http.MethodPost, "", "/existing", prv.AcceptBlock)
}
