package peer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ardanlabs/reszka/foundation/blockchain/rpc"
	"github.com/cenkalti/backoff/v4"
)

// RegisterRequest is the document a node sends to the master to join
// the network.
type RegisterRequest struct {
	Node Node   `json:"node"`
	Key  string `json:"key"`
}

// BootstrapConfig represents the information required to register
// this process with the master.
type BootstrapConfig struct {
	Client    *rpc.Client
	SelfHost  string
	MasterURL string
	Key       string
	Retries   uint64
	Interval  time.Duration
	EvHandler func(v string, args ...any)
}

// Bootstrap asks the master to register this process under the network key.
// The master must respond with 201. Wrong keys are never retried. Any other
// failure is retried up to cfg.Retries times with exponential backoff. A
// failure returned from here is fatal to startup.
func Bootstrap(ctx context.Context, cfg BootstrapConfig) error {
	ev := cfg.EvHandler
	if ev == nil {
		ev = func(string, ...any) {}
	}

	ev("peer: Bootstrap: started: master[%s]", cfg.MasterURL)
	defer ev("peer: Bootstrap: completed: master[%s]", cfg.MasterURL)

	req := RegisterRequest{
		Node: New(SelfURL(cfg.SelfHost)),
		Key:  cfg.Key,
	}
	url := strings.TrimSuffix(cfg.MasterURL, "/") + "/nodes"

	var attempt int
	op := func() error {
		attempt++

		status, err := cfg.Client.Post(ctx, url, req, nil)
		switch {
		case err == nil && status != http.StatusCreated:
			err = fmt.Errorf("unexpected status %d", status)

		case err == nil:
			return nil

		case status == http.StatusUnauthorized:
			return backoff.Permanent(err)
		}

		ev("peer: Bootstrap: attempt[%d]: ERROR: %s", attempt, err)
		return err
	}

	eb := backoff.NewExponentialBackOff()
	if cfg.Interval > 0 {
		eb.InitialInterval = cfg.Interval
	}
	b := backoff.WithContext(backoff.WithMaxRetries(eb, cfg.Retries), ctx)

	if err := backoff.Retry(op, b); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrBootstrap, url, unwrapPermanent(err))
	}

	ev("peer: Bootstrap: registered: node[%s]", req.Node.URL)

	return nil
}

// SelfURL builds the url other nodes use to reach this process.
func SelfURL(host string) string {
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	return "http://" + host
}

// unwrapPermanent removes the backoff wrapper from a permanent error.
func unwrapPermanent(err error) error {
	var pe *backoff.PermanentError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}
