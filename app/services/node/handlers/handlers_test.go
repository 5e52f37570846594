package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/ardanlabs/reszka/app/services/node/handlers"
	"github.com/ardanlabs/reszka/foundation/blockchain/database"
	"github.com/ardanlabs/reszka/foundation/blockchain/miner"
	"github.com/ardanlabs/reszka/foundation/blockchain/peer"
	"github.com/ardanlabs/reszka/foundation/blockchain/state"
	"github.com/ardanlabs/reszka/foundation/blockchain/worker"
	"github.com/ardanlabs/reszka/foundation/events"
	"github.com/ardanlabs/reszka/foundation/logger"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const key = "network-key"

// node is a running api for a single process in the network.
type node struct {
	state *state.State
	srv   *httptest.Server
}

func newNode(t *testing.T, registry *peer.Registry) node {
	st, err := state.New(state.Config{
		Host:       "http://node",
		Difficulty: 1,
		Registry:   registry,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
	}

	w := worker.Run(st, 1, nil)
	t.Cleanup(w.Shutdown)

	log, err := logger.New("TEST")
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the logger: %v", failed, err)
	}

	mux := handlers.APIMux(handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      log,
		State:    st,
		Evts:     events.New(),
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return node{state: st, srv: srv}
}

func call(t *testing.T, method string, url string, body any, recv any) int {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("\t%s\tShould be able to encode the body: %v", failed, err)
		}
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, &buf)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to build the request: %v", failed, err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to make the call: %v", failed, err)
	}
	defer resp.Body.Close()

	if recv != nil {
		json.NewDecoder(resp.Body).Decode(recv)
	}

	return resp.StatusCode
}

func Test_Network(t *testing.T) {
	master := newNode(t, peer.NewMaster(peer.New("http://master"), key))
	satellite := newNode(t, peer.NewSatellite(peer.New(master.srv.URL), key))

	t.Log("Given the need to mine and read blocks.")
	{
		var mined struct {
			Block database.Block `json:"block"`
		}
		status := call(t, http.MethodPost, master.srv.URL+"/blocks", map[string]string{"content": "hello"}, &mined)
		if status != http.StatusCreated {
			t.Fatalf("\t%s\tShould receive a 201 for a new block: %d", failed, status)
		}
		t.Logf("\t%s\tShould receive a 201 for a new block.", success)

		if !strings.HasPrefix(mined.Block.Hash, "0") {
			t.Fatalf("\t%s\tShould get a hash starting with 0: %s", failed, mined.Block.Hash)
		}
		t.Logf("\t%s\tShould get a hash starting with 0.", success)

		var blocks []database.Block
		if status := call(t, http.MethodGet, master.srv.URL+"/blocks", nil, &blocks); status != http.StatusOK {
			t.Fatalf("\t%s\tShould receive a 200 for the chain: %d", failed, status)
		}
		if len(blocks) != 2 || blocks[0].Content != database.GenesisContent || blocks[1].Content != "hello" {
			t.Fatalf("\t%s\tShould get the genesis and hello blocks: %+v", failed, blocks)
		}
		if blocks[1].PreviousHash != blocks[0].Hash {
			t.Fatalf("\t%s\tShould link hello to genesis.", failed)
		}
		t.Logf("\t%s\tShould get the genesis and hello blocks in order.", success)

		if status := call(t, http.MethodPost, master.srv.URL+"/blocks", `{"text":"x"}`, nil); status != http.StatusBadRequest {
			t.Fatalf("\t%s\tShould receive a 400 for a bad body: %d", failed, status)
		}
		if status := call(t, http.MethodPost, master.srv.URL+"/blocks", `{}`, nil); status != http.StatusBadRequest {
			t.Fatalf("\t%s\tShould receive a 400 for missing content: %d", failed, status)
		}
		t.Logf("\t%s\tShould receive a 400 for a bad body.", success)
	}

	t.Log("Given the need to register nodes with the master.")
	{
		reg := map[string]any{
			"node": map[string]string{"url": satellite.srv.URL},
			"key":  "wrong",
		}
		if status := call(t, http.MethodPost, master.srv.URL+"/nodes", reg, nil); status != http.StatusUnauthorized {
			t.Fatalf("\t%s\tShould receive a 401 for a wrong key: %d", failed, status)
		}

		var nodes []peer.Node
		call(t, http.MethodGet, master.srv.URL+"/nodes", nil, &nodes)
		if len(nodes) != 0 {
			t.Fatalf("\t%s\tShould have no nodes after a wrong key: %d", failed, len(nodes))
		}
		t.Logf("\t%s\tShould refuse a wrong key.", success)

		reg["key"] = key
		if status := call(t, http.MethodPost, master.srv.URL+"/nodes", reg, nil); status != http.StatusCreated {
			t.Fatalf("\t%s\tShould receive a 201 for the right key: %d", failed, status)
		}

		call(t, http.MethodGet, master.srv.URL+"/nodes", nil, &nodes)
		if len(nodes) != 1 || nodes[0].URL != satellite.srv.URL {
			t.Fatalf("\t%s\tShould have one node after the right key: %+v", failed, nodes)
		}
		t.Logf("\t%s\tShould register a node with the right key.", success)

		if status := call(t, http.MethodPost, satellite.srv.URL+"/nodes", reg, nil); status != http.StatusBadGateway {
			t.Fatalf("\t%s\tShould receive a 502 from a satellite: %d", failed, status)
		}
		t.Logf("\t%s\tShould refuse registrations on a satellite.", success)

		bad := map[string]any{"node": map[string]string{"url": "not a url"}, "key": key}
		if status := call(t, http.MethodPost, master.srv.URL+"/nodes", bad, nil); status != http.StatusBadRequest {
			t.Fatalf("\t%s\tShould receive a 400 for a bad url: %d", failed, status)
		}
		t.Logf("\t%s\tShould receive a 400 for a bad url.", success)
	}

	t.Log("Given the need to propagate blocks to registered nodes.")
	{
		var mined struct {
			Block       database.Block `json:"block"`
			Propagation []struct {
				URL    string `json:"url"`
				Status string `json:"status"`
			} `json:"propagation"`
		}
		status := call(t, http.MethodPost, master.srv.URL+"/blocks", map[string]string{"content": "world"}, &mined)
		if status != http.StatusCreated {
			t.Fatalf("\t%s\tShould receive a 201 for a propagated block: %d", failed, status)
		}
		if len(mined.Propagation) != 1 || mined.Propagation[0].Status != "delivered" {
			t.Fatalf("\t%s\tShould report delivery to the satellite: %+v", failed, mined.Propagation)
		}
		t.Logf("\t%s\tShould report delivery to the satellite.", success)

		// The satellite still held only genesis so the block was taken
		// without a linkage check.
		latest := satellite.state.RetrieveLatestBlock()
		if latest.ID != mined.Block.ID || latest.Content != "world" {
			t.Fatalf("\t%s\tShould have the block on the satellite.", failed)
		}
		t.Logf("\t%s\tShould have the block on the satellite.", success)
	}

	t.Log("Given the need to refuse blocks that do not fit the chain.")
	{
		blk, err := miner.NewPOW(1, nil).Mine(context.Background(), database.NewBlock("orphan", "not-the-tail"))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine a block: %v", failed, err)
		}

		existing := map[string]any{"block": blk, "source": "http://elsewhere"}
		if status := call(t, http.MethodPost, master.srv.URL+"/existing", existing, nil); status != http.StatusConflict {
			t.Fatalf("\t%s\tShould receive a 409 for a broken link: %d", failed, status)
		}
		t.Logf("\t%s\tShould receive a 409 for a broken link.", success)

		blk.PreviousHash = master.state.RetrieveLatestBlock().Hash
		blk.Nonce++
		existing["block"] = blk
		if status := call(t, http.MethodPost, master.srv.URL+"/existing", existing, nil); status != http.StatusBadRequest {
			t.Fatalf("\t%s\tShould receive a 400 for a forged hash: %d", failed, status)
		}
		t.Logf("\t%s\tShould receive a 400 for a forged hash.", success)

		if len(master.state.RetrieveBlocks()) != 3 {
			t.Fatalf("\t%s\tShould leave the chain unchanged.", failed)
		}
		t.Logf("\t%s\tShould leave the chain unchanged.", success)
	}
}

func Test_Debug(t *testing.T) {
	t.Log("Given the need to check the health of a node.")
	{
		st, err := state.New(state.Config{
			Difficulty: 1,
			Registry:   peer.NewMaster(peer.New("http://master"), key),
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
		}

		log, err := logger.New("TEST")
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the logger: %v", failed, err)
		}

		srv := httptest.NewServer(handlers.DebugMux("test", log, st))
		defer srv.Close()

		var ready struct {
			Status string `json:"status"`
			Role   string `json:"role"`
			Master string `json:"master"`
			Blocks int    `json:"blocks"`
		}
		if status := call(t, http.MethodGet, srv.URL+"/debug/readiness", nil, &ready); status != http.StatusOK {
			t.Fatalf("\t%s\tShould receive a 200 for readiness: %d", failed, status)
		}
		if ready.Status != "ok" || ready.Role != "master" || ready.Master != "http://master" || ready.Blocks != 1 {
			t.Fatalf("\t%s\tShould report an intact master chain: %+v", failed, ready)
		}
		t.Logf("\t%s\tShould report an intact master chain.", success)

		if status := call(t, http.MethodGet, srv.URL+"/debug/liveness", nil, nil); status != http.StatusOK {
			t.Fatalf("\t%s\tShould receive a 200 for liveness: %d", failed, status)
		}
		t.Logf("\t%s\tShould receive a 200 for liveness.", success)
	}
}
