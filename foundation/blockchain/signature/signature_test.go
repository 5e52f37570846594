package signature_test

import (
	"strings"
	"testing"

	"github.com/ardanlabs/reszka/foundation/blockchain/signature"
	"github.com/google/uuid"
)

func Test_Stamp(t *testing.T) {
	id := uuid.MustParse("5b0e7a4c-1d3f-4a6e-9b2c-8f1e2d3c4b5a")

	stamp := string(signature.Stamp(id, 1712345678.25, 42))
	exp := "5b0e7a4c-1d3f-4a6e-9b2c-8f1e2d3c4b5a+1712345678.25+42"
	if stamp != exp {
		t.Logf("got: %s", stamp)
		t.Logf("exp: %s", exp)
		t.Fatalf("Should get back the documented encoding.")
	}

	stamp = string(signature.Stamp(uuid.Nil, 0, 0))
	exp = "00000000-0000-0000-0000-000000000000+0+0"
	if stamp != exp {
		t.Logf("got: %s", stamp)
		t.Logf("exp: %s", exp)
		t.Fatalf("Should format a zero timestamp without a fraction.")
	}
}

func Test_Hash(t *testing.T) {
	type table struct {
		name      string
		id        uuid.UUID
		timestamp float64
		nonce     uint64
		hash      string
	}

	tt := []table{
		{
			name:      "genesis",
			id:        uuid.Nil,
			timestamp: 0,
			nonce:     0,
			hash:      "8188f962c26d488d327c472fa4777b1f4712a7c130a4d03dbfd6e17a7d676f7d",
		},
		{
			name:      "block",
			id:        uuid.MustParse("5b0e7a4c-1d3f-4a6e-9b2c-8f1e2d3c4b5a"),
			timestamp: 1712345678.25,
			nonce:     42,
			hash:      "9158188969bdc905f64770eb04c728c79652fbfd35a15a5fb457e0da6ce9e308",
		},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			h := signature.Hash(tst.id, tst.timestamp, tst.nonce)
			if h != tst.hash {
				t.Logf("got: %s", h)
				t.Logf("exp: %s", tst.hash)
				t.Fatalf("Should get back the right hash.")
			}

			if len(h) != signature.HashLength {
				t.Fatalf("Should get back a fixed length hash: %d", len(h))
			}

			if h != strings.ToLower(h) {
				t.Fatalf("Should get back a lower case hash.")
			}

			if h2 := signature.Hash(tst.id, tst.timestamp, tst.nonce); h2 != h {
				t.Fatalf("Should get back the same hash twice.")
			}

			if h3 := signature.Hash(tst.id, tst.timestamp, tst.nonce+1); h3 == h {
				t.Fatalf("Should get a different hash for a different nonce.")
			}
		}

		t.Run(tst.name, f)
	}
}
