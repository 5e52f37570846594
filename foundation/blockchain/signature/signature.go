// Package signature provides the digest function used to mine and chain
// blocks together.
package signature

import (
	"crypto/sha256"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// HashLength is the number of hex characters in every digest.
const HashLength = 2 * sha256.Size

// =============================================================================

// Hash returns the hex encoded SHA-256 digest of a block identity.
//
// The input is the string "<id>+<timestamp>+<nonce>" where the id is the
// canonical UUID form, the timestamp is the shortest decimal that round
// trips the float64 value and the nonce is base 10. Any change to this
// encoding breaks the chain for every node on the network.
func Hash(id uuid.UUID, timestamp float64, nonce uint64) string {
	hash := sha256.Sum256(Stamp(id, timestamp, nonce))
	return common.Bytes2Hex(hash[:])
}

// Stamp returns the exact bytes that are hashed for a block identity.
func Stamp(id uuid.UUID, timestamp float64, nonce uint64) []byte {
	ts := strconv.FormatFloat(timestamp, 'f', -1, 64)
	return []byte(fmt.Sprintf("%s+%s+%d", id, ts, nonce))
}
