// Package database defines the block that makes up the ledger along with the
// rules a block must satisfy to be part of the chain.
package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/reszka/foundation/blockchain/signature"
	"github.com/google/uuid"
)

// Set of error variables for validating blocks.
var (
	// ErrChainLinkage is returned when a block's previous hash does not
	// match the hash of the block it is being appended after.
	ErrChainLinkage = errors.New("block previous hash does not match chain tail")

	// ErrInvalidHash is returned when a block's hash is missing, does not
	// match its identity or does not satisfy the difficulty.
	ErrInvalidHash = errors.New("invalid block hash")
)

// GenesisContent is the content of the first block of every ledger.
const GenesisContent = "GENESIS"

// =============================================================================

// Block represents a single entry in the ledger.
type Block struct {
	ID           uuid.UUID `json:"id"`
	Content      string    `json:"content"`
	Hash         string    `json:"hash"`          // Empty until the block is mined.
	PreviousHash string    `json:"previous_hash"` // Hash of the chain tail when the block was created.
	Timestamp    float64   `json:"timestamp"`     // Creation time in seconds.
	Nonce        uint64    `json:"nonce"`         // Value identified to solve the hash solution.
}

// NewBlock constructs an unmined block that will follow the specified
// previous hash in the chain.
func NewBlock(content string, previousHash string) Block {
	return Block{
		ID:           uuid.New(),
		Content:      content,
		PreviousHash: previousHash,
		Timestamp:    ToTimestamp(time.Now()),
		Nonce:        0,
	}
}

// Genesis constructs the fixed first block of the ledger. The nil uuid is
// used for the id so every node on the network shares the same genesis hash.
func Genesis() Block {
	b := Block{
		ID:           uuid.Nil,
		Content:      GenesisContent,
		PreviousHash: "",
		Timestamp:    0,
		Nonce:        0,
	}
	b.Hash = b.Digest()

	return b
}

// ToTimestamp converts a time into the float seconds stored in a block.
func ToTimestamp(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// Digest calculates the hash for the block's current identity and nonce.
func (b Block) Digest() string {
	return signature.Hash(b.ID, b.Timestamp, b.Nonce)
}

// IsMined reports if a hash has been set on the block.
func (b Block) IsMined() bool {
	return b.Hash != ""
}

// IsGenesis reports if this block is the genesis block.
func (b Block) IsGenesis() bool {
	return b.ID == uuid.Nil && b.Content == GenesisContent && b.PreviousHash == ""
}

// ValidateHash checks the block's hash matches its identity and
// solves the proof of work puzzle for the specified difficulty.
func (b Block) ValidateHash(difficulty uint) error {
	if !b.IsMined() {
		return fmt.Errorf("%w: block %s is not mined", ErrInvalidHash, b.ID)
	}

	if digest := b.Digest(); b.Hash != digest {
		return fmt.Errorf("%w: got %s, exp %s", ErrInvalidHash, b.Hash, digest)
	}

	if !IsHashSolved(difficulty, b.Hash) {
		return fmt.Errorf("%w: %s does not solve difficulty %d", ErrInvalidHash, b.Hash, difficulty)
	}

	return nil
}

// ValidateLink checks the block declares the specified block as its parent.
func (b Block) ValidateLink(previous Block) error {
	if b.PreviousHash != previous.Hash {
		return fmt.Errorf("%w: got %s, exp %s", ErrChainLinkage, b.PreviousHash, previous.Hash)
	}

	return nil
}

// String implements the fmt.Stringer interface for logging.
func (b Block) String() string {
	return fmt.Sprintf("Block[ID: %s, C: %s, H: %s, PH: %s, T: %v, N: %d]", b.ID, b.Content, b.Hash, b.PreviousHash, b.Timestamp, b.Nonce)
}

// =============================================================================

// IsHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func IsHashSolved(difficulty uint, hash string) bool {
	if len(hash) != signature.HashLength || difficulty > signature.HashLength {
		return false
	}

	for i := uint(0); i < difficulty; i++ {
		if hash[i] != '0' {
			return false
		}
	}

	return true
}
