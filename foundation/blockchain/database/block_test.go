package database_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/ardanlabs/reszka/foundation/blockchain/database"
	"github.com/google/uuid"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// solved is a block whose nonce solves a difficulty of 2.
var solved = database.Block{
	ID:           uuid.MustParse("5b0e7a4c-1d3f-4a6e-9b2c-8f1e2d3c4b5a"),
	Content:      "hello",
	Hash:         "00521a0380641483468a2265d5bfb2d76865a682990811abc3b16e5934b3f4f5",
	PreviousHash: database.Genesis().Hash,
	Timestamp:    1712345678.25,
	Nonce:        282,
}

// =============================================================================

func Test_Genesis(t *testing.T) {
	t.Log("Given the need to construct the genesis block.")
	{
		g := database.Genesis()

		if g.Content != database.GenesisContent || g.PreviousHash != "" || g.Nonce != 0 || g.Timestamp != 0 {
			t.Fatalf("\t%s\tShould have the fixed genesis fields: %s", failed, g)
		}
		t.Logf("\t%s\tShould have the fixed genesis fields.", success)

		if g.Hash != g.Digest() {
			t.Fatalf("\t%s\tShould have a hash computed by the hasher: %s", failed, g.Hash)
		}
		t.Logf("\t%s\tShould have a hash computed by the hasher.", success)

		if g.Hash != database.Genesis().Hash {
			t.Fatalf("\t%s\tShould produce the same genesis hash on every construction.", failed)
		}
		t.Logf("\t%s\tShould produce the same genesis hash on every construction.", success)

		if !g.IsGenesis() {
			t.Fatalf("\t%s\tShould identify itself as the genesis block.", failed)
		}
		t.Logf("\t%s\tShould identify itself as the genesis block.", success)
	}
}

func Test_NewBlock(t *testing.T) {
	t.Log("Given the need to construct a new block.")
	{
		prev := database.Genesis()

		b1 := database.NewBlock("hello", prev.Hash)
		b2 := database.NewBlock("hello", prev.Hash)

		if b1.IsMined() || b1.Nonce != 0 {
			t.Fatalf("\t%s\tShould construct an unmined block with a zero nonce.", failed)
		}
		t.Logf("\t%s\tShould construct an unmined block with a zero nonce.", success)

		if b1.ID == b2.ID {
			t.Fatalf("\t%s\tShould construct blocks with unique ids.", failed)
		}
		t.Logf("\t%s\tShould construct blocks with unique ids.", success)

		if b1.PreviousHash != prev.Hash || b1.Timestamp <= 0 {
			t.Fatalf("\t%s\tShould link to the previous hash with a current timestamp.", failed)
		}
		t.Logf("\t%s\tShould link to the previous hash with a current timestamp.", success)

		if b1.IsGenesis() {
			t.Fatalf("\t%s\tShould not identify as the genesis block.", failed)
		}
		t.Logf("\t%s\tShould not identify as the genesis block.", success)
	}
}

func Test_ValidateHash(t *testing.T) {
	type table struct {
		name       string
		block      func() database.Block
		difficulty uint
		valid      bool
	}

	tt := []table{
		{
			name:       "solved",
			block:      func() database.Block { return solved },
			difficulty: 2,
			valid:      true,
		},
		{
			name:       "lowerdifficulty",
			block:      func() database.Block { return solved },
			difficulty: 1,
			valid:      true,
		},
		{
			name:       "higherdifficulty",
			block:      func() database.Block { return solved },
			difficulty: 3,
			valid:      false,
		},
		{
			name: "notmined",
			block: func() database.Block {
				b := solved
				b.Hash = ""
				return b
			},
			difficulty: 0,
			valid:      false,
		},
		{
			name: "tampered",
			block: func() database.Block {
				b := solved
				b.Nonce++
				return b
			},
			difficulty: 0,
			valid:      false,
		},
	}

	t.Log("Given the need to validate block hashes.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				err := tst.block().ValidateHash(tst.difficulty)

				switch tst.valid {
				case true:
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould accept the hash: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould accept the hash.", success, testID)

				default:
					if !errors.Is(err, database.ErrInvalidHash) {
						t.Fatalf("\t%s\tTest %d:\tShould reject the hash with ErrInvalidHash: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould reject the hash with ErrInvalidHash.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_ValidateLink(t *testing.T) {
	t.Log("Given the need to validate block linkage.")
	{
		if err := solved.ValidateLink(database.Genesis()); err != nil {
			t.Fatalf("\t%s\tShould accept a block linked to its parent: %v", failed, err)
		}
		t.Logf("\t%s\tShould accept a block linked to its parent.", success)

		err := database.Genesis().ValidateLink(solved)
		if !errors.Is(err, database.ErrChainLinkage) {
			t.Fatalf("\t%s\tShould reject a block linked to another parent: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a block linked to another parent.", success)
	}
}

func Test_IsHashSolved(t *testing.T) {
	hash := "00" + strings.Repeat("a", 62)

	tt := []struct {
		difficulty uint
		hash       string
		exp        bool
	}{
		{0, hash, true},
		{1, hash, true},
		{2, hash, true},
		{3, hash, false},
		{1, "00", false},
		{65, strings.Repeat("0", 64), false},
	}

	for _, tst := range tt {
		if got := database.IsHashSolved(tst.difficulty, tst.hash); got != tst.exp {
			t.Logf("got: %v", got)
			t.Logf("exp: %v", tst.exp)
			t.Fatalf("Should get back the right answer for difficulty %d.", tst.difficulty)
		}
	}
}
