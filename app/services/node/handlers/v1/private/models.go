package private

import (
	"github.com/ardanlabs/reszka/business/sys/validate"
	"github.com/ardanlabs/reszka/foundation/blockchain/database"
)

// existingBlock is what a node sends when it shares a block it mined.
type existingBlock struct {
	Block  database.Block `json:"block"`
	Source string         `json:"source" validate:"omitempty,url"`
}

// Validate checks the data in the model is considered clean.
func (eb existingBlock) Validate() error {
	return validate.Check(eb)
}
