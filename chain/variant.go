package chain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/covenantfi/oracle-agent/domain/pool"
)

// CreatePoolParams is the variant-agnostic input to CreatePool.
type CreatePoolParams struct {
	Description       string
	EvidenceSourceURL string
	CoverageAmount    *big.Int // 6-decimal fixed point
	PremiumRateBps    uint32
	Deadline          int64
}

// PoolView is a variant-agnostic on-chain pool read, with Status already
// translated via pool.StatusFromCode.
type PoolView struct {
	Description       string
	EvidenceSourceURL string
	CoverageAmount    *big.Int
	PremiumAmount     *big.Int
	PremiumRateBps    uint32
	Deadline          int64
	Status            pool.Status
	ClaimApproved     bool
}

// PoolAccounting is a variant-agnostic accounting read.
type PoolAccounting struct {
	TotalCollateral  *big.Int
	PremiumCollected *big.Int
}

// HasVariant reports whether a contract address is configured for v, so
// callers can skip a variant entirely rather than treating its absence as
// an error on every read.
func (c *Client) HasVariant(v pool.Variant) bool {
	switch v {
	case pool.Legacy:
		return c.legacyAddr != (common.Address{})
	case pool.Current:
		return c.currentAddr != (common.Address{})
	default:
		return false
	}
}

// addressFor returns the configured contract address for a variant.
func (c *Client) addressFor(v pool.Variant) (common.Address, error) {
	switch v {
	case pool.Legacy:
		if c.legacyAddr == (common.Address{}) {
			return common.Address{}, errNoLegacyContract
		}
		return c.legacyAddr, nil
	case pool.Current:
		if c.currentAddr == (common.Address{}) {
			return common.Address{}, errNoCurrentContract
		}
		return c.currentAddr, nil
	default:
		return common.Address{}, errUnknownVariant
	}
}
