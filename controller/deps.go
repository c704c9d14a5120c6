package controller

import (
	"context"

	"github.com/covenantfi/oracle-agent/chain"
	"github.com/covenantfi/oracle-agent/domain/pool"
	"github.com/covenantfi/oracle-agent/oracle"
)

// chainReadWriter is the narrow slice of chain.Client the Controller drives
// directly. Kept as an interface, like commerce.ChainCreator and
// oracle.evidenceFetcher, so cycle logic can be tested against a stub
// without dialing a real RPC endpoint.
type chainReadWriter interface {
	HasVariant(v pool.Variant) bool
	GetNextPoolID(ctx context.Context, variant pool.Variant) (uint64, error)
	GetPool(ctx context.Context, variant pool.Variant, poolID uint64) (chain.PoolView, error)
	CreatePool(ctx context.Context, variant pool.Variant, params chain.CreatePoolParams) (poolID uint64, txHash string, err error)
	ResolvePool(ctx context.Context, variant pool.Variant, poolID uint64, claimApproved bool) (string, error)
	CancelAndRefund(ctx context.Context, variant pool.Variant, poolID uint64) (string, error)
	EmergencyResolve(ctx context.Context, variant pool.Variant, poolID uint64) (string, error)
}

// poolReader is the narrow slice of cache.PoolCache the Controller drives.
type poolReader interface {
	GetPool(ctx context.Context, variant pool.Variant, poolID uint64) (chain.PoolView, error)
	Invalidate(variant pool.Variant, poolID uint64)
	Clear()
}

// resolver is the narrow slice of oracle.DualAuditor the Controller drives.
type resolver interface {
	Resolve(ctx context.Context, entry pool.Entry) (oracle.ConsensusResult, error)
}

// snapshotSaver is the narrow slice of persistence.Store the Controller
// drives; a nil snapshotSaver disables persistence entirely (useful in
// tests that only exercise in-memory behavior).
type snapshotSaver interface {
	Save(ctx context.Context, registry *pool.Registry) error
}
