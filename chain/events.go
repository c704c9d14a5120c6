package chain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/covenantfi/oracle-agent/domain/pool"
)

// PoolCreatedEvent mirrors the PoolCreated(poolId, insured) log emitted by
// both contract variants.
type PoolCreatedEvent struct {
	PoolID  uint64
	Insured string
}

// ParsePoolCreatedEvent scans a transaction receipt for a PoolCreated log
// matching the given variant's ABI and extracts the assigned pool id — the
// contract assigns pool_id; the client never guesses it (spec §4.1).
func ParsePoolCreatedEvent(variant pool.Variant, receipt *types.Receipt) (*PoolCreatedEvent, error) {
	contractABI := abiFor(variant)
	eventABI, ok := contractABI.Events["PoolCreated"]
	if !ok {
		return nil, fmt.Errorf("PoolCreated event not present in %s ABI", variant)
	}

	for _, log := range receipt.Logs {
		if len(log.Topics) == 0 || log.Topics[0] != eventABI.ID {
			continue
		}

		var out struct {
			PoolID *big.Int
		}
		// PoolCreated has no non-indexed fields, so UnpackIntoInterface on
		// Data is a no-op; the pool id comes from the indexed topic.
		if err := contractABI.UnpackIntoInterface(&out, "PoolCreated", log.Data); err != nil {
			// Non-indexed unpack failure is expected here since both
			// fields are indexed; fall through to topic decoding.
			_ = err
		}

		indexed := abi.Arguments{eventABI.Inputs[0], eventABI.Inputs[1]}
		values := make(map[string]interface{})
		if err := abi.ParseTopicsIntoMap(values, indexed, log.Topics[1:]); err != nil {
			return nil, fmt.Errorf("parse PoolCreated topics: %w", err)
		}

		poolID, ok := values["poolId"].(*big.Int)
		if !ok {
			return nil, fmt.Errorf("PoolCreated: poolId topic missing or wrong type")
		}
		insured := ""
		if addr, ok := values["insured"].(common.Address); ok {
			insured = addr.Hex()
		}

		return &PoolCreatedEvent{PoolID: poolID.Uint64(), Insured: insured}, nil
	}

	return nil, fmt.Errorf("no PoolCreated event found in receipt %s", receipt.TxHash.Hex())
}
