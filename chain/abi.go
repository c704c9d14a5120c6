package chain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/covenantfi/oracle-agent/domain/pool"
)

// ABI fragments are embedded as JSON strings and parsed once at package init,
// following the attestor reference's abi.JSON(strings.NewReader(...)) pattern
// rather than shipping generated bindings — the agent only ever calls a
// fixed, small method/event surface (spec §6).

const legacyABIJSON = `[
 {"type":"function","name":"createPool","stateMutability":"nonpayable",
  "inputs":[{"name":"description","type":"string"},{"name":"evidenceSourceURL","type":"string"},
            {"name":"coverageAmount","type":"uint256"},{"name":"premiumRateBps","type":"uint256"},
            {"name":"deadline","type":"uint256"}],
  "outputs":[{"name":"poolId","type":"uint256"}]},
 {"type":"function","name":"getRequiredPremium","stateMutability":"view",
  "inputs":[{"name":"poolId","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
 {"type":"function","name":"resolvePool","stateMutability":"nonpayable",
  "inputs":[{"name":"poolId","type":"uint256"},{"name":"claimApproved","type":"bool"}],"outputs":[]},
 {"type":"function","name":"cancelAndRefund","stateMutability":"nonpayable",
  "inputs":[{"name":"poolId","type":"uint256"}],"outputs":[]},
 {"type":"function","name":"emergencyResolve","stateMutability":"nonpayable",
  "inputs":[{"name":"poolId","type":"uint256"}],"outputs":[]},
 {"type":"function","name":"getPool","stateMutability":"view",
  "inputs":[{"name":"poolId","type":"uint256"}],
  "outputs":[{"name":"description","type":"string"},{"name":"evidenceSourceURL","type":"string"},
             {"name":"coverageAmount","type":"uint256"},{"name":"premiumAmount","type":"uint256"},
             {"name":"premiumRateBps","type":"uint256"},{"name":"deadline","type":"uint256"},
             {"name":"status","type":"uint8"},{"name":"claimApproved","type":"bool"}]},
 {"type":"function","name":"getPoolAccounting","stateMutability":"view",
  "inputs":[{"name":"poolId","type":"uint256"}],
  "outputs":[{"name":"totalCollateral","type":"uint256"},{"name":"premiumCollected","type":"uint256"}]},
 {"type":"function","name":"getPoolParticipants","stateMutability":"view",
  "inputs":[{"name":"poolId","type":"uint256"}],"outputs":[{"name":"","type":"address[]"}]},
 {"type":"function","name":"nextPoolId","stateMutability":"view",
  "inputs":[],"outputs":[{"name":"","type":"uint256"}]},
 {"type":"function","name":"oracle","stateMutability":"view",
  "inputs":[],"outputs":[{"name":"","type":"address"}]},
 {"type":"function","name":"fundPremium","stateMutability":"nonpayable",
  "inputs":[{"name":"poolId","type":"uint256"}],"outputs":[]},
 {"type":"function","name":"provideCollateral","stateMutability":"nonpayable",
  "inputs":[{"name":"poolId","type":"uint256"},{"name":"amount","type":"uint256"}],"outputs":[]},
 {"type":"function","name":"withdraw","stateMutability":"nonpayable",
  "inputs":[{"name":"poolId","type":"uint256"}],"outputs":[]},
 {"type":"event","name":"PoolCreated","anonymous":false,
  "inputs":[{"name":"poolId","type":"uint256","indexed":true},{"name":"insured","type":"address","indexed":true}]},
 {"type":"event","name":"PremiumFunded","anonymous":false,
  "inputs":[{"name":"poolId","type":"uint256","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
 {"type":"event","name":"AgentJoined","anonymous":false,
  "inputs":[{"name":"poolId","type":"uint256","indexed":true},{"name":"provider","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
 {"type":"event","name":"PoolActivated","anonymous":false,
  "inputs":[{"name":"poolId","type":"uint256","indexed":true}]},
 {"type":"event","name":"PoolResolved","anonymous":false,
  "inputs":[{"name":"poolId","type":"uint256","indexed":true},{"name":"claimApproved","type":"bool","indexed":false}]},
 {"type":"event","name":"PoolCancelled","anonymous":false,
  "inputs":[{"name":"poolId","type":"uint256","indexed":true}]}
]`

const currentABIJSON = `[
 {"type":"function","name":"createAndFund","stateMutability":"nonpayable",
  "inputs":[{"name":"description","type":"string"},{"name":"evidenceSourceURL","type":"string"},
            {"name":"coverageAmount","type":"uint256"},{"name":"premiumRateBps","type":"uint256"},
            {"name":"deadline","type":"uint256"}],
  "outputs":[{"name":"poolId","type":"uint256"}]},
 {"type":"function","name":"resolvePool","stateMutability":"nonpayable",
  "inputs":[{"name":"poolId","type":"uint256"},{"name":"claimApproved","type":"bool"}],"outputs":[]},
 {"type":"function","name":"cancelAndRefund","stateMutability":"nonpayable",
  "inputs":[{"name":"poolId","type":"uint256"}],"outputs":[]},
 {"type":"function","name":"emergencyResolve","stateMutability":"nonpayable",
  "inputs":[{"name":"poolId","type":"uint256"}],"outputs":[]},
 {"type":"function","name":"getPool","stateMutability":"view",
  "inputs":[{"name":"poolId","type":"uint256"}],
  "outputs":[{"name":"description","type":"string"},{"name":"evidenceSourceURL","type":"string"},
             {"name":"coverageAmount","type":"uint256"},{"name":"premiumAmount","type":"uint256"},
             {"name":"premiumRateBps","type":"uint256"},{"name":"deadline","type":"uint256"},
             {"name":"status","type":"uint8"},{"name":"claimApproved","type":"bool"}]},
 {"type":"function","name":"getPoolAccounting","stateMutability":"view",
  "inputs":[{"name":"poolId","type":"uint256"}],
  "outputs":[{"name":"totalCollateral","type":"uint256"},{"name":"premiumCollected","type":"uint256"}]},
 {"type":"function","name":"getPoolParticipants","stateMutability":"view",
  "inputs":[{"name":"poolId","type":"uint256"}],"outputs":[{"name":"","type":"address[]"}]},
 {"type":"function","name":"nextPoolId","stateMutability":"view",
  "inputs":[],"outputs":[{"name":"","type":"uint256"}]},
 {"type":"function","name":"oracle","stateMutability":"view",
  "inputs":[],"outputs":[{"name":"","type":"address"}]},
 {"type":"function","name":"fundPremium","stateMutability":"nonpayable",
  "inputs":[{"name":"poolId","type":"uint256"}],"outputs":[]},
 {"type":"function","name":"provideCollateral","stateMutability":"nonpayable",
  "inputs":[{"name":"poolId","type":"uint256"},{"name":"amount","type":"uint256"}],"outputs":[]},
 {"type":"function","name":"withdraw","stateMutability":"nonpayable",
  "inputs":[{"name":"poolId","type":"uint256"}],"outputs":[]},
 {"type":"event","name":"PoolCreated","anonymous":false,
  "inputs":[{"name":"poolId","type":"uint256","indexed":true},{"name":"insured","type":"address","indexed":true}]},
 {"type":"event","name":"AgentJoined","anonymous":false,
  "inputs":[{"name":"poolId","type":"uint256","indexed":true},{"name":"provider","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
 {"type":"event","name":"PoolActivated","anonymous":false,
  "inputs":[{"name":"poolId","type":"uint256","indexed":true}]},
 {"type":"event","name":"PoolResolved","anonymous":false,
  "inputs":[{"name":"poolId","type":"uint256","indexed":true},{"name":"claimApproved","type":"bool","indexed":false}]},
 {"type":"event","name":"PoolCancelled","anonymous":false,
  "inputs":[{"name":"poolId","type":"uint256","indexed":true}]}
]`

// erc20ABIJSON is a minimal ERC-20 fragment used only for display/accounting
// reads of the stablecoin (decimals, balanceOf, Transfer event) — the agent
// never moves stablecoin itself.
const erc20ABIJSON = `[
 {"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
 {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
 {"type":"event","name":"Transfer","anonymous":false,
  "inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]}
]`

var (
	legacyABI  abi.ABI
	currentABI abi.ABI
	erc20ABI   abi.ABI
)

func init() {
	var err error
	legacyABI, err = abi.JSON(strings.NewReader(legacyABIJSON))
	if err != nil {
		panic("chain: invalid legacy ABI fragment: " + err.Error())
	}
	currentABI, err = abi.JSON(strings.NewReader(currentABIJSON))
	if err != nil {
		panic("chain: invalid current ABI fragment: " + err.Error())
	}
	erc20ABI, err = abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		panic("chain: invalid erc20 ABI fragment: " + err.Error())
	}
}

// abiFor returns the parsed ABI for the given contract variant.
func abiFor(v pool.Variant) abi.ABI {
	if v == pool.Legacy {
		return legacyABI
	}
	return currentABI
}

// The three encoders below build calldata for counterparty-submitted calls
// the agent itself never signs — the insured's premium payment, a
// collateral provider's deposit, and either party's post-resolution
// payout. They exist so published artifacts can carry a real, ABI-encoded
// machine-execution payload (spec §4.7/§6) instead of an empty Calls list.

// EncodeFundPremium returns calldata for fundPremium(poolId), the insured's
// premium payment that moves a Legacy pool from Pending to Open. Current
// pools fund the premium atomically at creation via createAndFund and never
// need this call.
func EncodeFundPremium(variant pool.Variant, poolID uint64) ([]byte, error) {
	return abiFor(variant).Pack("fundPremium", new(big.Int).SetUint64(poolID))
}

// EncodeProvideCollateral returns calldata for provideCollateral(poolId,
// amount), a collateral provider's deposit against an Open pool's coverage
// amount.
func EncodeProvideCollateral(variant pool.Variant, poolID uint64, amount *big.Int) ([]byte, error) {
	return abiFor(variant).Pack("provideCollateral", new(big.Int).SetUint64(poolID), amount)
}

// EncodeWithdraw returns calldata for withdraw(poolId), used by both the
// insured (cancellation refund) and collateral providers (post-resolution
// payout) once a pool reaches a terminal state.
func EncodeWithdraw(variant pool.Variant, poolID uint64) ([]byte, error) {
	return abiFor(variant).Pack("withdraw", new(big.Int).SetUint64(poolID))
}
