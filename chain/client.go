// Package chain wraps an EVM JSON-RPC endpoint with a typed surface over the
// two insurance-pool contract variants: contract reads, transaction
// submission, receipt waiting, and nonce serialization (spec §4.1). It hides
// all ABI encoding from callers.
package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/covenantfi/oracle-agent/domain/pool"
	svcerrors "github.com/covenantfi/oracle-agent/infrastructure/errors"
	"github.com/covenantfi/oracle-agent/infrastructure/logging"
	"github.com/covenantfi/oracle-agent/infrastructure/resilience"
)

var (
	errNoLegacyContract  = errors.New("chain: legacy contract address not configured")
	errNoCurrentContract = errors.New("chain: current contract address not configured")
	errUnknownVariant    = errors.New("chain: unknown contract variant")

	// ErrReverted indicates the transaction was mined but the contract
	// rejected the call — terminal for that call, never retried.
	ErrReverted = errors.New("chain: transaction reverted")
)

// Config configures a Client.
type Config struct {
	RPCURL             string
	ChainID            int64
	PrivateKeyHex      string // hex-encoded, no 0x prefix
	LegacyContractAddr string // optional
	CurrentContractAddr string
	StablecoinAddress  string

	WriteTimeout time.Duration // per write+receipt (floor 120s, spec §5)
	ReadTimeout  time.Duration // per read (floor 20s, spec §5)

	Retry resilience.RetryConfig
}

// Client is a thread-safe wrapper over ethclient.Client. Writes are
// serialized by writeMu, held for the duration of submit-and-wait, so
// nonces increase monotonically (spec §4.1, §5).
type Client struct {
	rpc *ethclient.Client

	privateKey *ecdsa.PrivateKey
	address    common.Address
	chainID    *big.Int

	legacyAddr    common.Address
	currentAddr   common.Address
	stablecoinAddr common.Address

	writeTimeout time.Duration
	readTimeout  time.Duration
	retryCfg     resilience.RetryConfig

	writeMu sync.Mutex

	breaker *resilience.CircuitBreaker
	log     *logging.Logger
}

// Dial connects to the RPC endpoint and derives the wallet address from the
// configured private key.
func Dial(cfg Config, log *logging.Logger) (*Client, error) {
	rpc, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, svcerrors.ChainError("dial", err)
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKeyHex, "0x"))
	if err != nil {
		return nil, svcerrors.ChainError("parse private key", err)
	}
	address := crypto.PubkeyToAddress(privateKey.PublicKey)

	c := &Client{
		rpc:            rpc,
		privateKey:     privateKey,
		address:        address,
		chainID:        big.NewInt(cfg.ChainID),
		stablecoinAddr: common.HexToAddress(cfg.StablecoinAddress),
		writeTimeout:   orDefault(cfg.WriteTimeout, 120*time.Second),
		readTimeout:    orDefault(cfg.ReadTimeout, 20*time.Second),
		retryCfg:       cfg.Retry,
		log:            log,
	}
	c.breaker = resilience.New(resilience.Config{
		MaxFailures: 5,
		Timeout:     30 * time.Second,
		HalfOpenMax: 3,
		// A revert is a terminal business-logic outcome, not an RPC/node
		// availability failure — it must not count toward tripping the
		// breaker (spec §4.1, §7).
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrReverted)
		},
		OnStateChange: func(from, to resilience.State) {
			if log != nil {
				log.Warn(context.Background(), "chain: circuit breaker state changed", map[string]interface{}{"from": from.String(), "to": to.String()})
			}
		},
	})
	if cfg.LegacyContractAddr != "" {
		c.legacyAddr = common.HexToAddress(cfg.LegacyContractAddr)
	}
	if cfg.CurrentContractAddr != "" {
		c.currentAddr = common.HexToAddress(cfg.CurrentContractAddr)
	}
	return c, nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// Address returns the oracle wallet's address.
func (c *Client) Address() common.Address { return c.address }

// withRetry runs fn through the RPC circuit breaker, retrying transient
// errors with exponential backoff inside each breaker-gated attempt. A
// revert (wrapped in backoff.Permanent by submitAndWait) stops the retry
// loop immediately and is excluded from the breaker's failure count — see
// the IsSuccessful config in Dial.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	cfg := c.retryCfg
	if cfg.MaxAttempts == 0 {
		cfg = resilience.DefaultRetryConfig()
	}
	return c.breaker.Execute(ctx, func() error {
		return resilience.Retry(ctx, cfg, fn)
	})
}

// GetConfiguredOracle reads the oracle address the contract currently trusts
// — used at startup to self-verify authorization (spec §7).
func (c *Client) GetConfiguredOracle(ctx context.Context, variant pool.Variant) (common.Address, error) {
	addr, err := c.addressFor(variant)
	if err != nil {
		return common.Address{}, err
	}

	var result common.Address
	err = c.withRetry(ctx, func() error {
		rctx, cancel := context.WithTimeout(ctx, c.readTimeout)
		defer cancel()

		contract := bind.NewBoundContract(addr, abiFor(variant), c.rpc, c.rpc, c.rpc)
		var out []interface{}
		if err := contract.Call(&bind.CallOpts{Context: rctx}, &out, "oracle"); err != nil {
			return err
		}
		if len(out) != 1 {
			return fmt.Errorf("oracle(): unexpected output arity %d", len(out))
		}
		a, ok := out[0].(common.Address)
		if !ok {
			return fmt.Errorf("oracle(): unexpected output type %T", out[0])
		}
		result = a
		return nil
	})
	if err != nil {
		return common.Address{}, svcerrors.ChainError("get_configured_oracle", err)
	}
	return result, nil
}

// GetNextPoolID returns the next pool id the contract will assign, used for
// cold-start reconciliation (spec §4.8).
func (c *Client) GetNextPoolID(ctx context.Context, variant pool.Variant) (uint64, error) {
	addr, err := c.addressFor(variant)
	if err != nil {
		return 0, err
	}

	var result uint64
	err = c.withRetry(ctx, func() error {
		rctx, cancel := context.WithTimeout(ctx, c.readTimeout)
		defer cancel()

		contract := bind.NewBoundContract(addr, abiFor(variant), c.rpc, c.rpc, c.rpc)
		var out []interface{}
		if err := contract.Call(&bind.CallOpts{Context: rctx}, &out, "nextPoolId"); err != nil {
			return err
		}
		n, ok := out[0].(*big.Int)
		if !ok {
			return fmt.Errorf("nextPoolId(): unexpected output type %T", out[0])
		}
		result = n.Uint64()
		return nil
	})
	if err != nil {
		return 0, svcerrors.ChainError("get_next_pool_id", err)
	}
	return result, nil
}

// GetPool reads a pool's current on-chain state.
func (c *Client) GetPool(ctx context.Context, variant pool.Variant, poolID uint64) (PoolView, error) {
	addr, err := c.addressFor(variant)
	if err != nil {
		return PoolView{}, err
	}

	var view PoolView
	err = c.withRetry(ctx, func() error {
		rctx, cancel := context.WithTimeout(ctx, c.readTimeout)
		defer cancel()

		contract := bind.NewBoundContract(addr, abiFor(variant), c.rpc, c.rpc, c.rpc)
		var out []interface{}
		if err := contract.Call(&bind.CallOpts{Context: rctx}, &out, "getPool", new(big.Int).SetUint64(poolID)); err != nil {
			return err
		}
		if len(out) != 8 {
			return fmt.Errorf("getPool(): unexpected output arity %d", len(out))
		}

		description, _ := out[0].(string)
		evidenceURL, _ := out[1].(string)
		coverage, _ := out[2].(*big.Int)
		premium, _ := out[3].(*big.Int)
		rateBps, _ := out[4].(*big.Int)
		deadline, _ := out[5].(*big.Int)
		statusCode, _ := out[6].(uint8)
		claimApproved, _ := out[7].(bool)

		view = PoolView{
			Description:       description,
			EvidenceSourceURL: evidenceURL,
			CoverageAmount:    coverage,
			PremiumAmount:     premium,
			PremiumRateBps:    uint32(rateBps.Uint64()),
			Deadline:          deadline.Int64(),
			Status:            pool.StatusFromCode(variant, statusCode),
			ClaimApproved:     claimApproved,
		}
		return nil
	})
	if err != nil {
		return PoolView{}, svcerrors.ChainError("get_pool", err)
	}
	return view, nil
}

// GetPoolAccounting reads a pool's collateral/premium accounting.
func (c *Client) GetPoolAccounting(ctx context.Context, variant pool.Variant, poolID uint64) (PoolAccounting, error) {
	addr, err := c.addressFor(variant)
	if err != nil {
		return PoolAccounting{}, err
	}

	var acc PoolAccounting
	err = c.withRetry(ctx, func() error {
		rctx, cancel := context.WithTimeout(ctx, c.readTimeout)
		defer cancel()

		contract := bind.NewBoundContract(addr, abiFor(variant), c.rpc, c.rpc, c.rpc)
		var out []interface{}
		if err := contract.Call(&bind.CallOpts{Context: rctx}, &out, "getPoolAccounting", new(big.Int).SetUint64(poolID)); err != nil {
			return err
		}
		collateral, _ := out[0].(*big.Int)
		collected, _ := out[1].(*big.Int)
		acc = PoolAccounting{TotalCollateral: collateral, PremiumCollected: collected}
		return nil
	})
	if err != nil {
		return PoolAccounting{}, svcerrors.ChainError("get_pool_accounting", err)
	}
	return acc, nil
}

// CreatePool submits a pool-creation transaction. On Current, createAndFund
// atomically creates and funds the premium, leaving the pool Open; on
// Legacy, createPool leaves the pool Pending awaiting separate funding
// (spec §4.1). The contract assigns the pool id, extracted from the
// PoolCreated receipt event.
func (c *Client) CreatePool(ctx context.Context, variant pool.Variant, params CreatePoolParams) (poolID uint64, txHash string, err error) {
	method := "createAndFund"
	if variant == pool.Legacy {
		method = "createPool"
	}

	receipt, hash, err := c.submitAndWait(ctx, variant, method,
		params.Description, params.EvidenceSourceURL, params.CoverageAmount,
		new(big.Int).SetUint64(uint64(params.PremiumRateBps)), big.NewInt(params.Deadline))
	if err != nil {
		return 0, "", err
	}

	ev, err := ParsePoolCreatedEvent(variant, receipt)
	if err != nil {
		return 0, hash, svcerrors.ChainError("parse PoolCreated receipt", err)
	}
	return ev.PoolID, hash, nil
}

// ResolvePool submits an oracle-gated resolution.
func (c *Client) ResolvePool(ctx context.Context, variant pool.Variant, poolID uint64, claimApproved bool) (string, error) {
	_, hash, err := c.submitAndWait(ctx, variant, "resolvePool", new(big.Int).SetUint64(poolID), claimApproved)
	return hash, err
}

// CancelAndRefund submits a permissionless cancellation for an underfunded
// pool past its deposit deadline.
func (c *Client) CancelAndRefund(ctx context.Context, variant pool.Variant, poolID uint64) (string, error) {
	_, hash, err := c.submitAndWait(ctx, variant, "cancelAndRefund", new(big.Int).SetUint64(poolID))
	return hash, err
}

// EmergencyResolve submits a permissionless emergency resolution, always
// denying the claim (safety default, spec §4.1).
func (c *Client) EmergencyResolve(ctx context.Context, variant pool.Variant, poolID uint64) (string, error) {
	_, hash, err := c.submitAndWait(ctx, variant, "emergencyResolve", new(big.Int).SetUint64(poolID))
	return hash, err
}

// submitAndWait builds, signs, submits, and awaits one confirmation for a
// write call. It holds writeMu for the entire submit-and-wait duration so
// nonces are strictly serialized (spec §4.1/§5) — mirroring the attestor
// reference's PendingNonceAt + explicit auth.Nonce pattern.
func (c *Client) submitAndWait(ctx context.Context, variant pool.Variant, method string, args ...interface{}) (*types.Receipt, string, error) {
	addr, err := c.addressFor(variant)
	if err != nil {
		return nil, "", err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	wctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()

	var receipt *types.Receipt
	var txHash string

	err = c.withRetry(wctx, func() error {
		nonce, err := c.rpc.PendingNonceAt(wctx, c.address)
		if err != nil {
			return err
		}
		gasPrice, err := c.rpc.SuggestGasPrice(wctx)
		if err != nil {
			return err
		}

		auth, err := bind.NewKeyedTransactorWithChainID(c.privateKey, c.chainID)
		if err != nil {
			return err
		}
		auth.Context = wctx
		auth.Nonce = new(big.Int).SetUint64(nonce)
		auth.Value = big.NewInt(0)
		auth.GasPrice = gasPrice

		contract := bind.NewBoundContract(addr, abiFor(variant), c.rpc, c.rpc, c.rpc)
		tx, err := contract.Transact(auth, method, args...)
		if err != nil {
			if isRevertError(err) {
				return backoff.Permanent(fmt.Errorf("%s: %w", method, ErrReverted))
			}
			return err
		}
		txHash = tx.Hash().Hex()

		rec, err := bind.WaitMined(wctx, c.rpc, tx)
		if err != nil {
			return err
		}
		if rec.Status != types.ReceiptStatusSuccessful {
			return backoff.Permanent(fmt.Errorf("%s: %w", method, ErrReverted))
		}
		receipt = rec
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrReverted) {
			return nil, txHash, err
		}
		return nil, txHash, svcerrors.ChainError(method, err)
	}
	return receipt, txHash, nil
}

// isRevertError classifies a go-ethereum JSON-RPC error as a contract
// revert (terminal) rather than a transient fault (retryable).
func isRevertError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "execution reverted") || strings.Contains(msg, "revert")
}
