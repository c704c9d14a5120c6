// Command agent is the oracle agent's process entry point: it wires the
// chain client, evidence fetcher, dual auditor, commerce handler, social
// client, and controller together and runs them until a shutdown signal
// arrives (spec §1, §7).
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/covenantfi/oracle-agent/cache"
	"github.com/covenantfi/oracle-agent/chain"
	"github.com/covenantfi/oracle-agent/commerce"
	"github.com/covenantfi/oracle-agent/controller"
	"github.com/covenantfi/oracle-agent/domain/pool"
	"github.com/covenantfi/oracle-agent/evidence"
	"github.com/covenantfi/oracle-agent/infrastructure/enclave"
	"github.com/covenantfi/oracle-agent/infrastructure/logging"
	"github.com/covenantfi/oracle-agent/infrastructure/metrics"
	"github.com/covenantfi/oracle-agent/infrastructure/resilience"
	"github.com/covenantfi/oracle-agent/internal/config"
	"github.com/covenantfi/oracle-agent/internal/crypto"
	"github.com/covenantfi/oracle-agent/oracle"
	"github.com/covenantfi/oracle-agent/persistence"
	"github.com/covenantfi/oracle-agent/social"
)

const serviceName = "oracle-agent"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(serviceName, cfg.LogLevel, cfg.LogFormat)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	enc, err := enclave.New(enclave.Config{AgentType: serviceName})
	if err != nil {
		log.Fatalf("enclave: %v", err)
	}
	if err := enc.Initialize(ctx); err != nil {
		log.Fatalf("enclave: initialize: %v", err)
	}

	privateKeyHex, err := resolvePrivateKeyHex(cfg, enc)
	if err != nil {
		log.Fatalf("wallet key: %v", err)
	}

	variant, contractAddr := selectVariant(cfg)

	chainClient, err := chain.Dial(chain.Config{
		RPCURL:              cfg.RPCURL,
		ChainID:             cfg.ChainID,
		PrivateKeyHex:       privateKeyHex,
		LegacyContractAddr:  cfg.LegacyContractAddr,
		CurrentContractAddr: cfg.CurrentContractAddr,
		StablecoinAddress:   cfg.StablecoinAddress,
		WriteTimeout:        cfg.RPCWriteTimeout,
		ReadTimeout:         cfg.RPCReadTimeout,
		Retry:               resilience.DefaultRetryConfig(),
	}, logger)
	if err != nil {
		log.Fatalf("chain: dial: %v", err)
	}

	poolCache := cache.New(chainClient.GetPool, cfg.CacheTTL, cfg.InterRPCReadDelay)
	evidenceFetcher := evidence.New(enc, logger)

	judge := oracle.NewHTTPLLMClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)
	auditorLLM := oracle.NewHTTPLLMClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)
	dualAuditor := oracle.NewDualAuditor(evidenceFetcher, judge, auditorLLM, enc, logger)

	registry := pool.New()

	// storeArg stays a nil interface (not a non-nil interface wrapping a nil
	// *persistence.Store) when Open fails, so the controller's own "store
	// != nil" check actually disables persistence instead of panicking on
	// the first Save.
	var storeArg interface {
		Save(ctx context.Context, registry *pool.Registry) error
	}
	stateKey, keyErr := resolveStateEncryptionKey(enc)
	if keyErr != nil {
		logger.Warn(ctx, "persistence: state encryption key derivation failed, writing snapshot in plaintext", map[string]interface{}{"error": keyErr.Error()})
	}
	store, err := persistence.Open(cfg.StateFilePath, stateKey)
	if err != nil {
		logger.Warn(ctx, "persistence: open failed, starting from an empty registry", map[string]interface{}{"path": cfg.StateFilePath, "error": err.Error()})
	} else {
		storeArg = store
		if err := store.Load(ctx, registry); err != nil {
			logger.Warn(ctx, "persistence: load failed, starting from an empty registry", map[string]interface{}{"path": cfg.StateFilePath, "error": err.Error()})
		}
	}

	var socialClient social.Client
	if cfg.SocialBaseURL != "" {
		httpSocial, err := social.NewHTTPClient(cfg.SocialBaseURL, cfg.SocialAPIKey, logger)
		if err != nil {
			logger.Warn(ctx, "social: client init failed, running without social engagement", map[string]interface{}{"error": err.Error()})
		} else {
			socialClient = httpSocial
		}
	}

	m := metrics.New(serviceName)

	commerceHandler := commerce.NewHandler(chainClient, registry, variant, evidenceFetcher.Fetch, logger)
	go commerceHandler.Run(ctx)

	role := resolveRole(ctx, chainClient, variant, logger)

	agent := controller.New(
		controller.Config{
			ChainID:           cfg.ChainID,
			Variant:           variant,
			ContractAddress:   contractAddr,
			MaxLivePools:      cfg.MaxLivePools,
			CreationCooldown:  cfg.CreationCooldown,
			PauseCreation:     cfg.PauseCreation,
			InterCommentDelay: cfg.InterCommentDelay,
			DeepLinkBaseURL:   cfg.SocialBaseURL,
			OracleCycle:       cfg.OracleCycle,
			SocialOnlyCycle:   cfg.SocialOnlyCycle,
		},
		chainClient,
		poolCache,
		dualAuditor,
		socialClient,
		registry,
		storeArg,
		evidenceFetcher.Fetch,
		role,
		logger,
		m,
	)

	controllerErrC := make(chan error, 1)
	go func() { controllerErrC <- agent.Run(ctx) }()

	var metricsServer *http.Server
	if cfg.MetricsEnabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info(ctx, "metrics server listening", map[string]interface{}{"port": cfg.MetricsPort})
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error(ctx, "metrics server error", err, nil)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info(ctx, "shutdown signal received", nil)
	case err := <-controllerErrC:
		if err != nil {
			logger.Error(ctx, "controller exited", err, nil)
		}
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn(ctx, "metrics server shutdown error", map[string]interface{}{"error": err.Error()})
		}
	}

	logger.Info(ctx, "agent stopped", nil)
}

// resolvePrivateKeyHex returns the hex-encoded oracle wallet key: the
// enclave's sealed secret under enclave mode, or the plaintext value
// internal/config already loaded from the environment otherwise.
func resolvePrivateKeyHex(cfg *config.Config, enc *enclave.Enclave) (string, error) {
	if !cfg.EnclaveMode {
		return cfg.PrivateKeyHex, nil
	}
	secret, ok := enc.Secret("AGENT_PRIVATE_KEY")
	if !ok {
		return "", fmt.Errorf("enclave mode requires an AGENT_PRIVATE_KEY secret")
	}
	return hex.EncodeToString(secret), nil
}

// resolveStateEncryptionKey derives the at-rest key for the persisted
// snapshot from an enclave-sealed master secret, via HKDF so the same key
// is reproducible across restarts without being stored anywhere itself. A
// deployment with no STATE_ENCRYPTION_KEY secret configured gets a nil key
// back (plaintext snapshot), which resolvePrivateKeyHex's enclave-mode
// requirement does not extend to — state encryption is defense in depth,
// not a hard startup requirement.
func resolveStateEncryptionKey(enc *enclave.Enclave) ([]byte, error) {
	master, ok := enc.Secret("STATE_ENCRYPTION_KEY")
	if !ok {
		return nil, nil
	}
	return crypto.DeriveKey(master, []byte("oracle-agent-state-snapshot"), "state-snapshot-v1", 32)
}

// selectVariant resolves which contract variant new pools target and its
// address, from internal/config.Config.NewPoolMode.
func selectVariant(cfg *config.Config) (pool.Variant, string) {
	if cfg.NewPoolMode == config.ModeLegacy && cfg.HasLegacy() {
		return pool.Legacy, cfg.LegacyContractAddr
	}
	if cfg.HasCurrent() {
		return pool.Current, cfg.CurrentContractAddr
	}
	return pool.Legacy, cfg.LegacyContractAddr
}

// resolveRole probes the contract's configured oracle address against this
// process's wallet address. A mismatch or a probe failure degrades the
// controller to RoleSocialOnly rather than failing startup outright — the
// agent still reads the chain and engages socially, it just never attempts
// a resolution or creation it is not authorized to gate (spec §7).
func resolveRole(ctx context.Context, chainClient *chain.Client, variant pool.Variant, logger *logging.Logger) controller.Role {
	configured, err := chainClient.GetConfiguredOracle(ctx, variant)
	if err != nil {
		logger.Warn(ctx, "oracle authorization probe failed, running in degraded social-only mode", map[string]interface{}{"error": err.Error()})
		return controller.RoleSocialOnly
	}
	if configured != chainClient.Address() {
		logger.Warn(ctx, "wallet is not the contract's configured oracle, running in degraded social-only mode", map[string]interface{}{"configured_oracle": configured.Hex(), "wallet": chainClient.Address().Hex()})
		return controller.RoleSocialOnly
	}
	return controller.RoleOracle
}
