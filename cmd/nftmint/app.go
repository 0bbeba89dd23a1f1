package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"solana-nft-mint/internal/config"
	"solana-nft-mint/internal/identity"
	"solana-nft-mint/internal/ledger"
	"solana-nft-mint/internal/logging"
	"solana-nft-mint/internal/metaplex"
	"solana-nft-mint/internal/observability"
	"solana-nft-mint/internal/orchestrator"
	"solana-nft-mint/internal/solana"
	"solana-nft-mint/internal/storage"
	"solana-nft-mint/internal/storage/memory"
	"solana-nft-mint/internal/storage/migrations"
	"solana-nft-mint/internal/storage/postgres"
	"solana-nft-mint/internal/ui"
	"solana-nft-mint/internal/upload"
)

// memoryBaseURL prefixes URIs of the in-process uploader.
const memoryBaseURL = "memory://nftmint"

// app holds state shared by every subcommand.
type app struct {
	// flags
	cfgPath  string
	logLevel string
	logFile  string
	assetDir string

	out      io.Writer
	cfg      *config.Config
	logger   *zap.Logger
	closeLog func() error
	metrics  *observability.Metrics
}

// setup loads the config, applies flag overrides and builds the logger.
func (a *app) setup() error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFile != "" {
		cfg.Log.File = a.logFile
	}
	if a.assetDir != "" {
		cfg.AssetDir = a.assetDir
	}

	logger, closeLog, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.closeLog = closeLog
	a.metrics = observability.NewMetrics("")
	logger.Debug("config loaded",
		zap.String("path", a.cfgPath),
		zap.String("cluster", cfg.Cluster),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("ledger", cfg.Ledger.Backend))
	return nil
}

func (a *app) close() {
	if a.closeLog != nil {
		_ = a.closeLog()
	}
}

// keypairSource selects where the signing key comes from.
func (a *app) keypairSource(ctx context.Context) (identity.Source, error) {
	kc := a.cfg.Keypair
	switch kc.Source {
	case config.KeypairFile:
		return identity.FileSource{Path: expandHome(kc.Path)}, nil
	case config.KeypairSecret:
		src, err := identity.NewSecretSource(ctx, kc.SecretID, kc.Region)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return identity.EnvSource{
			EnvFile:  kc.EnvFile,
			Generate: kc.Generate,
			Logger:   a.logger.Named("identity"),
		}, nil
	}
}

func (a *app) loadKeypair(ctx context.Context) (*solana.Keypair, error) {
	src, err := a.keypairSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("keypair source: %w", err)
	}
	kp, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load keypair: %w", err)
	}
	return kp, nil
}

func (a *app) rpcClient() *solana.HTTPClient {
	rpcURL, _ := a.cfg.Endpoints()
	return solana.NewHTTPClient(rpcURL,
		solana.WithTimeout(a.cfg.RPCTimeout),
		solana.WithMaxRetries(a.cfg.RPCRetries),
		solana.WithObserver(a.metrics.ObserveRPC),
	)
}

// chain bundles the RPC clients used to send and confirm transactions.
type chain struct {
	keypair   *solana.Keypair
	rpc       *solana.HTTPClient
	ws        solana.WSClient
	confirmer *solana.SignatureConfirmer
}

func (c *chain) Close() {
	if c.ws != nil {
		_ = c.ws.Close()
	}
}

// connect dials the websocket endpoint. When it is unreachable,
// confirmations fall back to polling.
func (a *app) connect(ctx context.Context, kp *solana.Keypair) *chain {
	c := &chain{keypair: kp, rpc: a.rpcClient()}
	_, wsURL := a.cfg.Endpoints()

	opts := []solana.ConfirmerOption{
		solana.WithCommitment(a.cfg.CommitmentValue()),
		solana.WithConfirmTimeout(a.cfg.ConfirmAfter),
		solana.WithConfirmLogger(a.logger),
	}
	ws, err := solana.NewWSClient(ctx, wsURL, nil)
	if err != nil {
		a.logger.Warn("websocket unavailable, confirming by polling",
			zap.String("url", wsURL), zap.Error(err))
	} else {
		c.ws = ws
		opts = append(opts, solana.WithWSClient(ws))
	}
	c.confirmer = solana.NewConfirmer(c.rpc, opts...)
	return c
}

func (a *app) fundsChecker(c *chain) *identity.FundsChecker {
	return &identity.FundsChecker{
		RPC:        c.rpc,
		Confirmer:  c.confirmer,
		Cluster:    a.cfg.ClusterValue(),
		MinBalance: config.Lamports(a.cfg.Funds.MinBalanceSOL),
		Airdrop:    config.Lamports(a.cfg.Funds.AirdropSOL),
		Logger:     a.logger.Named("funds"),
	}
}

// ensureFunds tops up the authority before sending transactions.
func (a *app) ensureFunds(ctx context.Context, c *chain) error {
	if a.cfg.Funds.Disabled {
		return nil
	}
	balance, err := a.fundsChecker(c).EnsureFunds(ctx, c.keypair.PublicKey())
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, ui.KeyValue("Balance", formatSOL(balance)))
	return nil
}

func (a *app) uploader(ctx context.Context) (upload.Uploader, error) {
	sc := a.cfg.Storage
	if sc.Backend == config.StorageMemory {
		a.logger.Warn("memory storage: uploaded files are not reachable outside this process")
		return upload.NewMemoryUploader(memoryBaseURL), nil
	}
	if err := a.cfg.ValidateStorage(); err != nil {
		return nil, err
	}
	up, err := upload.NewS3Uploader(ctx, upload.S3Config{
		Bucket:         sc.Bucket,
		Region:         sc.Region,
		Prefix:         sc.Prefix,
		PublicBaseURL:  sc.PublicBaseURL,
		Endpoint:       sc.Endpoint,
		ForcePathStyle: sc.ForcePathStyle,
	}, a.logger)
	if err != nil {
		return nil, err
	}
	return up, nil
}

// ledgerStores are the run ledger backends. close releases connections.
type ledgerStores struct {
	runs   storage.RunStore
	events storage.TokenEventStore
	close  func()
}

// openLedger returns nil stores when the ledger is disabled.
func (a *app) openLedger(ctx context.Context) (*ledgerStores, error) {
	lc := a.cfg.Ledger
	switch lc.Backend {
	case config.LedgerNone:
		return nil, nil
	case config.LedgerPostgres:
		pool, err := postgres.NewPool(ctx, lc.PostgresDSN, lc.MaxConns)
		if err != nil {
			return nil, err
		}
		if lc.Migrate {
			applied, err := migrations.RunPostgresMigrations(ctx, pool)
			if err != nil {
				pool.Close()
				return nil, err
			}
			if len(applied) > 0 {
				a.logger.Info("ledger migrations applied", zap.Strings("files", applied))
			}
		}
		return &ledgerStores{
			runs:   postgres.NewRunStore(pool),
			events: postgres.NewTokenEventStore(pool),
			close:  pool.Close,
		}, nil
	default:
		return &ledgerStores{
			runs:   memory.NewRunStore(),
			events: memory.NewTokenEventStore(),
			close:  func() {},
		}, nil
	}
}

// pipeline is a wired orchestrator and the resources it holds.
type pipeline struct {
	orch   *orchestrator.Orchestrator
	chain  *chain
	ledger *ledgerStores
}

func (p *pipeline) Close() {
	p.chain.Close()
	if p.ledger != nil {
		p.ledger.close()
	}
}

type pipelineOptions struct {
	needUpload bool
	skipCheck  bool
}

// newPipeline loads the key, funds it and wires every component of a run.
func (a *app) newPipeline(ctx context.Context, opts pipelineOptions) (*pipeline, error) {
	var up upload.Uploader
	if opts.needUpload {
		var err error
		if up, err = a.uploader(ctx); err != nil {
			return nil, err
		}
	}

	kp, err := a.loadKeypair(ctx)
	if err != nil {
		return nil, err
	}
	cluster := a.cfg.ClusterValue()
	fmt.Fprintln(a.out, ui.KeyValue("Cluster", cluster))
	fmt.Fprintln(a.out, ui.KeyValue("Authority", kp.PublicKey()))

	c := a.connect(ctx, kp)
	if err := a.ensureFunds(ctx, c); err != nil {
		c.Close()
		return nil, err
	}

	stores, err := a.openLedger(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}
	var recorder *ledger.Recorder
	if stores != nil {
		recorder = ledger.NewRecorder(stores.runs, stores.events, a.logger)
	}

	nfts := metaplex.NewClient(c.rpc, c.confirmer, kp,
		metaplex.WithLogger(a.logger),
		metaplex.WithCommitment(a.cfg.CommitmentValue()),
	)
	orch := orchestrator.New(orchestrator.Options{
		AssetDir:  a.cfg.AssetDir,
		Uploader:  up,
		NFTs:      nfts,
		Cluster:   cluster,
		Recorder:  recorder,
		Metrics:   a.metrics,
		Output:    a.out,
		Logger:    a.logger,
		SkipCheck: opts.skipCheck,
	})
	return &pipeline{orch: orch, chain: c, ledger: stores}, nil
}

// pushMetrics exports the run metrics when a Pushgateway is configured.
// A failed push is logged and does not change the exit status.
func (a *app) pushMetrics(ctx context.Context) {
	mc := a.cfg.Metrics
	if mc.PushgatewayURL == "" {
		return
	}
	if err := a.metrics.Push(context.WithoutCancel(ctx), mc.PushgatewayURL, mc.Job); err != nil {
		a.logger.Warn("metrics push failed", zap.String("url", mc.PushgatewayURL), zap.Error(err))
		return
	}
	a.logger.Debug("metrics pushed", zap.String("url", mc.PushgatewayURL))
}
