package wallet

import (
	"context"
	"fmt"

	internalAws "github.com/dex-wallet/wallet-session-go/internal/aws"
	"github.com/dex-wallet/wallet-session-go/internal/keyGenerator/awsKms"
	"github.com/dex-wallet/wallet-session-go/pkg/assets"
	"github.com/dex-wallet/wallet-session-go/pkg/assets/fetcher"
	"github.com/dex-wallet/wallet-session-go/pkg/codec"
	"github.com/dex-wallet/wallet-session-go/pkg/config"
	"github.com/dex-wallet/wallet-session-go/pkg/dispatcher"
	"github.com/dex-wallet/wallet-session-go/pkg/matcher"
	"github.com/dex-wallet/wallet-session-go/pkg/persistence"
	badgerPersistence "github.com/dex-wallet/wallet-session-go/pkg/persistence/badger"
	"github.com/dex-wallet/wallet-session-go/pkg/persistence/memory"
	redisPersistence "github.com/dex-wallet/wallet-session-go/pkg/persistence/redis"
	"github.com/dex-wallet/wallet-session-go/pkg/session"
	"github.com/dex-wallet/wallet-session-go/pkg/signer"
	"github.com/dex-wallet/wallet-session-go/pkg/signer/keyPairSigner"
	"github.com/dex-wallet/wallet-session-go/pkg/signer/kmsSigner"
	"github.com/dex-wallet/wallet-session-go/pkg/transport"
	"github.com/dex-wallet/wallet-session-go/pkg/types"
	"go.uber.org/zap"
)

// Wallet wires the session manager, the sign dispatcher and the asset resolver for one configuration.
type Wallet struct {
	cfg        *config.WalletConfig
	logger     *zap.Logger
	codec      *codec.WavesCodec
	cache      persistence.IAssetPersistence
	dispatcher *dispatcher.Dispatcher
	matcher    *matcher.Client
	resolver   *assets.Resolver
	manager    *session.Manager
}

// Options overrides collaborators that are otherwise built from the configuration.
type Options struct {
	// Balances defaults to a tracker that only logs the tracked address.
	Balances session.IBalanceTracker
	// Cache overrides the configured asset cache backend. The wallet owns it from then on and
	// closes it on Close or when it fails its health check.
	Cache persistence.IAssetPersistence
	// Rounding assigns rounding modes to asset ids.
	Rounding map[string]assets.RoundingMode
}

func NewWallet(cfg *config.WalletConfig, opts *Options, logger *zap.Logger) (*Wallet, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if opts == nil {
		opts = &Options{}
	}

	cache := opts.Cache
	var err error
	if cache != nil {
		cache, err = checkAssetCache(cache)
	} else {
		cache, err = NewAssetCache(cfg, logger)
	}
	if err != nil {
		return nil, err
	}

	nodeClient, err := transport.NewClient(&transport.ClientConfig{
		BaseURL:           cfg.NodeURL,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            logger.Named("node"),
	})
	if err != nil {
		_ = cache.Close()
		return nil, fmt.Errorf("failed to create node client: %w", err)
	}
	matcherTransport, err := transport.NewClient(&transport.ClientConfig{
		BaseURL:           cfg.MatcherURL,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            logger.Named("matcher"),
	})
	if err != nil {
		_ = cache.Close()
		return nil, fmt.Errorf("failed to create matcher client: %w", err)
	}

	balances := opts.Balances
	if balances == nil {
		balances = newLoggingBalanceTracker(logger)
	}

	d := dispatcher.NewDispatcher(logger)
	m := matcher.NewClient(matcherTransport, logger)
	manager, err := session.NewManager(&session.ManagerConfig{
		Dispatcher: d,
		Matcher:    m,
		Balances:   balances,
		ChainId:    cfg.ChainId(),
		Logger:     logger,
	})
	if err != nil {
		_ = cache.Close()
		return nil, err
	}

	return &Wallet{
		cfg:        cfg,
		logger:     logger,
		codec:      codec.NewWavesCodec(cfg.ChainId()),
		cache:      cache,
		dispatcher: d,
		matcher:    m,
		resolver:   assets.NewResolver(fetcher.NewNodeFetcher(nodeClient, opts.Rounding, logger), cache, logger),
		manager:    manager,
	}, nil
}

// NewAssetCache builds the asset cache backend selected by cfg.CacheType and checks that it is usable.
func NewAssetCache(cfg *config.WalletConfig, logger *zap.Logger) (persistence.IAssetPersistence, error) {
	cache, err := openAssetCache(cfg, logger)
	if err != nil {
		return nil, err
	}
	return checkAssetCache(cache)
}

// checkAssetCache closes cache and fails when its health check does.
func checkAssetCache(cache persistence.IAssetPersistence) (persistence.IAssetPersistence, error) {
	if err := cache.HealthCheck(); err != nil {
		_ = cache.Close()
		return nil, fmt.Errorf("asset cache is not healthy: %w", err)
	}
	return cache, nil
}

func openAssetCache(cfg *config.WalletConfig, logger *zap.Logger) (persistence.IAssetPersistence, error) {
	switch cfg.CacheType {
	case persistence.PersistenceTypeMemory, "":
		return memory.NewMemoryPersistence(cfg.CacheTTL), nil
	case persistence.PersistenceTypeBadger:
		bp, err := badgerPersistence.NewBadgerPersistence(cfg.BadgerPath, cfg.CacheTTL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger cache: %w", err)
		}
		return bp, nil
	case persistence.PersistenceTypeRedis:
		rp, err := redisPersistence.NewRedisPersistence(&redisPersistence.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.CacheTTL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect redis cache: %w", err)
		}
		return rp, nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.CacheType)
	}
}

// NewConfiguredSigner builds the signer selected by cfg.SignerType.
func NewConfiguredSigner(ctx context.Context, cfg *config.WalletConfig, c codec.ICodec, logger *zap.Logger) (signer.ISigner, error) {
	switch cfg.SignerType {
	case signer.SignerTypeLocal:
		kps, err := keyPairSigner.NewKeyPairSignerFromSeed(cfg.Seed, cfg.SeedNonce, cfg.ChainId(), c, logger)
		if err != nil {
			return nil, err
		}
		return kps, nil
	case signer.SignerTypeAWSKMS:
		awsCfg, err := internalAws.LoadAWSConfig(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		if arn, err := internalAws.GetCallerIdentity(ctx, awsCfg); err != nil {
			logger.Sugar().Warnw("Failed to resolve AWS caller identity", "error", err)
		} else {
			logger.Sugar().Infow("Using AWS identity", "arn", arn)
		}
		keys := awsKms.NewAWSKMSKeyGenerator(awsCfg, awsCfg.Region, string(cfg.Chain), logger)
		ks, err := kmsSigner.NewKMSSigner(ctx, keys, cfg.KMSKeyId, cfg.ChainId(), c, logger)
		if err != nil {
			return nil, err
		}
		return ks, nil
	default:
		return nil, fmt.Errorf("%w: no signer configured", types.ErrNoActiveSigner)
	}
}

// Login logs in with the signer selected by the configuration.
func (w *Wallet) Login(ctx context.Context) (session.Session, error) {
	s, err := NewConfiguredSigner(ctx, w.cfg, w.codec, w.logger)
	if err != nil {
		return session.Empty, err
	}
	return w.LoginWith(ctx, s)
}

// LoginWith logs in with s, bound to the address s reports.
func (w *Wallet) LoginWith(ctx context.Context, s signer.ISigner) (session.Session, error) {
	if s == nil {
		return session.Empty, fmt.Errorf("signer cannot be nil")
	}
	address, err := s.GetAddress(ctx)
	if err != nil {
		return session.Empty, fmt.Errorf("failed to get signer address: %w", err)
	}
	return w.manager.Login(ctx, address, s)
}

func (w *Wallet) LogOut() session.Session {
	return w.manager.LogOut()
}

func (w *Wallet) Session() session.Session {
	return w.manager.Current()
}

func (w *Wallet) Sign(ctx context.Context, payload types.SignPayload) (string, error) {
	return w.dispatcher.Sign(ctx, payload)
}

func (w *Wallet) SignRaw(ctx context.Context, req *types.RawSignRequest) (string, error) {
	return w.dispatcher.SignRaw(ctx, req)
}

// SignWith signs req with s without touching the session: s is installed on a dispatcher of its own
// that is dropped before returning.
func (w *Wallet) SignWith(ctx context.Context, s signer.ISigner, req *types.RawSignRequest) (string, error) {
	d := dispatcher.NewDispatcher(w.logger)
	if err := d.InstallSigner(s); err != nil {
		return "", err
	}
	defer d.DropSigner()
	return d.SignRaw(ctx, req)
}

// CachedAssets lists every asset in the asset cache.
func (w *Wallet) CachedAssets() ([]*assets.Asset, error) {
	return w.cache.ListAssets()
}

// ForgetAsset evicts an asset from the cache so the next lookup goes back to the node.
func (w *Wallet) ForgetAsset(id string) error {
	if id == "" {
		return fmt.Errorf("asset id cannot be empty")
	}
	if assets.IsNativeAssetID(id) {
		return fmt.Errorf("the native asset is never cached")
	}
	if err := w.cache.DeleteAsset(id); err != nil {
		return fmt.Errorf("failed to forget asset %s: %w", id, err)
	}
	w.logger.Sugar().Infow("Forgot cached asset", "assetId", id)
	return nil
}

func (w *Wallet) Codec() *codec.WavesCodec             { return w.codec }
func (w *Wallet) Resolver() *assets.Resolver           { return w.resolver }
func (w *Wallet) Dispatcher() *dispatcher.Dispatcher   { return w.dispatcher }
func (w *Wallet) Matcher() *matcher.Client             { return w.matcher }
func (w *Wallet) Manager() *session.Manager            { return w.manager }
func (w *Wallet) Cache() persistence.IAssetPersistence { return w.cache }

// Close logs out and releases the asset cache.
func (w *Wallet) Close() error {
	w.manager.LogOut()
	return w.cache.Close()
}

// loggingBalanceTracker stands in for an external balance component.
type loggingBalanceTracker struct {
	logger *zap.Logger
}

func newLoggingBalanceTracker(logger *zap.Logger) *loggingBalanceTracker {
	return &loggingBalanceTracker{logger: logger}
}

func (t *loggingBalanceTracker) ApplyAddress(ctx context.Context, address string) error {
	t.logger.Sugar().Infow("Tracking balances", "address", address)
	return nil
}

func (t *loggingBalanceTracker) DropAddress() {
	t.logger.Sugar().Infow("Stopped tracking balances")
}
