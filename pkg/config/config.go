package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/dex-wallet/wallet-session-go/pkg/persistence"
	"github.com/dex-wallet/wallet-session-go/pkg/signer"
	"github.com/joho/godotenv"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for the wallet configuration
const (
	EnvWalletChain          = "WALLET_CHAIN"
	EnvWalletNodeURL        = "WALLET_NODE_URL"
	EnvWalletMatcherURL     = "WALLET_MATCHER_URL"
	EnvWalletCacheType      = "WALLET_CACHE_TYPE"
	EnvWalletCacheTTL       = "WALLET_CACHE_TTL"
	EnvWalletBadgerPath     = "WALLET_BADGER_PATH"
	EnvWalletRedisAddress   = "WALLET_REDIS_ADDRESS"
	EnvWalletRedisPassword  = "WALLET_REDIS_PASSWORD"
	EnvWalletRedisDB        = "WALLET_REDIS_DB"
	EnvWalletSignerType     = "WALLET_SIGNER_TYPE"
	EnvWalletSeed           = "WALLET_SEED"
	EnvWalletSeedNonce      = "WALLET_SEED_NONCE"
	EnvWalletKMSKeyId       = "WALLET_KMS_KEY_ID"
	EnvWalletAWSRegion      = "WALLET_AWS_REGION"
	EnvWalletRequestsPerSec = "WALLET_REQUESTS_PER_SECOND"
	EnvWalletDebug          = "WALLET_DEBUG"
	EnvWalletEnvFile        = "WALLET_ENV_FILE"
)

type ChainName string

const (
	ChainName_Mainnet  ChainName = "mainnet"
	ChainName_Testnet  ChainName = "testnet"
	ChainName_Stagenet ChainName = "stagenet"
)

var ChainNameToId = map[ChainName]byte{
	ChainName_Mainnet:  'W',
	ChainName_Testnet:  'T',
	ChainName_Stagenet: 'S',
}

var defaultNodeURLs = map[ChainName]string{
	ChainName_Mainnet:  "https://nodes.wavesnodes.com",
	ChainName_Testnet:  "https://nodes-testnet.wavesnodes.com",
	ChainName_Stagenet: "https://nodes-stagenet.wavesnodes.com",
}

var defaultMatcherURLs = map[ChainName]string{
	ChainName_Mainnet:  "https://matcher.waves.exchange",
	ChainName_Testnet:  "https://matcher-testnet.waves.exchange",
	ChainName_Stagenet: "https://matcher-stagenet.waves.exchange",
}

// DefaultNodeURL returns the public node of chain, or "" for unknown chains.
func DefaultNodeURL(chain ChainName) string {
	return defaultNodeURLs[chain]
}

// DefaultMatcherURL returns the public matcher of chain, or "" for unknown chains.
func DefaultMatcherURL(chain ChainName) string {
	return defaultMatcherURLs[chain]
}

// GetSupportedChainsString returns supported chain names for CLI help
func GetSupportedChainsString() string {
	return fmt.Sprintf("%s, %s, %s", ChainName_Mainnet, ChainName_Testnet, ChainName_Stagenet)
}

type RedisConfig struct {
	Address  string `json:"address" yaml:"address"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

// WalletConfig is the complete configuration of a wallet session.
type WalletConfig struct {
	Chain      ChainName `json:"chain"`
	NodeURL    string    `json:"node_url"`
	MatcherURL string    `json:"matcher_url"`

	CacheType  persistence.PersistenceType `json:"cache_type"`
	CacheTTL   time.Duration               `json:"cache_ttl"`
	BadgerPath string                      `json:"badger_path"`
	Redis      RedisConfig                 `json:"redis"`

	SignerType signer.SignerType `json:"signer_type"`
	Seed       string            `json:"-"`
	SeedNonce  uint32            `json:"seed_nonce"`
	KMSKeyId   string            `json:"kms_key_id"`
	AWSRegion  string            `json:"aws_region"`

	RequestsPerSecond float64 `json:"requests_per_second"`
	Debug             bool    `json:"debug"`
}

// ChainId returns the address byte of the configured chain.
func (c *WalletConfig) ChainId() byte {
	return ChainNameToId[c.Chain]
}

// Validate checks the configuration and fills in default endpoints for known chains.
func (c *WalletConfig) Validate() error {
	var allErrors field.ErrorList

	if _, ok := ChainNameToId[c.Chain]; !ok {
		allErrors = append(allErrors, field.NotSupported(field.NewPath("chain"), c.Chain,
			[]string{string(ChainName_Mainnet), string(ChainName_Testnet), string(ChainName_Stagenet)}))
	} else {
		if c.NodeURL == "" {
			c.NodeURL = DefaultNodeURL(c.Chain)
		}
		if c.MatcherURL == "" {
			c.MatcherURL = DefaultMatcherURL(c.Chain)
		}
	}

	allErrors = append(allErrors, validateURL(field.NewPath("nodeUrl"), c.NodeURL)...)
	allErrors = append(allErrors, validateURL(field.NewPath("matcherUrl"), c.MatcherURL)...)

	if c.CacheType == "" {
		c.CacheType = persistence.PersistenceTypeMemory
	}
	switch c.CacheType {
	case persistence.PersistenceTypeMemory:
	case persistence.PersistenceTypeBadger:
		if c.BadgerPath == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("badgerPath"), "badgerPath is required for the badger cache"))
		}
	case persistence.PersistenceTypeRedis:
		if c.Redis.Address == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("redis", "address"), "redis address is required for the redis cache"))
		}
		if c.Redis.DB < 0 {
			allErrors = append(allErrors, field.Invalid(field.NewPath("redis", "db"), c.Redis.DB, "must not be negative"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(field.NewPath("cacheType"), c.CacheType,
			[]string{string(persistence.PersistenceTypeMemory), string(persistence.PersistenceTypeBadger), string(persistence.PersistenceTypeRedis)}))
	}
	if c.CacheTTL < 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("cacheTtl"), c.CacheTTL.String(), "must not be negative"))
	}

	switch c.SignerType {
	case signer.SignerTypeLocal:
		if c.Seed == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("seed"), "seed is required for the local signer"))
		}
	case signer.SignerTypeAWSKMS:
		if c.KMSKeyId == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("kmsKeyId"), "kmsKeyId is required for the aws-kms signer"))
		}
	case "":
		// identity-free commands run without a signer
	default:
		allErrors = append(allErrors, field.NotSupported(field.NewPath("signerType"), c.SignerType,
			[]string{string(signer.SignerTypeLocal), string(signer.SignerTypeAWSKMS)}))
	}

	if c.RequestsPerSecond < 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("requestsPerSecond"), c.RequestsPerSecond, "must not be negative"))
	}

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

func validateURL(path *field.Path, raw string) field.ErrorList {
	if raw == "" {
		return field.ErrorList{field.Required(path, "url is required")}
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return field.ErrorList{field.Invalid(path, raw, "must be an absolute url")}
	}
	return nil
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// Variables already set are left alone. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}
