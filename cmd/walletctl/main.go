package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dex-wallet/wallet-session-go/pkg/config"
	"github.com/dex-wallet/wallet-session-go/pkg/persistence"
	"github.com/dex-wallet/wallet-session-go/pkg/signer"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "walletctl",
		Usage: "Wallet session and signing tool for the DEX",
		Description: `Drives a wallet session from the command line.

This tool can:
- Derive public keys and addresses from a seed phrase
- Sign canonical payloads with a seed or an AWS KMS Ed25519 key
- Log in to the matcher and list the orders of the session
- Resolve asset metadata and convert token amounts`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-file",
				Usage:   "Load environment variables from this file",
				Value:   ".env",
				EnvVars: []string{config.EnvWalletEnvFile},
			},
			&cli.StringFlag{
				Name:    "chain",
				Usage:   fmt.Sprintf("Network: %s", config.GetSupportedChainsString()),
				Value:   string(config.ChainName_Testnet),
				EnvVars: []string{config.EnvWalletChain},
			},
			&cli.StringFlag{
				Name:    "node-url",
				Usage:   "Node REST API URL (defaults to the public node of the chain)",
				EnvVars: []string{config.EnvWalletNodeURL},
			},
			&cli.StringFlag{
				Name:    "matcher-url",
				Usage:   "Matcher REST API URL (defaults to the public matcher of the chain)",
				EnvVars: []string{config.EnvWalletMatcherURL},
			},
			&cli.StringFlag{
				Name:    "cache",
				Usage:   "Asset cache backend: memory, badger or redis",
				Value:   string(persistence.PersistenceTypeMemory),
				EnvVars: []string{config.EnvWalletCacheType},
			},
			&cli.DurationFlag{
				Name:    "cache-ttl",
				Usage:   "How long cached assets stay valid (0 keeps them forever)",
				Value:   24 * time.Hour,
				EnvVars: []string{config.EnvWalletCacheTTL},
			},
			&cli.StringFlag{
				Name:    "badger-path",
				Usage:   "Data directory of the badger cache",
				EnvVars: []string{config.EnvWalletBadgerPath},
			},
			&cli.StringFlag{
				Name:    "redis-address",
				Usage:   "Address of the redis cache",
				EnvVars: []string{config.EnvWalletRedisAddress},
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Password of the redis cache",
				EnvVars: []string{config.EnvWalletRedisPassword},
			},
			&cli.IntFlag{
				Name:    "redis-db",
				Usage:   "Database number of the redis cache",
				EnvVars: []string{config.EnvWalletRedisDB},
			},
			&cli.StringFlag{
				Name:    "signer",
				Usage:   "Signer type: local or aws-kms",
				EnvVars: []string{config.EnvWalletSignerType},
			},
			&cli.StringFlag{
				Name:    "seed",
				Usage:   "Seed phrase of the local signer",
				EnvVars: []string{config.EnvWalletSeed},
			},
			&cli.UintFlag{
				Name:    "nonce",
				Usage:   "Account nonce of the seed",
				EnvVars: []string{config.EnvWalletSeedNonce},
			},
			&cli.StringFlag{
				Name:    "kms-key-id",
				Usage:   "AWS KMS key id or alias of the aws-kms signer",
				EnvVars: []string{config.EnvWalletKMSKeyId},
			},
			&cli.StringFlag{
				Name:    "aws-region",
				Usage:   "AWS region override",
				EnvVars: []string{config.EnvWalletAWSRegion},
			},
			&cli.Float64Flag{
				Name:    "rps",
				Usage:   "Maximum requests per second against node and matcher (0 disables throttling)",
				Value:   10,
				EnvVars: []string{config.EnvWalletRequestsPerSec},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvWalletDebug},
			},
		},
		Before: func(c *cli.Context) error {
			return config.LoadEnvFile(c.String("env-file"))
		},
		Commands: []*cli.Command{
			addressCommand(),
			signCommand(),
			loginCommand(),
			assetCommand(),
			keysCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func parseWalletConfig(c *cli.Context) *config.WalletConfig {
	return &config.WalletConfig{
		Chain:      config.ChainName(c.String("chain")),
		NodeURL:    c.String("node-url"),
		MatcherURL: c.String("matcher-url"),
		CacheType:  persistence.PersistenceType(c.String("cache")),
		CacheTTL:   c.Duration("cache-ttl"),
		BadgerPath: c.String("badger-path"),
		Redis: config.RedisConfig{
			Address:  c.String("redis-address"),
			Password: c.String("redis-password"),
			DB:       c.Int("redis-db"),
		},
		SignerType:        signer.SignerType(c.String("signer")),
		Seed:              c.String("seed"),
		SeedNonce:         uint32(c.Uint("nonce")),
		KMSKeyId:          c.String("kms-key-id"),
		AWSRegion:         c.String("aws-region"),
		RequestsPerSecond: c.Float64("rps"),
		Debug:             c.Bool("verbose"),
	}
}
