package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"time"

	internalAws "github.com/dex-wallet/wallet-session-go/internal/aws"
	"github.com/dex-wallet/wallet-session-go/internal/keyGenerator/awsKms"
	"github.com/dex-wallet/wallet-session-go/pkg/assets"
	"github.com/dex-wallet/wallet-session-go/pkg/crypto"
	"github.com/dex-wallet/wallet-session-go/pkg/logger"
	"github.com/dex-wallet/wallet-session-go/pkg/types"
	"github.com/dex-wallet/wallet-session-go/pkg/wallet"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func newLogger(c *cli.Context) (*zap.Logger, error) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return l, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func addressCommand() *cli.Command {
	return &cli.Command{
		Name:  "address",
		Usage: "Derive the public key and address of the seed",
		Action: func(c *cli.Context) error {
			cfg := parseWalletConfig(c)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if cfg.Seed == "" {
				return fmt.Errorf("--seed is required")
			}

			kp, err := crypto.KeyPairFromSeed(cfg.Seed, cfg.SeedNonce)
			if err != nil {
				return err
			}
			address, err := crypto.AddressFromPublicKey(kp.PublicKey, cfg.ChainId())
			if err != nil {
				return err
			}
			pub, err := crypto.DecodeBase58(kp.PublicKey)
			if err != nil {
				return err
			}

			return printJSON(map[string]interface{}{
				"chain":        cfg.Chain,
				"nonce":        cfg.SeedNonce,
				"address":      address,
				"publicKey":    kp.PublicKey,
				"publicKeyHex": hexutil.Encode(pub),
			})
		},
	}
}

func signCommand() *cli.Command {
	return &cli.Command{
		Name:      "sign",
		Usage:     "Sign a JSON sign request ({\"type\": <tag>, \"data\": {...}}) with the configured signer",
		ArgsUsage: "<request.json>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one request file")
			}
			l, err := newLogger(c)
			if err != nil {
				return err
			}
			defer func() { _ = l.Sync() }()

			raw, err := os.ReadFile(c.Args().First())
			if err != nil {
				return fmt.Errorf("failed to read request: %w", err)
			}
			var req types.RawSignRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				return fmt.Errorf("failed to parse request: %w", err)
			}

			cfg := parseWalletConfig(c)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			w, err := wallet.NewWallet(cfg, nil, l)
			if err != nil {
				return err
			}
			defer func() { _ = w.Close() }()

			s, err := wallet.NewConfiguredSigner(c.Context, cfg, w.Codec(), l)
			if err != nil {
				return err
			}

			payload, err := types.DecodeSignPayload(&req)
			if err != nil {
				return err
			}
			data, err := w.Codec().Encode(payload)
			if err != nil {
				return err
			}
			signature, err := w.SignWith(c.Context, s, &req)
			if err != nil {
				return err
			}
			publicKey, err := s.GetPublicKey(c.Context)
			if err != nil {
				return err
			}

			return printJSON(map[string]interface{}{
				"type":      payload.SignType().String(),
				"publicKey": publicKey,
				"bytes":     hexutil.Encode(data),
				"signature": signature,
			})
		},
	}
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in to the matcher with the configured signer",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "orders",
				Usage: "List the orders of the account after login",
			},
			&cli.DurationFlag{
				Name:  "hold",
				Usage: "Keep the session open and renew the matcher signature for this long",
			},
		},
		Action: func(c *cli.Context) error {
			l, err := newLogger(c)
			if err != nil {
				return err
			}
			defer func() { _ = l.Sync() }()

			w, err := wallet.NewWallet(parseWalletConfig(c), nil, l)
			if err != nil {
				return err
			}
			defer func() { _ = w.Close() }()

			s, err := w.Login(c.Context)
			if err != nil {
				return err
			}
			address, _ := s.Address()
			l.Sugar().Infow("Logged in",
				"address", address,
				"publicKey", s.PublicKey(),
				"matcherSignatureExpiry", time.UnixMilli(s.MatcherSignatureExpiry()).UTC(),
			)

			if c.Bool("orders") {
				orders, err := w.Matcher().GetOrders(c.Context, s.PublicKey())
				if err != nil {
					return err
				}
				if err := printJSON(orders); err != nil {
					return err
				}
			}

			if hold := c.Duration("hold"); hold > 0 {
				ctx, cancel := context.WithTimeout(c.Context, hold)
				defer cancel()
				w.Manager().RunRenewal(ctx, hold/4+time.Second)
			}

			w.LogOut()
			l.Sugar().Infow("Logged out", "address", address)
			return nil
		},
	}
}

func assetCommand() *cli.Command {
	withWallet := func(c *cli.Context, run func(w *wallet.Wallet) error) error {
		l, err := newLogger(c)
		if err != nil {
			return err
		}
		defer func() { _ = l.Sync() }()

		w, err := wallet.NewWallet(parseWalletConfig(c), nil, l)
		if err != nil {
			return err
		}
		defer func() { _ = w.Close() }()
		return run(w)
	}

	return &cli.Command{
		Name:  "asset",
		Usage: "Resolve assets and manage the asset cache",
		Subcommands: []*cli.Command{
			{
				Name:  "resolve",
				Usage: "Resolve an asset and convert an amount",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Asset id (WAVES for the native asset)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "tokens",
						Usage: "Amount in tokens to convert to coins",
					},
					&cli.StringFlag{
						Name:  "coins",
						Usage: "Amount in coins to convert to tokens",
					},
					&cli.StringFlag{
						Name:  "price-asset",
						Usage: "Price asset id; when set, converts --tokens or --coins as an order price of the pair",
					},
				},
				Action: func(c *cli.Context) error {
					return withWallet(c, func(w *wallet.Wallet) error {
						return runAssetCommand(c, w.Resolver())
					})
				},
			},
			{
				Name:  "list",
				Usage: "List the assets held in the asset cache",
				Action: func(c *cli.Context) error {
					return withWallet(c, func(w *wallet.Wallet) error {
						cached, err := w.CachedAssets()
						if err != nil {
							return err
						}
						return printJSON(cached)
					})
				},
			},
			{
				Name:  "forget",
				Usage: "Evict an asset from the asset cache",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Asset id to evict",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					return withWallet(c, func(w *wallet.Wallet) error {
						return w.ForgetAsset(c.String("id"))
					})
				},
			},
		},
	}
}

func runAssetCommand(c *cli.Context, r *assets.Resolver) error {
	ctx := c.Context
	amountRef := assets.AssetID(c.String("id"))

	asset, err := r.ResolveAsset(ctx, amountRef)
	if err != nil {
		return err
	}
	out := map[string]interface{}{"asset": asset}

	if priceId := c.String("price-asset"); priceId != "" {
		priceRef := assets.AssetID(priceId)
		switch {
		case c.String("tokens") != "":
			tokens, err := decimal.NewFromString(c.String("tokens"))
			if err != nil {
				return fmt.Errorf("invalid --tokens: %w", err)
			}
			price, err := r.OrderPriceFromTokensForAssets(ctx, tokens, amountRef, priceRef)
			if err != nil {
				return err
			}
			out["price"] = price.String()
			out["matcherCoins"] = price.MatcherCoins().String()
		case c.String("coins") != "":
			coins, ok := parseCoins(c.String("coins"))
			if !ok {
				return fmt.Errorf("invalid --coins: %s", c.String("coins"))
			}
			price, err := r.OrderPriceFromCoinsForAssets(ctx, coins, amountRef, priceRef)
			if err != nil {
				return err
			}
			out["price"] = price.String()
			out["tokens"] = price.Tokens().String()
		}
		return printJSON(out)
	}

	if c.String("tokens") != "" {
		tokens, err := decimal.NewFromString(c.String("tokens"))
		if err != nil {
			return fmt.Errorf("invalid --tokens: %w", err)
		}
		money, err := r.MoneyFromTokens(ctx, tokens, amountRef)
		if err != nil {
			return err
		}
		out["money"] = money.String()
		out["coins"] = money.Coins().String()
	}
	if c.String("coins") != "" {
		coins, ok := parseCoins(c.String("coins"))
		if !ok {
			return fmt.Errorf("invalid --coins: %s", c.String("coins"))
		}
		money, err := r.MoneyFromCoins(ctx, coins, amountRef)
		if err != nil {
			return err
		}
		out["money"] = money.String()
		out["tokens"] = money.Tokens().String()
	}
	return printJSON(out)
}

func keysCommand() *cli.Command {
	return &cli.Command{
		Name:  "keys",
		Usage: "Manage AWS KMS signing keys",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create an Ed25519 KMS key and print its address",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Key name tag",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "alias",
						Usage: "Alias to create for the key (without the alias/ prefix)",
					},
				},
				Action: func(c *cli.Context) error {
					l, err := newLogger(c)
					if err != nil {
						return err
					}
					defer func() { _ = l.Sync() }()

					cfg := parseWalletConfig(c)
					if err := cfg.Validate(); err != nil {
						return fmt.Errorf("invalid configuration: %w", err)
					}
					awsCfg, err := internalAws.LoadAWSConfig(c.Context, cfg.AWSRegion)
					if err != nil {
						return fmt.Errorf("failed to load AWS config: %w", err)
					}

					gen := awsKms.NewAWSKMSKeyGenerator(awsCfg, awsCfg.Region, string(cfg.Chain), l)
					key, err := gen.GenerateKey(c.Context, c.String("name"), c.String("alias"))
					if err != nil {
						return err
					}
					address, err := key.GetAddress(cfg.ChainId())
					if err != nil {
						return err
					}
					publicKey, err := key.GetPublicKeyBase58()
					if err != nil {
						return err
					}

					return printJSON(map[string]interface{}{
						"keyId":     key.KeyId,
						"publicKey": publicKey,
						"address":   address,
					})
				},
			},
		},
	}
}

func parseCoins(s string) (*big.Int, bool) {
	return new(big.Int).SetString(s, 10)
}
