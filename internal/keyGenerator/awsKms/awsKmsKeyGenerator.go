package awsKms

import (
	"context"
	"crypto/ed25519"
	"crypto/x509"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/dex-wallet/wallet-session-go/internal/keyGenerator"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	keySpecEd25519          = types.KeySpec("ECC_NIST_EDWARDS25519")
	signingAlgorithmEd25519 = types.SigningAlgorithmSpec("ED25519_SHA_512")
)

// KMSAPI is the subset of the KMS client used by the key generator.
type KMSAPI interface {
	CreateKey(ctx context.Context, params *kms.CreateKeyInput, optFns ...func(*kms.Options)) (*kms.CreateKeyOutput, error)
	CreateAlias(ctx context.Context, params *kms.CreateAliasInput, optFns ...func(*kms.Options)) (*kms.CreateAliasOutput, error)
	GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error)
	Sign(ctx context.Context, params *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error)
}

type AWSKMSKeyGenerator struct {
	logger      *zap.Logger
	kmsClient   KMSAPI
	awsRegion   string
	environment string
}

var _ keyGenerator.IKeyGenerator = (*AWSKMSKeyGenerator)(nil)

func NewAWSKMSKeyGenerator(awsCfg aws.Config, awsRegion string, environment string, logger *zap.Logger) *AWSKMSKeyGenerator {
	return NewAWSKMSKeyGeneratorWithClient(kms.NewFromConfig(awsCfg), awsRegion, environment, logger)
}

func NewAWSKMSKeyGeneratorWithClient(client KMSAPI, awsRegion string, environment string, logger *zap.Logger) *AWSKMSKeyGenerator {
	return &AWSKMSKeyGenerator{
		logger:      logger,
		kmsClient:   client,
		awsRegion:   awsRegion,
		environment: environment,
	}
}

func (a *AWSKMSKeyGenerator) GenerateKey(ctx context.Context, keyName string, aliasName string) (*keyGenerator.GeneratedKey, error) {
	keyRes, err := a.createWalletSigningKey(ctx, keyName)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create Ed25519 key %s in region %s", keyName, a.awsRegion)
	}
	if keyRes.KeyMetadata == nil || keyRes.KeyMetadata.KeyId == nil {
		return nil, fmt.Errorf("KMS returned no key id for key %s", keyName)
	}
	keyId := *keyRes.KeyMetadata.KeyId

	if aliasName != "" {
		if err := a.createKeyAlias(ctx, keyId, aliasName); err != nil {
			return nil, errors.Wrapf(err, "failed to create alias %s for key %s in region %s", aliasName, keyId, a.awsRegion)
		}
	}

	return a.GetKeyById(ctx, keyId)
}

func (a *AWSKMSKeyGenerator) GetKeyById(ctx context.Context, keyId string) (*keyGenerator.GeneratedKey, error) {
	kmsPubKey, err := a.getPublicKey(ctx, keyId)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get public key for key %s in region %s", keyId, a.awsRegion)
	}

	pub, err := parseEd25519PublicKey(kmsPubKey.PublicKey)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse public key for key %s in region %s", keyId, a.awsRegion)
	}

	return &keyGenerator.GeneratedKey{
		PublicKey: pub,
		KeyId:     keyId,
	}, nil
}

// SignMessage signs the raw message bytes. Ed25519 in KMS hashes internally, so no digest is taken here.
func (a *AWSKMSKeyGenerator) SignMessage(ctx context.Context, keyId string, message []byte) ([]byte, error) {
	if len(message) == 0 {
		return nil, fmt.Errorf("message cannot be empty")
	}

	out, err := a.kmsClient.Sign(ctx, &kms.SignInput{
		KeyId:            aws.String(keyId),
		Message:          message,
		SigningAlgorithm: signingAlgorithmEd25519,
		MessageType:      types.MessageTypeRaw,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to sign with key %s in region %s", keyId, a.awsRegion)
	}
	if len(out.Signature) != ed25519.SignatureSize {
		return nil, fmt.Errorf("unexpected signature length %d from key %s", len(out.Signature), keyId)
	}

	a.logger.Debug("Signed message with KMS key",
		zap.String("keyId", keyId),
		zap.Int("messageLen", len(message)),
	)
	return out.Signature, nil
}

// createWalletSigningKey creates an Ed25519 key for wallet payload signing
func (a *AWSKMSKeyGenerator) createWalletSigningKey(ctx context.Context, keyName string) (*kms.CreateKeyOutput, error) {
	input := &kms.CreateKeyInput{
		KeyUsage:    types.KeyUsageTypeSignVerify,
		KeySpec:     keySpecEd25519,
		Description: aws.String(fmt.Sprintf("Ed25519 key for wallet signing - %s", keyName)),
		Tags: []types.Tag{
			{
				TagKey:   aws.String("Name"),
				TagValue: aws.String(keyName),
			},
			{
				TagKey:   aws.String("Environment"),
				TagValue: aws.String(a.environment),
			},
			{
				TagKey:   aws.String("Purpose"),
				TagValue: aws.String("wallet-signing-key"),
			},
			{
				TagKey:   aws.String("Curve"),
				TagValue: aws.String("ed25519"),
			},
		},
	}

	result, err := a.kmsClient.CreateKey(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create KMS key: %w", err)
	}
	return result, nil
}

// createKeyAlias creates an alias for the KMS key for easier reference
func (a *AWSKMSKeyGenerator) createKeyAlias(ctx context.Context, keyId, aliasName string) error {
	input := &kms.CreateAliasInput{
		AliasName:   aws.String(fmt.Sprintf("alias/%s", aliasName)),
		TargetKeyId: aws.String(keyId),
	}

	if _, err := a.kmsClient.CreateAlias(ctx, input); err != nil {
		return fmt.Errorf("failed to create key alias: %w", err)
	}

	a.logger.Info("Created KMS key alias",
		zap.String("alias", fmt.Sprintf("alias/%s", aliasName)),
		zap.String("keyId", keyId),
	)
	return nil
}

func (a *AWSKMSKeyGenerator) getPublicKey(ctx context.Context, keyId string) (*kms.GetPublicKeyOutput, error) {
	result, err := a.kmsClient.GetPublicKey(ctx, &kms.GetPublicKeyInput{
		KeyId: aws.String(keyId),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get public key: %w", err)
	}
	return result, nil
}

// parseEd25519PublicKey parses the DER encoded SubjectPublicKeyInfo returned by KMS
func parseEd25519PublicKey(derBytes []byte) ([]byte, error) {
	parsed, err := x509.ParsePKIXPublicKey(derBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PKIX public key: %w", err)
	}
	pub, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("expected Ed25519 public key, got %T", parsed)
	}
	return append([]byte{}, pub...), nil
}
