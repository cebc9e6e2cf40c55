package localKeyGenerator

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/dex-wallet/wallet-session-go/internal/keyGenerator"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// keyEntry stores both the private key and metadata for a key
type keyEntry struct {
	privateKey ed25519.PrivateKey
	keyName    string
	aliasName  string
}

// LocalKeyGenerator keeps Ed25519 keys in memory. It stands in for a remote key manager in tests and local setups.
type LocalKeyGenerator struct {
	logger   *zap.Logger
	keyStore map[string]*keyEntry // keyId -> keyEntry
	mu       sync.RWMutex
}

var _ keyGenerator.IKeyGenerator = (*LocalKeyGenerator)(nil)

func NewLocalKeyGenerator(logger *zap.Logger) *LocalKeyGenerator {
	return &LocalKeyGenerator{
		logger:   logger,
		keyStore: make(map[string]*keyEntry),
	}
}

func (l *LocalKeyGenerator) GenerateKey(ctx context.Context, keyName string, aliasName string) (*keyGenerator.GeneratedKey, error) {
	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Ed25519 key: %w", err)
	}

	keyId := fmt.Sprintf("local-key-%s", uuid.New().String())
	if err := l.LoadPrivateKey(keyId, privateKey, keyName, aliasName); err != nil {
		return nil, err
	}

	return l.GetKeyById(ctx, keyId)
}

func (l *LocalKeyGenerator) GetKeyById(ctx context.Context, keyId string) (*keyGenerator.GeneratedKey, error) {
	l.mu.RLock()
	entry, exists := l.keyStore[keyId]
	l.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("key with ID %s not found", keyId)
	}

	pub := entry.privateKey.Public().(ed25519.PublicKey)
	return &keyGenerator.GeneratedKey{
		PublicKey: append([]byte{}, pub...),
		KeyId:     keyId,
	}, nil
}

func (l *LocalKeyGenerator) SignMessage(ctx context.Context, keyId string, message []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	entry, exists := l.keyStore[keyId]
	l.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("key with ID %s not found", keyId)
	}

	signature := ed25519.Sign(entry.privateKey, message)

	l.logger.Debug("Signed message with Ed25519 key",
		zap.String("keyId", keyId),
		zap.Int("messageLen", len(message)),
	)

	return signature, nil
}

// LoadPrivateKey loads a pre-existing private key into the key store.
func (l *LocalKeyGenerator) LoadPrivateKey(keyId string, privateKey ed25519.PrivateKey, keyName string, aliasName string) error {
	if len(privateKey) != ed25519.PrivateKeySize {
		return fmt.Errorf("invalid private key length: %d", len(privateKey))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.keyStore[keyId]; exists {
		return fmt.Errorf("key with ID %s already exists", keyId)
	}

	l.keyStore[keyId] = &keyEntry{
		privateKey: privateKey,
		keyName:    keyName,
		aliasName:  aliasName,
	}

	l.logger.Info("Loaded private key into store",
		zap.String("keyId", keyId),
		zap.String("keyName", keyName),
		zap.String("aliasName", aliasName),
	)

	return nil
}

// GetKeyCount returns the number of keys in the store.
func (l *LocalKeyGenerator) GetKeyCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.keyStore)
}
