package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dex-wallet/wallet-session-go/pkg/crypto"
	"github.com/dex-wallet/wallet-session-go/pkg/matcher"
	"github.com/dex-wallet/wallet-session-go/pkg/signer"
	"github.com/dex-wallet/wallet-session-go/pkg/types"
	"go.uber.org/zap"
)

// MatcherSignatureTTL is how long a matcher authorization signed at login stays valid.
const MatcherSignatureTTL = 2 * time.Hour

// IBalanceTracker is the external component that follows the balances of the logged in address.
type IBalanceTracker interface {
	ApplyAddress(ctx context.Context, address string) error
	DropAddress()
}

// ISignDispatcher holds the process' active signer.
type ISignDispatcher interface {
	InstallSigner(s signer.ISigner) error
	DropSigner()
	GetPublicKey(ctx context.Context) (string, error)
	Sign(ctx context.Context, payload types.SignPayload) (string, error)
}

// signatureDropper is implemented by matcher clients that cache signatures.
type signatureDropper interface {
	DropSignature(publicKey string)
}

type ManagerConfig struct {
	Dispatcher ISignDispatcher
	Matcher    matcher.IMatcherClient
	Balances   IBalanceTracker
	// ChainId enables address validation at login when non-zero.
	ChainId byte
	// Clock defaults to time.Now.
	Clock  func() time.Time
	Logger *zap.Logger
}

// Manager drives login and logout. Callers are expected to serialize Login and LogOut;
// if they race, the last one to finish decides the session.
type Manager struct {
	dispatcher ISignDispatcher
	matcher    matcher.IMatcherClient
	balances   IBalanceTracker
	chainId    byte
	clock      func() time.Time
	logger     *zap.Logger

	mu      sync.RWMutex
	current Session
}

func NewManager(cfg *ManagerConfig) (*Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if cfg.Matcher == nil {
		return nil, fmt.Errorf("matcher client is required")
	}
	if cfg.Balances == nil {
		return nil, fmt.Errorf("balance tracker is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Manager{
		dispatcher: cfg.Dispatcher,
		matcher:    cfg.Matcher,
		balances:   cfg.Balances,
		chainId:    cfg.ChainId,
		clock:      clock,
		logger:     cfg.Logger,
		current:    Empty,
	}, nil
}

func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *Manager) setCurrent(s Session) {
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
}

// Login binds address and s as the new session. An existing session is logged out first.
// On failure the signer is dropped, the session stays Empty and the error is a *LoginStepFailedError.
func (m *Manager) Login(ctx context.Context, address string, s signer.ISigner) (Session, error) {
	if m.Current().IsLoggedIn() {
		m.LogOut()
	}

	// record-address
	if address == "" {
		return Empty, stepFailed(StepRecordAddress, fmt.Errorf("address cannot be empty"))
	}
	if m.chainId != 0 {
		if err := crypto.ValidateAddress(address, m.chainId); err != nil {
			return Empty, stepFailed(StepRecordAddress, err)
		}
	}
	next := Session{address: address, signer: s}

	// install-signer
	if s == nil {
		return Empty, stepFailed(StepInstallSigner, fmt.Errorf("signer cannot be nil"))
	}
	signerAddress, err := s.GetAddress(ctx)
	if err != nil {
		return Empty, stepFailed(StepInstallSigner, fmt.Errorf("failed to read signer address: %w", err))
	}
	if signerAddress != address {
		return Empty, stepFailed(StepInstallSigner, fmt.Errorf("%w: login %s, signer %s", types.ErrAddressMismatch, address, signerAddress))
	}
	if err := m.dispatcher.InstallSigner(s); err != nil {
		return Empty, m.rollback(StepInstallSigner, err)
	}

	publicKey, expiry, step, err := m.authorizeMatcher(ctx)
	if err != nil {
		return Empty, m.rollback(step, err)
	}
	next.publicKey = publicKey
	next.matcherExpiry = expiry

	// apply-balance-address
	if err := m.balances.ApplyAddress(ctx, address); err != nil {
		if d, ok := m.matcher.(signatureDropper); ok {
			d.DropSignature(publicKey)
		}
		return Empty, m.rollback(StepApplyBalanceAddress, err)
	}

	m.setCurrent(next)
	m.logger.Sugar().Infow("Logged in",
		"address", address,
		"publicKey", publicKey,
		"matcherExpiry", time.UnixMilli(expiry).UTC(),
	)
	return next, nil
}

// authorizeMatcher runs get-public-key through register-matcher-signature against the installed signer.
func (m *Manager) authorizeMatcher(ctx context.Context) (string, int64, LoginStep, error) {
	publicKey, err := m.dispatcher.GetPublicKey(ctx)
	if err != nil {
		return "", 0, StepGetPublicKey, err
	}

	expiry := m.clock().Add(MatcherSignatureTTL).UnixMilli()
	if expiry <= 0 {
		return "", 0, StepComputeExpiry, fmt.Errorf("invalid expiry %d", expiry)
	}

	signature, err := m.dispatcher.Sign(ctx, &types.MatcherOrdersData{
		SenderPublicKey: publicKey,
		Timestamp:       expiry,
	})
	if err != nil {
		return "", 0, StepSignMatcherAuth, err
	}

	if err := m.matcher.AddSignature(ctx, signature, publicKey, expiry); err != nil {
		return "", 0, StepRegisterMatcherSignature, err
	}
	return publicKey, expiry, "", nil
}

func (m *Manager) rollback(step LoginStep, err error) error {
	m.dispatcher.DropSigner()
	m.setCurrent(Empty)
	m.logger.Sugar().Warnw("Login failed, signer dropped", "step", string(step), "error", err)
	return stepFailed(step, err)
}

// LogOut drops the signer and stops balance tracking. It never fails and is a no-op when logged out.
func (m *Manager) LogOut() Session {
	m.mu.Lock()
	prev := m.current
	m.current = Empty
	m.mu.Unlock()

	if !prev.IsLoggedIn() {
		return Empty
	}

	m.dispatcher.DropSigner()
	m.balances.DropAddress()
	if d, ok := m.matcher.(signatureDropper); ok && prev.publicKey != "" {
		d.DropSignature(prev.publicKey)
	}

	m.logger.Sugar().Infow("Logged out", "address", prev.address)
	return Empty
}

// RenewMatcherSignature signs and registers a fresh matcher authorization for the current session.
// A failure leaves the session logged in with its previous expiry.
func (m *Manager) RenewMatcherSignature(ctx context.Context) (int64, error) {
	cur := m.Current()
	if !cur.IsLoggedIn() {
		return 0, types.ErrNoActiveSigner
	}

	_, expiry, step, err := m.authorizeMatcher(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to renew matcher signature at %s: %w", step, err)
	}

	m.mu.Lock()
	if m.current.address == cur.address && m.current.publicKey == cur.publicKey {
		m.current = m.current.withMatcherExpiry(expiry)
	}
	m.mu.Unlock()

	m.logger.Sugar().Debugw("Renewed matcher signature", "address", cur.address, "matcherExpiry", time.UnixMilli(expiry).UTC())
	return expiry, nil
}

// RunRenewal renews the matcher signature every interval while logged in, until ctx is done.
func (m *Manager) RunRenewal(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !m.Current().IsLoggedIn() {
				continue
			}
			if _, err := m.RenewMatcherSignature(ctx); err != nil {
				m.logger.Sugar().Warnw("Matcher signature renewal failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
