package dispatcher

import (
	"context"
	"fmt"
	"sync"

	"github.com/dex-wallet/wallet-session-go/pkg/signer"
	"github.com/dex-wallet/wallet-session-go/pkg/types"
	"go.uber.org/zap"
)

// Dispatcher routes sign requests to the currently installed signer.
// At most one signer is active at a time.
type Dispatcher struct {
	mu     sync.RWMutex
	active signer.ISigner
	logger *zap.Logger
}

func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		logger: logger,
	}
}

// InstallSigner replaces the active signer. Signs already in flight keep using the signer they started with.
func (d *Dispatcher) InstallSigner(s signer.ISigner) error {
	if s == nil {
		return fmt.Errorf("signer cannot be nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.active = s
	d.logger.Sugar().Debugw("Installed signer", "signer", fmt.Sprintf("%T", s))
	return nil
}

// DropSigner clears the active signer. Safe to call when none is installed.
func (d *Dispatcher) DropSigner() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active != nil {
		d.logger.Sugar().Debugw("Dropped signer", "signer", fmt.Sprintf("%T", d.active))
	}
	d.active = nil
}

// ActiveSigner returns the installed signer, if any.
func (d *Dispatcher) ActiveSigner() (signer.ISigner, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.active, d.active != nil
}

func (d *Dispatcher) requireSigner() (signer.ISigner, error) {
	s, ok := d.ActiveSigner()
	if !ok {
		return nil, types.ErrNoActiveSigner
	}
	return s, nil
}

func (d *Dispatcher) GetPublicKey(ctx context.Context) (string, error) {
	s, err := d.requireSigner()
	if err != nil {
		return "", err
	}
	return s.GetPublicKey(ctx)
}

func (d *Dispatcher) GetAddress(ctx context.Context) (string, error) {
	s, err := d.requireSigner()
	if err != nil {
		return "", err
	}
	return s.GetAddress(ctx)
}

// Sign checks the payload tag against the closed set and asks the active signer for a signature.
func (d *Dispatcher) Sign(ctx context.Context, payload types.SignPayload) (string, error) {
	s, err := d.requireSigner()
	if err != nil {
		return "", err
	}
	if payload == nil {
		return "", fmt.Errorf("%w: nil payload", types.ErrUnsupportedPayloadTag)
	}
	st := payload.SignType()
	if !st.IsValid() {
		return "", fmt.Errorf("%w: %s", types.ErrUnsupportedPayloadTag, st)
	}

	sig, err := s.Sign(ctx, payload)
	if err != nil {
		d.logger.Sugar().Warnw("Failed to sign payload", "signType", st.String(), "error", err)
		return "", err
	}
	return sig, nil
}

// SignRaw decodes an untyped request and signs it.
func (d *Dispatcher) SignRaw(ctx context.Context, req *types.RawSignRequest) (string, error) {
	if _, err := d.requireSigner(); err != nil {
		return "", err
	}
	payload, err := types.DecodeSignPayload(req)
	if err != nil {
		return "", err
	}
	return d.Sign(ctx, payload)
}
