package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dex-wallet/wallet-session-go/pkg/codec"
	"github.com/dex-wallet/wallet-session-go/pkg/crypto"
	"github.com/dex-wallet/wallet-session-go/pkg/dispatcher"
	"github.com/dex-wallet/wallet-session-go/pkg/signer"
	"github.com/dex-wallet/wallet-session-go/pkg/signer/keyPairSigner"
	"github.com/dex-wallet/wallet-session-go/pkg/testutil"
	"github.com/dex-wallet/wallet-session-go/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testNow = time.UnixMilli(testutil.TestTimestamp)

type addSignatureCall struct {
	signature string
	publicKey string
	timestamp int64
}

type fakeMatcher struct {
	mu      sync.Mutex
	err     error
	calls   []addSignatureCall
	dropped []string
}

func (f *fakeMatcher) AddSignature(ctx context.Context, signature, publicKey string, timestamp int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, addSignatureCall{signature, publicKey, timestamp})
	return f.err
}

func (f *fakeMatcher) DropSignature(publicKey string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dropped = append(f.dropped, publicKey)
}

type fakeBalances struct {
	mu      sync.Mutex
	err     error
	applied []string
	drops   int
}

func (f *fakeBalances) ApplyAddress(ctx context.Context, address string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, address)
	return f.err
}

func (f *fakeBalances) DropAddress() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drops++
}

// brokenSigner wraps a working signer and fails one of its methods.
type brokenSigner struct {
	signer.ISigner
	addressErr   error
	publicKeyErr error
	signErr      error
}

func (b *brokenSigner) GetAddress(ctx context.Context) (string, error) {
	if b.addressErr != nil {
		return "", b.addressErr
	}
	return b.ISigner.GetAddress(ctx)
}

func (b *brokenSigner) GetPublicKey(ctx context.Context) (string, error) {
	if b.publicKeyErr != nil {
		return "", b.publicKeyErr
	}
	return b.ISigner.GetPublicKey(ctx)
}

func (b *brokenSigner) Sign(ctx context.Context, payload types.SignPayload) (string, error) {
	if b.signErr != nil {
		return "", b.signErr
	}
	return b.ISigner.Sign(ctx, payload)
}

type harness struct {
	manager    *Manager
	dispatcher *dispatcher.Dispatcher
	matcher    *fakeMatcher
	balances   *fakeBalances
	codec      codec.ICodec
	account    *testutil.TestAccount
	signer     signer.ISigner
}

func newHarness(t *testing.T, clock func() time.Time) *harness {
	t.Helper()
	l := zaptest.NewLogger(t)
	c := codec.NewWavesCodec(testutil.TestChainId)
	account := testutil.CreateTestAccount(t, 0)

	s, err := keyPairSigner.NewKeyPairSigner(account.KeyPair, account.Address, c, l)
	require.NoError(t, err)

	h := &harness{
		dispatcher: dispatcher.NewDispatcher(l),
		matcher:    &fakeMatcher{},
		balances:   &fakeBalances{},
		codec:      c,
		account:    account,
		signer:     s,
	}
	if clock == nil {
		clock = func() time.Time { return testNow }
	}
	h.manager, err = NewManager(&ManagerConfig{
		Dispatcher: h.dispatcher,
		Matcher:    h.matcher,
		Balances:   h.balances,
		ChainId:    testutil.TestChainId,
		Clock:      clock,
		Logger:     l,
	})
	require.NoError(t, err)
	return h
}

func Test_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("Should bind the address and signer", func(t *testing.T) {
		h := newHarness(t, nil)

		sess, err := h.manager.Login(ctx, h.account.Address, h.signer)
		require.NoError(t, err)
		assert.True(t, sess.IsLoggedIn())
		assert.Equal(t, sess, h.manager.Current())

		addr, ok := sess.Address()
		require.True(t, ok)
		assert.Equal(t, h.account.Address, addr)
		assert.Equal(t, h.account.KeyPair.PublicKey, sess.PublicKey())

		dispatched, err := h.dispatcher.GetAddress(ctx)
		require.NoError(t, err)
		assert.Equal(t, h.account.Address, dispatched)

		assert.Equal(t, []string{h.account.Address}, h.balances.applied)
	})

	t.Run("Should register a matcher signature expiring exactly two hours from now", func(t *testing.T) {
		h := newHarness(t, nil)

		sess, err := h.manager.Login(ctx, h.account.Address, h.signer)
		require.NoError(t, err)

		expected := testNow.Add(2 * time.Hour).UnixMilli()
		assert.Equal(t, expected, sess.MatcherSignatureExpiry())

		require.Len(t, h.matcher.calls, 1)
		call := h.matcher.calls[0]
		assert.Equal(t, h.account.KeyPair.PublicKey, call.publicKey)
		assert.Equal(t, expected, call.timestamp)

		data, err := h.codec.Encode(&types.MatcherOrdersData{SenderPublicKey: call.publicKey, Timestamp: call.timestamp})
		require.NoError(t, err)
		valid, err := crypto.Verify(call.publicKey, data, call.signature)
		require.NoError(t, err)
		assert.True(t, valid)
	})

	t.Run("Should keep the expiry within two hours of the real clock", func(t *testing.T) {
		h := newHarness(t, time.Now)

		before := time.Now()
		sess, err := h.manager.Login(ctx, h.account.Address, h.signer)
		require.NoError(t, err)
		after := time.Now()

		assert.GreaterOrEqual(t, sess.MatcherSignatureExpiry(), before.Add(MatcherSignatureTTL).UnixMilli())
		assert.LessOrEqual(t, sess.MatcherSignatureExpiry(), after.Add(MatcherSignatureTTL).UnixMilli())
	})

	t.Run("Should replace an existing session", func(t *testing.T) {
		h := newHarness(t, nil)
		other := testutil.CreateTestAccount(t, 1)
		otherSigner, err := keyPairSigner.NewKeyPairSigner(other.KeyPair, other.Address, h.codec, zaptest.NewLogger(t))
		require.NoError(t, err)

		_, err = h.manager.Login(ctx, h.account.Address, h.signer)
		require.NoError(t, err)
		sess, err := h.manager.Login(ctx, other.Address, otherSigner)
		require.NoError(t, err)

		addr, _ := sess.Address()
		assert.Equal(t, other.Address, addr)
		assert.Equal(t, 1, h.balances.drops)
		assert.Equal(t, []string{h.account.Address, other.Address}, h.balances.applied)
	})
}

func Test_Login_Rollback(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	cases := []struct {
		name    string
		step    LoginStep
		prepare func(h *harness) (string, signer.ISigner)
		clock   func() time.Time
	}{
		{
			name: "empty address",
			step: StepRecordAddress,
			prepare: func(h *harness) (string, signer.ISigner) {
				return "", h.signer
			},
		},
		{
			name: "address for another chain",
			step: StepRecordAddress,
			prepare: func(h *harness) (string, signer.ISigner) {
				addr, _ := crypto.AddressFromPublicKey(h.account.KeyPair.PublicKey, crypto.ChainIdMainnet)
				return addr, h.signer
			},
		},
		{
			name: "nil signer",
			step: StepInstallSigner,
			prepare: func(h *harness) (string, signer.ISigner) {
				return h.account.Address, nil
			},
		},
		{
			name: "address of another account",
			step: StepInstallSigner,
			prepare: func(h *harness) (string, signer.ISigner) {
				return testutil.CreateTestAccount(t, 1).Address, h.signer
			},
		},
		{
			name: "signer address failure",
			step: StepInstallSigner,
			prepare: func(h *harness) (string, signer.ISigner) {
				return h.account.Address, &brokenSigner{ISigner: h.signer, addressErr: boom}
			},
		},
		{
			name: "public key failure",
			step: StepGetPublicKey,
			prepare: func(h *harness) (string, signer.ISigner) {
				return h.account.Address, &brokenSigner{ISigner: h.signer, publicKeyErr: boom}
			},
		},
		{
			name: "expiry before the epoch",
			step: StepComputeExpiry,
			clock: func() time.Time {
				return time.Unix(-10*24*3600, 0)
			},
			prepare: func(h *harness) (string, signer.ISigner) {
				return h.account.Address, h.signer
			},
		},
		{
			name: "sign failure",
			step: StepSignMatcherAuth,
			prepare: func(h *harness) (string, signer.ISigner) {
				return h.account.Address, &brokenSigner{ISigner: h.signer, signErr: boom}
			},
		},
		{
			name: "matcher rejection",
			step: StepRegisterMatcherSignature,
			prepare: func(h *harness) (string, signer.ISigner) {
				h.matcher.err = boom
				return h.account.Address, h.signer
			},
		},
		{
			name: "balance tracker failure",
			step: StepApplyBalanceAddress,
			prepare: func(h *harness) (string, signer.ISigner) {
				h.balances.err = boom
				return h.account.Address, h.signer
			},
		},
	}

	for _, tc := range cases {
		t.Run("Should roll back on "+tc.name, func(t *testing.T) {
			h := newHarness(t, tc.clock)
			address, s := tc.prepare(h)

			sess, err := h.manager.Login(ctx, address, s)
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrLoginStepFailed)

			var stepErr *LoginStepFailedError
			require.ErrorAs(t, err, &stepErr)
			assert.Equal(t, tc.step, stepErr.Step)

			assert.False(t, sess.IsLoggedIn())
			assert.Equal(t, Empty, h.manager.Current())

			_, ok := h.dispatcher.ActiveSigner()
			assert.False(t, ok, "signer must not stay installed")
			_, err = h.dispatcher.Sign(ctx, &types.AuthData{})
			assert.ErrorIs(t, err, types.ErrNoActiveSigner)
		})
	}

	t.Run("Should refuse another account's address before contacting the matcher", func(t *testing.T) {
		h := newHarness(t, nil)
		other := testutil.CreateTestAccount(t, 1)

		_, err := h.manager.Login(ctx, other.Address, h.signer)
		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrAddressMismatch)
		assert.Empty(t, h.matcher.calls)
		assert.Empty(t, h.balances.applied)
	})

	t.Run("Should expose the underlying error", func(t *testing.T) {
		h := newHarness(t, nil)
		h.matcher.err = boom

		_, err := h.manager.Login(ctx, h.account.Address, h.signer)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), string(StepRegisterMatcherSignature))
		assert.Empty(t, h.balances.applied)
	})

	t.Run("Should forget the matcher signature when balance tracking fails", func(t *testing.T) {
		h := newHarness(t, nil)
		h.balances.err = boom

		_, err := h.manager.Login(ctx, h.account.Address, h.signer)
		require.Error(t, err)
		assert.Equal(t, []string{h.account.KeyPair.PublicKey}, h.matcher.dropped)
	})
}

func Test_LogOut(t *testing.T) {
	ctx := context.Background()

	t.Run("Should clear the address and signer together", func(t *testing.T) {
		h := newHarness(t, nil)
		_, err := h.manager.Login(ctx, h.account.Address, h.signer)
		require.NoError(t, err)

		sess := h.manager.LogOut()
		assert.Equal(t, Empty, sess)
		assert.Equal(t, Empty, h.manager.Current())

		_, ok := sess.Address()
		assert.False(t, ok)

		_, err = h.dispatcher.Sign(ctx, &types.AuthData{})
		assert.ErrorIs(t, err, types.ErrNoActiveSigner)
		_, err = h.dispatcher.GetAddress(ctx)
		assert.ErrorIs(t, err, types.ErrNoActiveSigner)

		assert.Equal(t, 1, h.balances.drops)
		assert.Equal(t, []string{h.account.KeyPair.PublicKey}, h.matcher.dropped)
	})

	t.Run("Should be a no-op when logged out", func(t *testing.T) {
		h := newHarness(t, nil)

		assert.Equal(t, Empty, h.manager.LogOut())
		assert.Equal(t, Empty, h.manager.LogOut())
		assert.Equal(t, 0, h.balances.drops)

		_, err := h.manager.Login(ctx, h.account.Address, h.signer)
		require.NoError(t, err)
		h.manager.LogOut()
		h.manager.LogOut()
		assert.Equal(t, 1, h.balances.drops)
	})
}

func Test_RenewMatcherSignature(t *testing.T) {
	ctx := context.Background()

	t.Run("Should require a session", func(t *testing.T) {
		h := newHarness(t, nil)
		_, err := h.manager.RenewMatcherSignature(ctx)
		assert.ErrorIs(t, err, types.ErrNoActiveSigner)
	})

	t.Run("Should sign and register a new expiry", func(t *testing.T) {
		now := testNow
		h := newHarness(t, func() time.Time { return now })

		_, err := h.manager.Login(ctx, h.account.Address, h.signer)
		require.NoError(t, err)

		now = testNow.Add(time.Hour)
		expiry, err := h.manager.RenewMatcherSignature(ctx)
		require.NoError(t, err)
		assert.Equal(t, now.Add(MatcherSignatureTTL).UnixMilli(), expiry)
		assert.Equal(t, expiry, h.manager.Current().MatcherSignatureExpiry())
		assert.Len(t, h.matcher.calls, 2)
	})

	t.Run("Should keep the session when renewal fails", func(t *testing.T) {
		h := newHarness(t, nil)
		sess, err := h.manager.Login(ctx, h.account.Address, h.signer)
		require.NoError(t, err)

		h.matcher.err = errors.New("matcher down")
		_, err = h.manager.RenewMatcherSignature(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), string(StepRegisterMatcherSignature))

		assert.True(t, h.manager.Current().IsLoggedIn())
		assert.Equal(t, sess.MatcherSignatureExpiry(), h.manager.Current().MatcherSignatureExpiry())
	})

	t.Run("Should renew in the background until cancelled", func(t *testing.T) {
		h := newHarness(t, nil)
		_, err := h.manager.Login(ctx, h.account.Address, h.signer)
		require.NoError(t, err)

		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			h.manager.RunRenewal(runCtx, 5*time.Millisecond)
			close(done)
		}()

		require.Eventually(t, func() bool {
			h.matcher.mu.Lock()
			defer h.matcher.mu.Unlock()
			return len(h.matcher.calls) >= 3
		}, time.Second, 5*time.Millisecond)

		cancel()
		<-done
	})
}

func Test_NewManager_Validation(t *testing.T) {
	l := zaptest.NewLogger(t)
	d := dispatcher.NewDispatcher(l)

	_, err := NewManager(nil)
	assert.Error(t, err)
	_, err = NewManager(&ManagerConfig{Matcher: &fakeMatcher{}, Balances: &fakeBalances{}, Logger: l})
	assert.Error(t, err)
	_, err = NewManager(&ManagerConfig{Dispatcher: d, Balances: &fakeBalances{}, Logger: l})
	assert.Error(t, err)
	_, err = NewManager(&ManagerConfig{Dispatcher: d, Matcher: &fakeMatcher{}, Logger: l})
	assert.Error(t, err)
	_, err = NewManager(&ManagerConfig{Dispatcher: d, Matcher: &fakeMatcher{}, Balances: &fakeBalances{}})
	assert.Error(t, err)

	m, err := NewManager(&ManagerConfig{Dispatcher: d, Matcher: &fakeMatcher{}, Balances: &fakeBalances{}, Logger: l})
	require.NoError(t, err)
	assert.Equal(t, Empty, m.Current())
}
