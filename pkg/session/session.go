package session

import (
	"github.com/dex-wallet/wallet-session-go/pkg/signer"
)

// Session is an immutable snapshot of the logged in identity. Transitions replace it wholesale.
type Session struct {
	address       string
	publicKey     string
	signer        signer.ISigner
	matcherExpiry int64
}

// Empty is the logged out session.
var Empty = Session{}

func (s Session) Address() (string, bool) {
	return s.address, s.signer != nil
}

func (s Session) Signer() (signer.ISigner, bool) {
	return s.signer, s.signer != nil
}

func (s Session) PublicKey() string {
	return s.publicKey
}

// MatcherSignatureExpiry is the Unix millisecond timestamp the current matcher authorization is valid until.
func (s Session) MatcherSignatureExpiry() int64 {
	return s.matcherExpiry
}

func (s Session) IsLoggedIn() bool {
	return s.signer != nil
}

func (s Session) withMatcherExpiry(expiry int64) Session {
	s.matcherExpiry = expiry
	return s
}
