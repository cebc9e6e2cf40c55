package session

import (
	"fmt"

	"github.com/dex-wallet/wallet-session-go/pkg/types"
)

// LoginStep names one step of the login sequence.
type LoginStep string

const (
	StepRecordAddress            LoginStep = "record-address"
	StepInstallSigner            LoginStep = "install-signer"
	StepGetPublicKey             LoginStep = "get-public-key"
	StepComputeExpiry            LoginStep = "compute-expiry"
	StepSignMatcherAuth          LoginStep = "sign-matcher-auth"
	StepRegisterMatcherSignature LoginStep = "register-matcher-signature"
	StepApplyBalanceAddress      LoginStep = "apply-balance-address"
)

// LoginStepFailedError identifies the first login step that failed.
// It matches both types.ErrLoginStepFailed and the underlying error with errors.Is.
type LoginStepFailedError struct {
	Step LoginStep
	Err  error
}

func (e *LoginStepFailedError) Error() string {
	return fmt.Sprintf("%s: %s: %v", types.ErrLoginStepFailed, e.Step, e.Err)
}

func (e *LoginStepFailedError) Unwrap() []error {
	return []error{types.ErrLoginStepFailed, e.Err}
}

func stepFailed(step LoginStep, err error) error {
	return &LoginStepFailedError{Step: step, Err: err}
}
