package prompt

import (
	"errors"

	"arhat.dev/pkg/log"

	"arhat.dev/credprompt/pkg/constant"
	"arhat.dev/credprompt/pkg/security"
)

// ErrTooManyAttempts is set in Result.Err when the attempt cap is reached
var ErrTooManyAttempts = errors.New("too many attempts")

// ErrNoResponse is set in Result.Err when the dialog returned neither a
// response nor an error
var ErrNoResponse = errors.New("no dialog response")

// Result of PromptForPassword, the password is sensitive and should be
// dropped by the caller as soon as it is used
//
// when the dialog fails, Username and Password are the ones captured
// from the last dialog response, or empty if there was none
type Result struct {
	Success bool

	Username string
	Password string

	// Outcome of the last dialog invocation
	Outcome security.DialogOutcome

	// Attempts is the count of dialogs shown
	Attempts int

	// Err is set when the dialog could not be shown or the attempt cap
	// was reached
	Err error
}

type Options struct {
	Target  string
	Caption string
	Message string

	// MaxAttempts limits dialogs shown in one call, 0 means unlimited
	MaxAttempts int

	MaxUsernameLength int
	MaxPasswordLength int
}

func NewPrompter(
	logger log.Interface,
	dialog security.DialogHandler,
	validator security.Validator,
	opts Options,
) *Prompter {
	if len(opts.Target) == 0 {
		opts.Target = constant.DefaultTarget
	}

	if opts.MaxUsernameLength <= 0 {
		opts.MaxUsernameLength = constant.DefaultMaxUsernameLength
	}

	if opts.MaxPasswordLength <= 0 {
		opts.MaxPasswordLength = constant.DefaultMaxPasswordLength
	}

	return &Prompter{
		logger:    logger,
		dialog:    dialog,
		validator: validator,
		opts:      opts,
	}
}

// Prompter shows credential dialog until the validator accepts the input
//
// it is not safe for concurrent use
type Prompter struct {
	logger    log.Interface
	dialog    security.DialogHandler
	validator security.Validator

	opts Options
}

// attempt is the credential buffer of one PromptForPassword call
type attempt struct {
	username string
	password string

	// latched after the first rejection, never cleared
	incorrectPassword bool
}

func (a *attempt) capture(resp *security.DialogResponse) {
	a.username = resp.Username
	a.password = resp.Password
}

func (a *attempt) reject() {
	a.incorrectPassword = true
}

func (p *Prompter) request(username string, a *attempt) *security.DialogRequest {
	flags := security.FlagAlwaysShowUI | security.FlagGenericCredentials
	if a.incorrectPassword {
		flags |= security.FlagIncorrectPassword
	}

	return &security.DialogRequest{
		Target:            p.opts.Target,
		Caption:           p.opts.Caption,
		Message:           p.opts.Message,
		Username:          username,
		Flags:             flags,
		MaxUsernameLength: p.opts.MaxUsernameLength,
		MaxPasswordLength: p.opts.MaxPasswordLength,
	}
}

// PromptForPassword shows the credential dialog prefilled with
// initialUsername, and shows it again with incorrect password hint each
// time the validator rejects the input
//
// it returns when the validator accepts, or the dialog reported anything
// other than OutcomeAccepted
func (p *Prompter) PromptForPassword(initialUsername string) *Result {
	var (
		a        = &attempt{}
		username = initialUsername
	)

	for n := 1; ; n++ {
		logger := p.logger.WithFields(log.Int("attempt", n))

		resp, err := p.dialog.ShowCredentialDialog(p.request(username, a))
		if err != nil {
			logger.I("failed to show credential dialog", log.Error(err))
			return a.result(false, security.OutcomeUnknown, n, err)
		}

		if resp == nil {
			logger.I("credential dialog returned no response")
			return a.result(false, security.OutcomeUnknown, n, ErrNoResponse)
		}

		a.capture(resp)
		username = a.username

		if resp.Outcome != security.OutcomeAccepted {
			logger.I("credential dialog dismissed",
				log.String("outcome", resp.Outcome.String()),
				log.Int("code", int(resp.Code)),
			)
			return a.result(false, resp.Outcome, n, nil)
		}

		if p.validator.Validate(a.username, a.password) {
			logger.D("credential accepted", log.String("username", a.username))
			return a.result(true, resp.Outcome, n, nil)
		}

		logger.I("credential rejected", log.String("username", a.username))
		a.reject()

		if p.opts.MaxAttempts > 0 && n >= p.opts.MaxAttempts {
			return a.result(false, resp.Outcome, n, ErrTooManyAttempts)
		}
	}
}

func (a *attempt) result(success bool, outcome security.DialogOutcome, n int, err error) *Result {
	return &Result{
		Success:  success,
		Username: a.username,
		Password: a.password,
		Outcome:  outcome,
		Attempts: n,
		Err:      err,
	}
}
