package prompt

import (
	"errors"
	"testing"

	"arhat.dev/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arhat.dev/credprompt/pkg/constant"
	"arhat.dev/credprompt/pkg/security"
)

type scriptedDialog struct {
	responses []*security.DialogResponse
	err       error

	requests []security.DialogRequest
}

func (d *scriptedDialog) ShowCredentialDialog(req *security.DialogRequest) (*security.DialogResponse, error) {
	d.requests = append(d.requests, *req)

	if len(d.responses) == 0 {
		if d.err != nil {
			return nil, d.err
		}

		return security.NewDialogResponse(security.OutcomeCancelled, req.Username, ""), nil
	}

	resp := d.responses[0]
	d.responses = d.responses[1:]
	return resp, nil
}

type credential struct {
	username string
	password string
}

type scriptedValidator struct {
	answers []bool
	calls   []credential
}

func (v *scriptedValidator) Validate(username, password string) bool {
	v.calls = append(v.calls, credential{username: username, password: password})

	if len(v.answers) == 0 {
		return false
	}

	ret := v.answers[0]
	v.answers = v.answers[1:]
	return ret
}

func accepted(username, password string) *security.DialogResponse {
	return security.NewDialogResponse(security.OutcomeAccepted, username, password)
}

func newTestPrompter(d security.DialogHandler, v security.Validator, opts Options) *Prompter {
	return NewPrompter(log.Log.WithName("test"), d, v, opts)
}

func TestPromptForPasswordRetryThenAccept(t *testing.T) {
	d := &scriptedDialog{
		responses: []*security.DialogResponse{
			accepted("alice", "wrong"),
			accepted("alice", "right"),
		},
	}
	v := &scriptedValidator{answers: []bool{false, true}}

	result := newTestPrompter(d, v, Options{}).PromptForPassword("alice")

	assert.True(t, result.Success)
	assert.Equal(t, "alice", result.Username)
	assert.Equal(t, "right", result.Password)
	assert.Equal(t, security.OutcomeAccepted, result.Outcome)
	assert.Equal(t, 2, result.Attempts)
	assert.NoError(t, result.Err)

	assert.Equal(t, []credential{
		{username: "alice", password: "wrong"},
		{username: "alice", password: "right"},
	}, v.calls)

	require.Len(t, d.requests, 2)
	assert.False(t, d.requests[0].Flags.Has(security.FlagIncorrectPassword))
	assert.True(t, d.requests[1].Flags.Has(security.FlagIncorrectPassword))
}

func TestPromptForPasswordCancelled(t *testing.T) {
	d := &scriptedDialog{
		responses: []*security.DialogResponse{
			security.NewDialogResponse(security.OutcomeCancelled, "", ""),
		},
	}
	v := &scriptedValidator{}

	result := newTestPrompter(d, v, Options{}).PromptForPassword("")

	assert.False(t, result.Success)
	assert.Empty(t, result.Username)
	assert.Empty(t, result.Password)
	assert.Equal(t, security.OutcomeCancelled, result.Outcome)
	assert.Equal(t, 1, result.Attempts)
	assert.Empty(t, v.calls)
	assert.Len(t, d.requests, 1)
}

func TestPromptForPasswordDialogErrorOutcomes(t *testing.T) {
	for _, outcome := range []security.DialogOutcome{
		security.OutcomeCancelled,
		security.OutcomeSessionError,
		security.OutcomeNotFound,
		security.OutcomeInvalidAccountName,
		security.OutcomeBufferTooSmall,
		security.OutcomeInvalidParameter,
		security.OutcomeInvalidFlags,
		security.OutcomeUnknown,
	} {
		t.Run(outcome.String(), func(t *testing.T) {
			d := &scriptedDialog{
				responses: []*security.DialogResponse{
					accepted("bob", "first"),
					security.NewDialogResponse(outcome, "bob", "second"),
					accepted("bob", "never shown"),
				},
			}
			v := &scriptedValidator{answers: []bool{false, true}}

			result := newTestPrompter(d, v, Options{}).PromptForPassword("bob")

			assert.False(t, result.Success)
			assert.Equal(t, outcome, result.Outcome)
			assert.Equal(t, "bob", result.Username)
			assert.Equal(t, "second", result.Password)
			assert.Len(t, v.calls, 1)
			assert.Len(t, d.requests, 2)
		})
	}
}

func TestPromptForPasswordLatchesIncorrectPassword(t *testing.T) {
	const rejections = 5

	var responses []*security.DialogResponse
	for i := 0; i < rejections; i++ {
		responses = append(responses, accepted("carol", "bad"))
	}

	d := &scriptedDialog{responses: responses}
	v := &scriptedValidator{}

	result := newTestPrompter(d, v, Options{}).PromptForPassword("")

	// the scripted dialog cancels once out of responses
	assert.False(t, result.Success)
	assert.Equal(t, security.OutcomeCancelled, result.Outcome)
	assert.Len(t, v.calls, rejections)
	require.Len(t, d.requests, rejections+1)

	for i, req := range d.requests {
		assert.True(t, req.Flags.Has(security.FlagAlwaysShowUI))
		assert.True(t, req.Flags.Has(security.FlagGenericCredentials))
		assert.Equal(t, i > 0, req.Flags.Has(security.FlagIncorrectPassword), "request %d", i)
	}
}

func TestPromptForPasswordStopsValidatingAfterAccept(t *testing.T) {
	d := &scriptedDialog{
		responses: []*security.DialogResponse{
			accepted("dave", "1"),
			accepted("dave", "2"),
			accepted("dave", "3"),
		},
	}
	v := &scriptedValidator{answers: []bool{false, true, true}}

	result := newTestPrompter(d, v, Options{}).PromptForPassword("")

	assert.True(t, result.Success)
	assert.Equal(t, "2", result.Password)
	assert.Len(t, v.calls, 2)
	assert.Len(t, d.requests, 2)
}

func TestPromptForPasswordRequestContent(t *testing.T) {
	d := &scriptedDialog{
		responses: []*security.DialogResponse{
			accepted("erin", "bad"),
		},
	}
	v := &scriptedValidator{}

	_ = newTestPrompter(d, v, Options{
		Caption: "Setup",
		Message: "installer is requesting credentials",
	}).PromptForPassword("initial")

	require.Len(t, d.requests, 2)

	first := d.requests[0]
	assert.Equal(t, constant.DefaultTarget, first.Target)
	assert.Equal(t, "Setup", first.Caption)
	assert.Equal(t, "installer is requesting credentials", first.Message)
	assert.Equal(t, "initial", first.Username)
	assert.Equal(t, constant.DefaultMaxUsernameLength, first.MaxUsernameLength)
	assert.Equal(t, constant.DefaultMaxPasswordLength, first.MaxPasswordLength)

	// username entered last time is shown again
	assert.Equal(t, "erin", d.requests[1].Username)
}

func TestPromptForPasswordDialogFailure(t *testing.T) {
	errDialog := errors.New("no display")
	d := &scriptedDialog{
		responses: []*security.DialogResponse{
			accepted("frank", "bad"),
		},
		err: errDialog,
	}
	v := &scriptedValidator{}

	result := newTestPrompter(d, v, Options{}).PromptForPassword("")

	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Err, errDialog)
	assert.Equal(t, security.OutcomeUnknown, result.Outcome)

	// values captured before the failure are kept
	assert.Equal(t, "frank", result.Username)
	assert.Equal(t, "bad", result.Password)
}

func TestPromptForPasswordDialogFailureFirstAttempt(t *testing.T) {
	errDialog := errors.New("no display")
	d := &scriptedDialog{err: errDialog}

	result := newTestPrompter(d, &scriptedValidator{}, Options{}).PromptForPassword("judy")

	assert.ErrorIs(t, result.Err, errDialog)
	assert.Equal(t, 1, result.Attempts)
	assert.Empty(t, result.Username)
	assert.Empty(t, result.Password)
}

type nilDialog struct {
	calls int
}

func (d *nilDialog) ShowCredentialDialog(req *security.DialogRequest) (*security.DialogResponse, error) {
	d.calls++
	return nil, nil
}

func TestPromptForPasswordNilResponse(t *testing.T) {
	d := &nilDialog{}
	v := &scriptedValidator{}

	var result *Result
	require.NotPanics(t, func() {
		result = newTestPrompter(d, v, Options{}).PromptForPassword("ivan")
	})

	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Err, ErrNoResponse)
	assert.Equal(t, security.OutcomeUnknown, result.Outcome)
	assert.Equal(t, 1, result.Attempts)
	assert.Empty(t, result.Username)
	assert.Empty(t, result.Password)
	assert.Equal(t, 1, d.calls)
	assert.Empty(t, v.calls)
}

func TestPromptForPasswordMaxAttempts(t *testing.T) {
	d := &scriptedDialog{
		responses: []*security.DialogResponse{
			accepted("grace", "1"),
			accepted("grace", "2"),
			accepted("grace", "3"),
		},
	}
	v := &scriptedValidator{}

	result := newTestPrompter(d, v, Options{MaxAttempts: 2}).PromptForPassword("")

	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Err, ErrTooManyAttempts)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, "2", result.Password)
	assert.Len(t, d.requests, 2)
}

func TestPromptForPasswordIsStateless(t *testing.T) {
	d := &scriptedDialog{
		responses: []*security.DialogResponse{
			accepted("heidi", "bad"),
			accepted("heidi", "good"),
			accepted("heidi", "good"),
		},
	}
	v := &scriptedValidator{answers: []bool{false, true, true}}

	p := newTestPrompter(d, v, Options{})
	assert.True(t, p.PromptForPassword("").Success)
	assert.True(t, p.PromptForPassword("").Success)

	require.Len(t, d.requests, 3)
	assert.False(t, d.requests[2].Flags.Has(security.FlagIncorrectPassword))
}
