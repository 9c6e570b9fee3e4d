package ui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/huh"

	"arhat.dev/credprompt/pkg/constant"
	"arhat.dev/credprompt/pkg/security"
)

func init() {
	security.RegisterDialogHandler(constant.DialogTUI, newFormDialog, newFormDialogConfig)
}

func newFormDialogConfig() interface{} { return &FormDialogConfig{} }

type FormDialogConfig struct {
	// Accessible replaces the form with plain text prompts for screen readers
	Accessible bool `json:"accessible" yaml:"accessible"`
}

func newFormDialog(config interface{}) (security.DialogHandler, error) {
	c, ok := config.(*FormDialogConfig)
	if !ok {
		return nil, fmt.Errorf("unexpected non tui dialog config: %T", config)
	}

	return &formDialog{
		in:         os.Stdin,
		out:        os.Stderr,
		accessible: c.Accessible,
		mu:         &sync.Mutex{},
	}, nil
}

type formDialog struct {
	in  io.Reader
	out io.Writer

	accessible bool

	mu *sync.Mutex
}

func (d *formDialog) ShowCredentialDialog(req *security.DialogRequest) (*security.DialogResponse, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if exceeds(req.Username, req.MaxUsernameLength) {
		return security.NewDialogResponse(security.OutcomeBufferTooSmall, req.Username, ""), nil
	}

	var (
		username = req.Username
		password string
	)

	form := huh.NewForm(huh.NewGroup(d.fields(req, &username, &password)...)).
		WithInput(d.in).
		WithOutput(d.out).
		WithAccessible(d.accessible)

	err := form.Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return security.NewDialogResponse(security.OutcomeCancelled, username, ""), nil
		}

		return nil, fmt.Errorf("failed to run credential form: %w", err)
	}

	username = strings.TrimSpace(username)
	if exceeds(username, req.MaxUsernameLength) || exceeds(password, req.MaxPasswordLength) {
		return security.NewDialogResponse(security.OutcomeBufferTooSmall, username, ""), nil
	}

	return security.NewDialogResponse(security.OutcomeAccepted, username, password), nil
}

func (d *formDialog) fields(req *security.DialogRequest, username, password *string) []huh.Field {
	title := req.Caption
	if len(title) == 0 {
		title = fmt.Sprintf("Login to %s", req.Target)
	}

	var description []string
	if len(req.Message) != 0 {
		description = append(description, req.Message)
	}

	if req.Flags.Has(security.FlagIncorrectPassword) {
		description = append(description, "The user name or password is incorrect, please try again.")
	}

	userInput := huh.NewInput().
		Title("Username").
		Prompt("> ").
		Value(username)

	passwordInput := huh.NewInput().
		Title("Password").
		Prompt("> ").
		EchoMode(huh.EchoModePassword).
		Value(password)

	if req.MaxUsernameLength > 0 {
		userInput = userInput.CharLimit(req.MaxUsernameLength)
	}

	if req.MaxPasswordLength > 0 {
		passwordInput = passwordInput.CharLimit(req.MaxPasswordLength)
	}

	return []huh.Field{
		huh.NewNote().Title(title).Description(strings.Join(description, "\n")),
		userInput,
		passwordInput,
	}
}
