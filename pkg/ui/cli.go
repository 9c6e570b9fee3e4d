package ui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"arhat.dev/pkg/iohelper"
	"golang.org/x/term"

	"arhat.dev/credprompt/pkg/constant"
	"arhat.dev/credprompt/pkg/security"
)

func init() {
	security.RegisterDialogHandler(constant.DialogCLI, newCommandLineDialog, newCommandLineDialogConfig)
}

func newCommandLineDialogConfig() interface{} { return &CommandLineDialogConfig{} }

type CommandLineDialogConfig struct {
	// KeepUsername skips the username input when a username is prefilled
	KeepUsername bool `json:"keep_username" yaml:"keep_username"`
}

func newCommandLineDialog(config interface{}) (security.DialogHandler, error) {
	c, ok := config.(*CommandLineDialogConfig)
	if !ok {
		return nil, fmt.Errorf("unexpected non cli dialog config: %T", config)
	}

	return &commandLineDialog{
		in:           os.Stdin,
		out:          os.Stderr,
		keepUsername: c.KeepUsername,
		readPassword: func() ([]byte, error) {
			fd := int(os.Stdin.Fd())
			if !term.IsTerminal(fd) {
				return iohelper.ReadInputLine(os.Stdin)
			}

			return term.ReadPassword(fd)
		},
		mu: &sync.Mutex{},
	}, nil
}

type commandLineDialog struct {
	in  io.Reader
	out io.Writer

	keepUsername bool
	readPassword func() ([]byte, error)

	mu *sync.Mutex
}

func (d *commandLineDialog) ShowCredentialDialog(req *security.DialogRequest) (*security.DialogResponse, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if exceeds(req.Username, req.MaxUsernameLength) {
		return security.NewDialogResponse(security.OutcomeBufferTooSmall, req.Username, ""), nil
	}

	err := d.printHeader(req)
	if err != nil {
		return nil, err
	}

	username := req.Username
	if !d.keepUsername || len(username) == 0 {
		username, err = d.readUsername(req.Username)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return security.NewDialogResponse(security.OutcomeCancelled, req.Username, ""), nil
			}

			return nil, fmt.Errorf("failed to read username: %w", err)
		}
	}

	if exceeds(username, req.MaxUsernameLength) {
		return security.NewDialogResponse(security.OutcomeBufferTooSmall, username, ""), nil
	}

	_, err = fmt.Fprint(d.out, "password: ")
	if err != nil {
		return nil, err
	}

	pwd, err := d.readPassword()
	_, _ = fmt.Fprintln(d.out)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return security.NewDialogResponse(security.OutcomeCancelled, username, ""), nil
		}

		return nil, fmt.Errorf("failed to read password: %w", err)
	}

	password := trimLine(pwd)
	for i := range pwd {
		pwd[i] = 0
	}

	if exceeds(password, req.MaxPasswordLength) {
		return security.NewDialogResponse(security.OutcomeBufferTooSmall, username, ""), nil
	}

	return security.NewDialogResponse(security.OutcomeAccepted, username, password), nil
}

func (d *commandLineDialog) printHeader(req *security.DialogRequest) error {
	title := req.Caption
	if len(title) == 0 {
		title = fmt.Sprintf("Login to %s", req.Target)
	}

	_, err := fmt.Fprintln(d.out, title)
	if err != nil {
		return err
	}

	if len(req.Message) != 0 {
		_, err = fmt.Fprintln(d.out, req.Message)
		if err != nil {
			return err
		}
	}

	if req.Flags.Has(security.FlagIncorrectPassword) {
		_, err = fmt.Fprintln(d.out, "The user name or password is incorrect, please try again.")
		if err != nil {
			return err
		}
	}

	return nil
}

// readUsername keeps current username when the input is empty
func (d *commandLineDialog) readUsername(current string) (string, error) {
	prompt := "username: "
	if len(current) != 0 {
		prompt = fmt.Sprintf("username [%s]: ", current)
	}

	_, err := fmt.Fprint(d.out, prompt)
	if err != nil {
		return "", err
	}

	line, err := iohelper.ReadInputLine(d.in)
	// last line without newline
	if err != nil && !(errors.Is(err, io.EOF) && len(line) != 0) {
		return "", err
	}

	username := strings.TrimSpace(trimLine(line))
	if len(username) == 0 {
		return current, nil
	}

	return username, nil
}

func trimLine(data []byte) string {
	return strings.TrimRight(string(data), "\r\n")
}

func exceeds(s string, max int) bool {
	return max > 0 && utf8.RuneCountInString(s) > max
}
