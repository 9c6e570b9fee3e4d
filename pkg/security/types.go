package security

import (
	"errors"
	"fmt"
	"os/user"
	"strconv"

	"github.com/mitchellh/go-ps"
)

// Errors require special handling
// nolint:revive
var (
	// stored data not found
	ErrNotFound = errors.New("not found")

	// old stored data invalid, need to request a new one
	ErrOldInvalid = errors.New("old invalid")

	// operation not supported
	ErrUnsupported = errors.New("not supported")
)

// DialogOutcome is the result of one credential dialog invocation
type DialogOutcome int

// nolint:revive
const (
	OutcomeAccepted DialogOutcome = iota
	OutcomeCancelled
	OutcomeSessionError
	OutcomeNotFound
	OutcomeInvalidAccountName
	OutcomeBufferTooSmall
	OutcomeInvalidParameter
	OutcomeInvalidFlags

	// native return code not known to us
	OutcomeUnknown
)

var outcomeCodes = map[DialogOutcome]uint32{
	OutcomeAccepted:           0,
	OutcomeCancelled:          1223,
	OutcomeSessionError:       1312,
	OutcomeNotFound:           1168,
	OutcomeInvalidAccountName: 1315,
	OutcomeBufferTooSmall:     122,
	OutcomeInvalidParameter:   87,
	OutcomeInvalidFlags:       1004,
}

func (o DialogOutcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeSessionError:
		return "no such logon session"
	case OutcomeNotFound:
		return "not found"
	case OutcomeInvalidAccountName:
		return "invalid account name"
	case OutcomeBufferTooSmall:
		return "insufficient buffer"
	case OutcomeInvalidParameter:
		return "invalid parameter"
	case OutcomeInvalidFlags:
		return "invalid flags"
	default:
		return "unknown"
	}
}

// Code returns the native error code of the outcome
func (o DialogOutcome) Code() uint32 {
	code, ok := outcomeCodes[o]
	if !ok {
		return ^uint32(0)
	}

	return code
}

// OutcomeFromCode maps native dialog return code to DialogOutcome
func OutcomeFromCode(code uint32) DialogOutcome {
	for o, c := range outcomeCodes {
		if c == code {
			return o
		}
	}

	return OutcomeUnknown
}

// DialogFlags controls dialog appearance, values are the same as native flags
type DialogFlags uint32

// nolint:revive
const (
	FlagIncorrectPassword  DialogFlags = 0x1
	FlagAlwaysShowUI       DialogFlags = 0x80
	FlagGenericCredentials DialogFlags = 0x40000
)

func (f DialogFlags) Has(flag DialogFlags) bool {
	return f&flag == flag
}

type DialogRequest struct {
	// Target is the label of the resource credentials are requested for
	Target  string
	Caption string
	Message string

	// Username prefilled in the dialog
	Username string
	Flags    DialogFlags

	MaxUsernameLength int
	MaxPasswordLength int
}

type DialogResponse struct {
	Outcome DialogOutcome
	// Code is the raw return code reported by the dialog
	Code uint32

	Username string
	Password string

	// Save is the state of save credential checkbox, if any
	Save bool
}

// NewDialogResponse creates a response with Code set according to outcome
func NewDialogResponse(outcome DialogOutcome, username, password string) *DialogResponse {
	return &DialogResponse{
		Outcome:  outcome,
		Code:     outcome.Code(),
		Username: username,
		Password: password,
	}
}

type DialogHandler interface {
	// ShowCredentialDialog blocks until the user dismissed the dialog
	//
	// a non nil error means the dialog could not be shown at all
	ShowCredentialDialog(req *DialogRequest) (*DialogResponse, error)
}

type Validator interface {
	// Validate reports whether the credential pair is acceptable, failures
	// inside the validator count as rejection
	Validate(username, password string) bool
}

type KeychainHandler interface {
	// SaveUsername saves username to system keychain
	SaveUsername(target, username string) error

	// DeleteUsername deletes stored username
	DeleteUsername(target string) error

	// GetUsername retrieves previously stored username
	GetUsername(target string) (string, error)
}

// RequesterInfo describes the process asking for credentials
type RequesterInfo struct {
	UserDisplayName string `json:"user_display_name" yaml:"user_display_name"`
	UserLoginName   string `json:"user_login_name" yaml:"user_login_name"`
	UserID          string `json:"user_id" yaml:"user_id"`

	ProcessName string `json:"process_name" yaml:"process_name"`
	ProcessID   uint64 `json:"process_id" yaml:"process_id"`

	ParentProcessName string `json:"parent_process_name" yaml:"parent_process_name"`
	ParentProcessID   uint64 `json:"parent_process_id" yaml:"parent_process_id"`

	ProcessCallingPath []ProcessNameAndID `json:"process_calling_path" yaml:"process_calling_path"`
}

type ProcessNameAndID struct {
	Name string `json:"name" yaml:"name"`
	PID  uint64 `json:"pid" yaml:"pid"`
}

func (r *RequesterInfo) FormatMessage(target string) string {
	username := r.UserDisplayName
	if len(username) == 0 {
		username = r.UserLoginName
	}

	processInfo := fmt.Sprintf("%q (pid=%d)", r.ProcessName, r.ProcessID)

	if r.ParentProcessID == 0 {
		return fmt.Sprintf(
			"%s is requesting %s credentials of %s",
			processInfo, target, username,
		)
	}

	parentProcessInfo := fmt.Sprintf("%q (pid=%d)", r.ParentProcessName, r.ParentProcessID)

	return fmt.Sprintf(
		"%s (invoked in %s) is requesting %s credentials of %s",
		processInfo, parentProcessInfo, target, username,
	)
}

// CreateRequesterInfo collects info of the current user and process pid
func CreateRequesterInfo(pid uint64) (*RequesterInfo, error) {
	pidStr := strconv.FormatUint(pid, 10)

	if pid == 0 {
		return nil, fmt.Errorf("security: invalid pid value %q", pidStr)
	}

	u, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("security: failed to lookup current user: %w", err)
	}

	process, err := ps.FindProcess(int(pid))
	if err != nil {
		return nil, fmt.Errorf("security: failed to lookup pid %q: %w", pidStr, err)
	}

	if process == nil {
		return nil, fmt.Errorf("security: process %q not found", pidStr)
	}

	processName := process.Executable()
	if len(processName) == 0 {
		return nil, fmt.Errorf("security: failed to check executable of pid %q", pidStr)
	}

	var (
		parentPID          uint64
		parentProcessName  string
		processCallingPath []ProcessNameAndID
	)

	err = createProcessCallingPath(process.PPid(), &processCallingPath)
	if err != nil {
		return nil, fmt.Errorf("security: failed to create process calling path: %w", err)
	}

	if len(processCallingPath) != 0 {
		parentProcessName = processCallingPath[0].Name
		parentPID = processCallingPath[0].PID
	}

	return &RequesterInfo{
		UserDisplayName: u.Name,
		UserLoginName:   u.Username,
		UserID:          u.Uid,

		ProcessName: processName,
		ProcessID:   pid,

		ParentProcessName: parentProcessName,
		ParentProcessID:   parentPID,

		ProcessCallingPath: processCallingPath,
	}, nil
}

func createProcessCallingPath(ppid int, ret *([]ProcessNameAndID)) error {
	if ppid == 0 {
		return nil
	}

	pp, err := ps.FindProcess(ppid)
	if err != nil {
		ppidStr := strconv.FormatInt(int64(ppid), 10)
		return fmt.Errorf("failed to lookup ppid %q: %w", ppidStr, err)
	}

	// parent already exited
	if pp == nil {
		return nil
	}

	if pp.Pid() != ppid {
		return fmt.Errorf("unexpected pid not match, expected %d, got %d", ppid, pp.Pid())
	}

	name := pp.Executable()
	if len(name) == 0 {
		ppidStr := strconv.FormatInt(int64(ppid), 10)
		return fmt.Errorf("failed to find process name of pid %q", ppidStr)
	}

	*ret = append(*ret, ProcessNameAndID{
		Name: name,
		PID:  uint64(pp.Pid()),
	})

	// pid 1 (or 0 on some platforms) has no meaningful parent
	if pp.PPid() == ppid {
		return nil
	}

	return createProcessCallingPath(pp.PPid(), ret)
}
