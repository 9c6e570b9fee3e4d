//go:build windows
// +build windows

package system

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"arhat.dev/credprompt/pkg/constant"
	"arhat.dev/credprompt/pkg/security"
)

// https://learn.microsoft.com/en-us/windows/win32/api/wincred/nf-wincred-creduipromptforcredentialsw

func init() {
	security.RegisterDialogHandler(constant.DialogSystem, newDialogHandler, newDialogHandlerConfig)
}

var (
	modcredui = windows.NewLazySystemDLL("credui.dll")

	procCredUIPromptForCredentialsW = modcredui.NewProc("CredUIPromptForCredentialsW")
)

func newDialogHandlerConfig() interface{} { return &dialogConfig{} }

type dialogConfig struct {
	// ShowSaveCheckBox shows the "remember my credentials" checkbox,
	// the state is reported but never acted on
	ShowSaveCheckBox bool `json:"show_save_check_box" yaml:"show_save_check_box"`
}

func newDialogHandler(config interface{}) (security.DialogHandler, error) {
	c, ok := config.(*dialogConfig)
	if !ok {
		return nil, fmt.Errorf("unexpected non system dialog config: %T", config)
	}

	err := procCredUIPromptForCredentialsW.Find()
	if err != nil {
		return nil, fmt.Errorf("credential dialog not available: %w", err)
	}

	return &dialogHandler{
		showSaveCheckBox: c.ShowSaveCheckBox,
		mu:               &sync.Mutex{},
	}, nil
}

// credUIInfo is CREDUI_INFOW
type credUIInfo struct {
	cbSize      uint32
	hwndParent  windows.Handle
	messageText *uint16
	captionText *uint16
	hbmBanner   windows.Handle
}

type dialogHandler struct {
	showSaveCheckBox bool

	// the dialog is modal, serialize requests
	mu *sync.Mutex
}

func (h *dialogHandler) ShowCredentialDialog(req *security.DialogRequest) (*security.DialogResponse, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	call, early := prepareDialog(req, h.showSaveCheckBox)
	if early != nil {
		return early, nil
	}
	defer call.wipe()

	info := &credUIInfo{}
	info.cbSize = uint32(unsafe.Sizeof(*info))
	if call.message != nil {
		info.messageText = &call.message[0]
	}

	if call.caption != nil {
		info.captionText = &call.caption[0]
	}

	var save int32

	// nolint:gosec
	r1, _, _ := procCredUIPromptForCredentialsW.Call(
		uintptr(unsafe.Pointer(info)),
		uintptr(unsafe.Pointer(&call.target[0])),
		0, // reserved
		0, // no auth error
		uintptr(unsafe.Pointer(&call.userBuf[0])),
		uintptr(len(call.userBuf)),
		uintptr(unsafe.Pointer(&call.passBuf[0])),
		uintptr(len(call.passBuf)),
		uintptr(unsafe.Pointer(&save)),
		uintptr(call.flags),
	)

	code := uint32(r1)
	resp := &security.DialogResponse{
		Outcome:  security.OutcomeFromCode(code),
		Code:     code,
		Username: utf16String(call.userBuf),
		Password: utf16String(call.passBuf),
		Save:     save != 0,
	}

	return resp, nil
}
