package system

import (
	"strings"
	"unicode/utf16"

	"arhat.dev/credprompt/pkg/security"
)

// native flags not exposed by security.DialogFlags
const (
	flagDoNotPersist     = 0x2
	flagShowSaveCheckBox = 0x40
)

// dialogCall holds NUL terminated UTF-16 arguments of one native dialog call
type dialogCall struct {
	target  []uint16
	caption []uint16
	message []uint16

	// buffers hold max length plus the terminating NUL
	userBuf []uint16
	passBuf []uint16

	flags uint32
}

// prepareDialog converts req to native call arguments, a non nil response
// means the dialog must not be shown
func prepareDialog(req *security.DialogRequest, showSaveCheckBox bool) (*dialogCall, *security.DialogResponse) {
	invalid := security.NewDialogResponse(security.OutcomeInvalidParameter, req.Username, "")

	initial, ok := utf16z(req.Username)
	if !ok {
		return nil, invalid
	}

	call := &dialogCall{
		userBuf: make([]uint16, req.MaxUsernameLength+1),
		passBuf: make([]uint16, req.MaxPasswordLength+1),
		flags:   uint32(req.Flags) | flagDoNotPersist,
	}

	if len(initial) > len(call.userBuf) {
		return nil, security.NewDialogResponse(security.OutcomeBufferTooSmall, req.Username, "")
	}
	copy(call.userBuf, initial)

	if showSaveCheckBox {
		call.flags |= flagShowSaveCheckBox
	}

	if call.target, ok = utf16z(req.Target); !ok {
		return nil, invalid
	}

	if len(req.Caption) != 0 {
		if call.caption, ok = utf16z(req.Caption); !ok {
			return nil, invalid
		}
	}

	if len(req.Message) != 0 {
		if call.message, ok = utf16z(req.Message); !ok {
			return nil, invalid
		}
	}

	return call, nil
}

// utf16z encodes s as NUL terminated UTF-16, s must not contain NUL
func utf16z(s string) ([]uint16, bool) {
	if strings.IndexByte(s, 0) != -1 {
		return nil, false
	}

	return append(utf16.Encode([]rune(s)), 0), true
}

// utf16String decodes buf up to the first NUL
func utf16String(buf []uint16) string {
	for i, v := range buf {
		if v == 0 {
			buf = buf[:i]
			break
		}
	}

	return string(utf16.Decode(buf))
}

func (c *dialogCall) wipe() {
	for i := range c.passBuf {
		c.passBuf[i] = 0
	}
}
