//go:build !windows
// +build !windows

package system

import (
	"arhat.dev/credprompt/pkg/constant"
	"arhat.dev/credprompt/pkg/security"
)

func init() {
	security.RegisterDialogHandler(
		constant.DialogSystem,
		func(config interface{}) (security.DialogHandler, error) {
			return nil, errUnsupported("credential dialog")
		},
		newUnsupportedConfig,
	)
}
