//go:build !darwin
// +build !darwin

package system

import (
	"arhat.dev/credprompt/pkg/constant"
	"arhat.dev/credprompt/pkg/security"
)

func init() {
	security.RegisterKeychainHandler(
		constant.KeychainSystem,
		func(config interface{}) (security.KeychainHandler, error) {
			return nil, errUnsupported("keychain")
		},
		newUnsupportedConfig,
	)
}
