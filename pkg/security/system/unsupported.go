package system

import (
	"fmt"
	"runtime"

	"arhat.dev/credprompt/pkg/security"
)

type unsupportedConfig struct{}

func newUnsupportedConfig() interface{} { return &unsupportedConfig{} }

func errUnsupported(what string) error {
	return fmt.Errorf("system %s on %s: %w", what, runtime.GOOS, security.ErrUnsupported)
}
