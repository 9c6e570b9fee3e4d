package system

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"arhat.dev/credprompt/pkg/constant"
	"arhat.dev/credprompt/pkg/security"
)

func init() {
	security.RegisterKeychainHandler(constant.KeychainKeyring, newKeyringHandler, newKeyringHandlerConfig)
}

func newKeyringHandlerConfig() interface{} { return &KeyringConfig{} }

type KeyringConfig struct {
	Service string `json:"service" yaml:"service"`
}

func newKeyringHandler(config interface{}) (security.KeychainHandler, error) {
	c, ok := config.(*KeyringConfig)
	if !ok {
		return nil, fmt.Errorf("unexpected non keyring config: %T", config)
	}

	service := c.Service
	if len(service) == 0 {
		service = keyringServiceName
	}

	return &keyringHandler{service: service}, nil
}

const keyringServiceName = "credprompt"

// keyringHandler stores usernames in the secret service on linux, the
// credential manager on windows and the keychain on darwin
type keyringHandler struct {
	service string
}

func (h *keyringHandler) SaveUsername(target, username string) error {
	data, err := sealLoginString(username)
	if err != nil {
		return fmt.Errorf("keyring: %w", err)
	}

	err = keyring.Set(h.service, target, data)
	if err != nil {
		return fmt.Errorf("keyring: failed to save login: %w", err)
	}

	return nil
}

func (h *keyringHandler) DeleteUsername(target string) error {
	err := keyring.Delete(h.service, target)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring: failed to delete login: %w", err)
	}

	return nil
}

func (h *keyringHandler) GetUsername(target string) (string, error) {
	data, err := keyring.Get(h.service, target)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", security.ErrNotFound
		}

		return "", fmt.Errorf("keyring: failed to get login: %w", err)
	}

	username, err := openLoginString(data)
	if err != nil {
		_ = h.DeleteUsername(target)
		return "", fmt.Errorf("keyring: %w", err)
	}

	return username, nil
}
