package system

import (
	"errors"
	"fmt"

	"github.com/keybase/go-keychain"

	"arhat.dev/credprompt/pkg/constant"
	"arhat.dev/credprompt/pkg/security"
)

func init() {
	// for darwin, it should be the default keychain handler
	security.RegisterKeychainHandler(constant.KeychainSystem, newKeychainHandler, newKeychainHandlerConfig)
}

func newKeychainHandlerConfig() interface{} { return &keychainConfig{} }

type keychainConfig struct {
	AccessGroup string `json:"access_group" yaml:"access_group"`
}

func newKeychainHandler(config interface{}) (security.KeychainHandler, error) {
	c, ok := config.(*keychainConfig)
	if !ok {
		return nil, fmt.Errorf("unexpected non keychain config: %T", config)
	}

	return &keychainHandler{accessGroup: c.AccessGroup}, nil
}

const (
	keychainServiceName = "credprompt"
)

type keychainHandler struct {
	accessGroup string
}

func (h *keychainHandler) newKeychainItem(target string) *keychain.Item {
	item := keychain.NewItem()

	item.SetSecClass(keychain.SecClassGenericPassword)
	item.SetService(keychainServiceName)
	item.SetAccount(target)
	if len(h.accessGroup) != 0 {
		item.SetAccessGroup(h.accessGroup)
	}

	return &item
}

func (h *keychainHandler) SaveUsername(target, username string) error {
	data, err := sealLogin(username)
	if err != nil {
		return fmt.Errorf("keychain: %w", err)
	}

	item := h.newKeychainItem(target)

	item.SetSynchronizable(keychain.SynchronizableNo)
	item.SetAccessible(keychain.AccessibleWhenUnlocked)
	item.SetData(data)

	err = keychain.AddItem(*item)
	if err != nil {
		if errors.Is(err, keychain.ErrorDuplicateItem) {
			err = keychain.UpdateItem(*h.newKeychainItem(target), *item)
			if err != nil {
				return fmt.Errorf("keychain: failed to update login: %w", err)
			}

			return nil
		}

		return fmt.Errorf("keychain: failed to add login: %w", err)
	}

	return nil
}

func (h *keychainHandler) DeleteUsername(target string) error {
	err := keychain.DeleteItem(*h.newKeychainItem(target))
	if err != nil && !errors.Is(err, keychain.ErrorItemNotFound) {
		return fmt.Errorf("keychain: failed to delete login: %w", err)
	}

	return nil
}

func (h *keychainHandler) GetUsername(target string) (string, error) {
	query := h.newKeychainItem(target)

	query.SetMatchLimit(keychain.MatchLimitOne)
	query.SetReturnData(true)

	results, err := keychain.QueryItem(*query)
	if err != nil {
		return "", fmt.Errorf("keychain: failed to query item: %w", err)
	}

	if len(results) != 1 {
		return "", security.ErrNotFound
	}

	username, err := openLogin(results[0].Data)
	if err != nil {
		_ = h.DeleteUsername(target)
		return "", fmt.Errorf("keychain: %w", err)
	}

	return username, nil
}
