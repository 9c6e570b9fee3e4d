package security

func init() {
	// set as default to avoid failure
	RegisterKeychainHandler(
		"",
		func(config interface{}) (KeychainHandler, error) {
			return &nopKeychainHandler{}, nil
		},
		func() interface{} { return &nopKeychainHandlerConfig{} },
	)
}

type nopKeychainHandlerConfig struct{}

type nopKeychainHandler struct{}

func (nopKeychainHandler) SaveUsername(target, username string) error {
	return nil
}

func (nopKeychainHandler) DeleteUsername(target string) error {
	return nil
}

func (nopKeychainHandler) GetUsername(target string) (string, error) {
	return "", ErrNotFound
}
