package security

type (
	handlerKey struct {
		name string
	}

	ConfigFactoryFunc func() interface{}
)

type (
	dialogHandlerValue struct {
		f  DialogHandlerFactoryFunc
		cf ConfigFactoryFunc
	}

	DialogHandlerFactoryFunc func(config interface{}) (DialogHandler, error)
)

var supportedDialogHandlers = make(map[handlerKey]*dialogHandlerValue)

func RegisterDialogHandler(
	name string,
	f DialogHandlerFactoryFunc,
	cf ConfigFactoryFunc,
) {
	supportedDialogHandlers[handlerKey{name: name}] = &dialogHandlerValue{
		f:  f,
		cf: cf,
	}
}

func NewDialogHandlerConfig(name string) (interface{}, error) {
	v, ok := supportedDialogHandlers[handlerKey{name: name}]
	if !ok || v == nil {
		return nil, ErrNotFound
	}

	return v.cf(), nil
}

func NewDialogHandler(name string, config interface{}) (DialogHandler, error) {
	v, ok := supportedDialogHandlers[handlerKey{name: name}]
	if !ok || v == nil {
		return nil, ErrNotFound
	}

	return v.f(config)
}

type (
	validatorValue struct {
		f  ValidatorFactoryFunc
		cf ConfigFactoryFunc
	}

	ValidatorFactoryFunc func(config interface{}) (Validator, error)
)

var supportedValidators = make(map[handlerKey]*validatorValue)

func RegisterValidator(
	name string,
	f ValidatorFactoryFunc,
	cf ConfigFactoryFunc,
) {
	supportedValidators[handlerKey{name: name}] = &validatorValue{
		f:  f,
		cf: cf,
	}
}

func NewValidatorConfig(name string) (interface{}, error) {
	v, ok := supportedValidators[handlerKey{name: name}]
	if !ok || v == nil {
		return nil, ErrNotFound
	}

	return v.cf(), nil
}

func NewValidator(name string, config interface{}) (Validator, error) {
	v, ok := supportedValidators[handlerKey{name: name}]
	if !ok || v == nil {
		return nil, ErrNotFound
	}

	return v.f(config)
}

type (
	keychainHandlerValue struct {
		f  KeychainHandlerFactoryFunc
		cf ConfigFactoryFunc
	}

	KeychainHandlerFactoryFunc func(config interface{}) (KeychainHandler, error)
)

var supportedKeychainHandlers = make(map[handlerKey]*keychainHandlerValue)

func RegisterKeychainHandler(
	name string,
	f KeychainHandlerFactoryFunc,
	cf ConfigFactoryFunc,
) {
	supportedKeychainHandlers[handlerKey{name: name}] = &keychainHandlerValue{
		f:  f,
		cf: cf,
	}
}

func NewKeychainHandlerConfig(name string) (interface{}, error) {
	v, ok := supportedKeychainHandlers[handlerKey{name: name}]
	if !ok || v == nil {
		return nil, ErrNotFound
	}

	return v.cf(), nil
}

func NewKeychainHandler(name string, config interface{}) (KeychainHandler, error) {
	v, ok := supportedKeychainHandlers[handlerKey{name: name}]
	if !ok || v == nil {
		return nil, ErrNotFound
	}

	return v.f(config)
}
