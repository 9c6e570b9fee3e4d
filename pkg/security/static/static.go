// Package static validates credentials against bcrypt hashes listed in
// the configuration, mostly useful for offline installs and testing.
package static

import (
	"fmt"

	"arhat.dev/pkg/log"
	"golang.org/x/crypto/bcrypt"

	"arhat.dev/credprompt/pkg/constant"
	"arhat.dev/credprompt/pkg/security"
)

func init() {
	security.RegisterValidator(constant.ValidatorStatic, newValidator, newValidatorConfig)
}

func newValidatorConfig() interface{} {
	return &Config{}
}

type Config struct {
	// Users maps username to bcrypt hashed password
	Users map[string]string `json:"users" yaml:"users"`
}

func newValidator(config interface{}) (security.Validator, error) {
	c, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unexpected non static config: %T", config)
	}

	users := make(map[string][]byte, len(c.Users))
	for name, hash := range c.Users {
		_, err := bcrypt.Cost([]byte(hash))
		if err != nil {
			return nil, fmt.Errorf("invalid bcrypt hash for user %q: %w", name, err)
		}

		users[name] = []byte(hash)
	}

	return &validator{
		logger: log.Log.WithName("static"),
		users:  users,
	}, nil
}

type validator struct {
	logger log.Interface
	users  map[string][]byte
}

func (v *validator) Validate(username, password string) bool {
	hash, ok := v.users[username]
	if !ok {
		v.logger.D("unknown user", log.String("username", username))
		return false
	}

	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
