/*
Copyright 2020 The arhat.dev Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package conf

import (
	"fmt"

	"arhat.dev/pkg/log"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"

	"arhat.dev/credprompt/pkg/constant"
)

type Config struct {
	App AppConfig `json:"app" yaml:"app"`

	Prompt PromptConfig `json:"prompt" yaml:"prompt"`
}

type AppConfig struct {
	Log log.ConfigSet `json:"log" yaml:"log"`

	Dialog    DialogServiceConfig    `json:"dialog" yaml:"dialog"`
	Validator ValidatorServiceConfig `json:"validator" yaml:"validator"`
	Keychain  KeychainServiceConfig  `json:"keychain" yaml:"keychain"`
}

type PromptConfig struct {
	Username string `json:"username" yaml:"username"`
	Target   string `json:"target" yaml:"target"`
	Caption  string `json:"caption" yaml:"caption"`

	// Message shown in the dialog, defaults to a description of the
	// requesting process
	Message string `json:"message" yaml:"message"`

	MaxAttempts int `json:"maxAttempts" yaml:"maxAttempts"`

	MaxUsernameLength int `json:"maxUsernameLength" yaml:"maxUsernameLength"`
	MaxPasswordLength int `json:"maxPasswordLength" yaml:"maxPasswordLength"`
}

func FlagsForAppConfig(prefix string, config *AppConfig) *pflag.FlagSet {
	fs := pflag.NewFlagSet("app", pflag.ExitOnError)
	fs.StringVar(&config.Dialog.Name, prefix+"dialog", constant.DefaultDialog(),
		"credential dialog, one of [system, cli, tui]")
	fs.StringVar(&config.Validator.Name, prefix+"validator", constant.ValidatorWebhook,
		"credential validator, one of [webhook, static]")
	fs.StringVar(&config.Keychain.Name, prefix+"keychain", "",
		"keychain to remember accepted username, one of [system, keyring], empty to disable")
	return fs
}

func FlagsForPromptConfig(prefix string, config *PromptConfig) *pflag.FlagSet {
	fs := pflag.NewFlagSet("prompt", pflag.ExitOnError)
	fs.StringVarP(&config.Username, prefix+"username", "u", "", "initial username")
	fs.StringVar(&config.Target, prefix+"target", constant.DefaultTarget, "target label of the credential")
	fs.StringVar(&config.Caption, prefix+"caption", "", "dialog caption")
	fs.StringVar(&config.Message, prefix+"message", "", "dialog message")
	fs.IntVar(&config.MaxAttempts, prefix+"max-attempts", 0, "max dialogs shown, 0 for unlimited")
	fs.IntVar(&config.MaxUsernameLength, prefix+"max-username-length",
		constant.DefaultMaxUsernameLength, "max characters of username")
	fs.IntVar(&config.MaxPasswordLength, prefix+"max-password-length",
		constant.DefaultMaxPasswordLength, "max characters of password")
	return fs
}

func (c *Config) Validate() error {
	var err error

	if len(c.Prompt.Target) == 0 {
		err = multierr.Append(err, fmt.Errorf("prompt target must not be empty"))
	}

	if c.Prompt.MaxAttempts < 0 {
		err = multierr.Append(err, fmt.Errorf("invalid negative max attempts %d", c.Prompt.MaxAttempts))
	}

	if c.Prompt.MaxUsernameLength <= 0 {
		err = multierr.Append(err, fmt.Errorf("invalid max username length %d", c.Prompt.MaxUsernameLength))
	}

	if c.Prompt.MaxPasswordLength <= 0 {
		err = multierr.Append(err, fmt.Errorf("invalid max password length %d", c.Prompt.MaxPasswordLength))
	}

	if len(c.App.Validator.Name) == 0 {
		err = multierr.Append(err, fmt.Errorf("validator must be set"))
	}

	return err
}
