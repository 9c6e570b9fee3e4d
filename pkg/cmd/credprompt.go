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

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"arhat.dev/pkg/log"
	"github.com/spf13/cobra"

	"arhat.dev/credprompt/pkg/conf"
	"arhat.dev/credprompt/pkg/constant"
	"arhat.dev/credprompt/pkg/prompt"
	"arhat.dev/credprompt/pkg/security"
	"arhat.dev/credprompt/pkg/security/webhook"
)

// ErrPromptFailed is returned when no credential was accepted
var ErrPromptFailed = errors.New("credential not accepted")

func NewRootCmd() *cobra.Command {
	var (
		configFile   string
		config       = new(conf.Config)
		cliLogConfig = new(log.Config)
	)

	rootCmd := &cobra.Command{
		Use:           "credprompt",
		Short:         "Prompt for credentials until they are accepted",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return conf.ReadConfig(cmd.Flags(), &configFile, cliLogConfig, config)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.OutOrStdout(), config)
		},
	}

	flags := rootCmd.PersistentFlags()

	flags.StringVarP(&configFile, "config", "c", constant.DefaultConfigFile,
		"path to the config file")
	flags.AddFlagSet(log.FlagsForLogConfig("log.", cliLogConfig))
	flags.AddFlagSet(conf.FlagsForAppConfig("", &config.App))
	flags.AddFlagSet(conf.FlagsForPromptConfig("", &config.Prompt))

	return rootCmd
}

type output struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func run(stdout io.Writer, config *conf.Config) error {
	logger := log.Log.WithName("app")

	requester, err := security.CreateRequesterInfo(uint64(os.Getpid()))
	if err != nil {
		logger.I("failed to collect requester info", log.Error(err))
	}

	if wc, ok := config.App.Validator.Config.(*webhook.Config); ok {
		wc.Requester = requester
	}

	dialog, err := security.NewDialogHandler(config.App.Dialog.Name, config.App.Dialog.Config)
	if err != nil {
		return fmt.Errorf("failed to create credential dialog %q: %w", config.App.Dialog.Name, err)
	}

	validator, err := security.NewValidator(config.App.Validator.Name, config.App.Validator.Config)
	if err != nil {
		return fmt.Errorf("failed to create credential validator %q: %w", config.App.Validator.Name, err)
	}

	keychain, err := security.NewKeychainHandler(config.App.Keychain.Name, config.App.Keychain.Config)
	if err != nil {
		return fmt.Errorf("failed to create keychain handler %q: %w", config.App.Keychain.Name, err)
	}

	return promptAndWrite(logger, stdout, config.Prompt, requester, dialog, validator, keychain)
}

func promptAndWrite(
	logger log.Interface,
	stdout io.Writer,
	pc conf.PromptConfig,
	requester *security.RequesterInfo,
	dialog security.DialogHandler,
	validator security.Validator,
	keychain security.KeychainHandler,
) error {
	username := pc.Username
	if len(username) == 0 {
		var err error
		username, err = keychain.GetUsername(pc.Target)
		if err != nil && !errors.Is(err, security.ErrNotFound) {
			logger.I("failed to lookup remembered username", log.Error(err))
		}
	}

	message := pc.Message
	if len(message) == 0 && requester != nil {
		message = requester.FormatMessage(pc.Target)
	}

	p := prompt.NewPrompter(logger.WithName("prompt"), dialog, validator, prompt.Options{
		Target:            pc.Target,
		Caption:           pc.Caption,
		Message:           message,
		MaxAttempts:       pc.MaxAttempts,
		MaxUsernameLength: pc.MaxUsernameLength,
		MaxPasswordLength: pc.MaxPasswordLength,
	})

	result := p.PromptForPassword(username)
	if !result.Success {
		if result.Err != nil {
			return fmt.Errorf("%w after %d attempt(s): %s: %v",
				ErrPromptFailed, result.Attempts, result.Outcome, result.Err)
		}

		return fmt.Errorf("%w after %d attempt(s): %s",
			ErrPromptFailed, result.Attempts, result.Outcome)
	}

	err := keychain.SaveUsername(pc.Target, result.Username)
	if err != nil {
		logger.I("failed to remember username", log.Error(err))
	}

	return json.NewEncoder(stdout).Encode(&output{
		Username: result.Username,
		Password: result.Password,
	})
}
