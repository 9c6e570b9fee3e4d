package conf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"arhat.dev/pkg/log"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"arhat.dev/credprompt/pkg/security"
)

// ReadConfig reads config file and overrides its values with flags set
// explicitly in command line, then configures default logger
//
// a missing config file is only an error when its path was set explicitly
func ReadConfig(
	flags *pflag.FlagSet,
	configFile *string,
	cliLogConfig *log.Config,
	config *Config,
) error {
	changed := make(map[string]string)
	flags.Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})

	_, configFileSet := changed["config"]

	if len(*configFile) != 0 {
		data, err := os.ReadFile(*configFile)
		switch {
		case err == nil:
			err = decodeConfig(data, config)
			if err != nil {
				return fmt.Errorf("failed to decode config file %q: %w", *configFile, err)
			}
		case errors.Is(err, os.ErrNotExist) && !configFileSet:
		default:
			return fmt.Errorf("failed to read config file %q: %w", *configFile, err)
		}
	}

	err := applyFlags(flags, changed, config)
	if err != nil {
		return err
	}

	logFlagChanged := false
	for name := range changed {
		if strings.HasPrefix(name, "log.") {
			logFlagChanged = true
			break
		}
	}

	if len(config.App.Log) == 0 || logFlagChanged {
		config.App.Log = log.ConfigSet{*cliLogConfig}
	}

	err = log.SetDefaultLogger(config.App.Log)
	if err != nil {
		return fmt.Errorf("failed to set default logger: %w", err)
	}

	return config.Validate()
}

func decodeConfig(data []byte, config *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	err := dec.Decode(config)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	return nil
}

// applyFlags sets changed flag values again since decoding config file
// overwrites them
func applyFlags(flags *pflag.FlagSet, changed map[string]string, config *Config) error {
	services := []struct {
		c         *serviceConfig
		newConfig configFactoryFunc
	}{
		{(*serviceConfig)(&config.App.Dialog), security.NewDialogHandlerConfig},
		{(*serviceConfig)(&config.App.Validator), security.NewValidatorConfig},
		{(*serviceConfig)(&config.App.Keychain), security.NewKeychainHandlerConfig},
	}

	names := make([]string, len(services))
	for i, s := range services {
		names[i] = s.c.Name
	}

	for name, value := range changed {
		err := flags.Set(name, value)
		if err != nil {
			return fmt.Errorf("failed to apply flag %q: %w", name, err)
		}
	}

	for i, s := range services {
		// config decoded from file belongs to another handler
		if s.c.Name != names[i] {
			s.c.Config = nil
		}

		err := s.c.resolve(s.newConfig)
		if err != nil {
			return err
		}
	}

	return nil
}
