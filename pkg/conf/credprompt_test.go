package conf

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"arhat.dev/pkg/log"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"arhat.dev/credprompt/pkg/constant"
	"arhat.dev/credprompt/pkg/security"
)

type testDialogConfig struct {
	Theme string `json:"theme" yaml:"theme"`
}

type testValidatorConfig struct {
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

func init() {
	security.RegisterDialogHandler("test-dialog",
		func(config interface{}) (security.DialogHandler, error) { return nil, nil },
		func() interface{} { return &testDialogConfig{} },
	)

	security.RegisterValidator("test-validator",
		func(config interface{}) (security.Validator, error) { return nil, nil },
		func() interface{} { return &testValidatorConfig{} },
	)

	security.RegisterValidator("other-validator",
		func(config interface{}) (security.Validator, error) { return nil, nil },
		func() interface{} { return &testValidatorConfig{} },
	)
}

const testConfig = `
app:
  dialog:
    name: test-dialog
    config:
      theme: dark
  validator:
    name: test-validator
    config:
      endpoint: https://example.com
prompt:
  target: Nexus
  maxAttempts: 3
`

func newTestFlags(configFile *string, logConfig *log.Config, config *Config) *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringVarP(configFile, "config", "c", "", "")
	flags.AddFlagSet(log.FlagsForLogConfig("log.", logConfig))
	flags.AddFlagSet(FlagsForAppConfig("", &config.App))
	flags.AddFlagSet(FlagsForPromptConfig("", &config.Prompt))
	return flags
}

func writeConfig(t *testing.T, content string) string {
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0600))
	return file
}

func TestUnmarshalServiceConfig(t *testing.T) {
	config := &Config{}
	require.NoError(t, yaml.Unmarshal([]byte(testConfig), config))

	assert.Equal(t, "test-dialog", config.App.Dialog.Name)
	assert.Equal(t, &testDialogConfig{Theme: "dark"}, config.App.Dialog.Config)

	assert.Equal(t, "test-validator", config.App.Validator.Name)
	assert.Equal(t, &testValidatorConfig{Endpoint: "https://example.com"}, config.App.Validator.Config)

	err := yaml.Unmarshal([]byte("app:\n  dialog:\n    name: no-such-dialog\n"), &Config{})
	assert.ErrorIs(t, err, security.ErrNotFound)

	err = yaml.Unmarshal([]byte("app:\n  dialog:\n    name: test-dialog\n    config:\n      color: red\n"), &Config{})
	assert.Error(t, err)
}

func TestUnmarshalServiceConfigKeepsName(t *testing.T) {
	config := &Config{}
	config.App.Dialog.Name = "test-dialog"

	require.NoError(t, yaml.Unmarshal([]byte("app:\n  dialog:\n    config:\n      theme: light\n"), config))
	assert.Equal(t, "test-dialog", config.App.Dialog.Name)
	assert.Equal(t, &testDialogConfig{Theme: "light"}, config.App.Dialog.Config)

	dialog := &DialogServiceConfig{Name: "test-dialog"}
	require.NoError(t, json.Unmarshal([]byte(`{"config":{"theme":"dim"}}`), dialog))
	assert.Equal(t, "test-dialog", dialog.Name)
	assert.Equal(t, &testDialogConfig{Theme: "dim"}, dialog.Config)

	empty := &DialogServiceConfig{}
	require.NoError(t, json.Unmarshal([]byte(`{}`), empty))
	assert.Empty(t, empty.Name)
	assert.Nil(t, empty.Config)
}

func TestReadConfig(t *testing.T) {
	var (
		configFile string
		logConfig  = new(log.Config)
		config     = new(Config)
	)

	file := writeConfig(t, testConfig)
	flags := newTestFlags(&configFile, logConfig, config)
	require.NoError(t, flags.Parse([]string{"-c", file, "--max-attempts", "5", "-u", "alice"}))

	require.NoError(t, ReadConfig(flags, &configFile, logConfig, config))

	assert.Equal(t, "Nexus", config.Prompt.Target)
	assert.Equal(t, 5, config.Prompt.MaxAttempts)
	assert.Equal(t, "alice", config.Prompt.Username)
	assert.Equal(t, constant.DefaultMaxUsernameLength, config.Prompt.MaxUsernameLength)
	assert.Equal(t, &testDialogConfig{Theme: "dark"}, config.App.Dialog.Config)
	assert.Len(t, config.App.Log, 1)

	// keychain not configured, falls back to nop handler
	assert.Equal(t, "", config.App.Keychain.Name)
	assert.NotNil(t, config.App.Keychain.Config)
}

func TestReadConfigFlagOverridesHandler(t *testing.T) {
	var (
		configFile string
		logConfig  = new(log.Config)
		config     = new(Config)
	)

	file := writeConfig(t, testConfig)
	flags := newTestFlags(&configFile, logConfig, config)
	require.NoError(t, flags.Parse([]string{"-c", file, "--validator", "other-validator"}))

	require.NoError(t, ReadConfig(flags, &configFile, logConfig, config))

	assert.Equal(t, "other-validator", config.App.Validator.Name)
	assert.Equal(t, &testValidatorConfig{}, config.App.Validator.Config)
}

func TestReadConfigMissingFile(t *testing.T) {
	var (
		logConfig = new(log.Config)
		config    = new(Config)
	)

	configFile := filepath.Join(t.TempDir(), "missing.yaml")

	// default path may be missing
	flags := newTestFlags(&configFile, logConfig, config)
	require.NoError(t, flags.Parse([]string{"--dialog", "test-dialog", "--validator", "test-validator"}))
	configFile = filepath.Join(t.TempDir(), "missing.yaml")
	assert.NoError(t, ReadConfig(flags, &configFile, logConfig, config))

	// explicitly set path must exist
	config = new(Config)
	flags = newTestFlags(&configFile, logConfig, config)
	require.NoError(t, flags.Parse([]string{"-c", configFile}))
	assert.Error(t, ReadConfig(flags, &configFile, logConfig, config))
}

func TestConfigValidate(t *testing.T) {
	config := &Config{}
	err := config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "target")
	assert.Contains(t, err.Error(), "validator")

	config = &Config{
		App: AppConfig{Validator: ValidatorServiceConfig{Name: "webhook"}},
		Prompt: PromptConfig{
			Target:            constant.DefaultTarget,
			MaxUsernameLength: 100,
			MaxPasswordLength: 100,
		},
	}
	assert.NoError(t, config.Validate())
}
