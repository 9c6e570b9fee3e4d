package conf

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"arhat.dev/credprompt/pkg/security"
)

// serviceConfig is a named handler with handler specific config
type serviceConfig struct {
	Name   string      `json:"name" yaml:"name"`
	Config interface{} `json:"config" yaml:"config"`
}

type DialogServiceConfig serviceConfig

func (c *DialogServiceConfig) UnmarshalJSON(data []byte) error {
	return unmarshalJSONServiceConfig(data, (*serviceConfig)(c), security.NewDialogHandlerConfig)
}

func (c *DialogServiceConfig) UnmarshalYAML(value *yaml.Node) error {
	return unmarshalYAMLServiceConfig(value, (*serviceConfig)(c), security.NewDialogHandlerConfig)
}

type ValidatorServiceConfig serviceConfig

func (c *ValidatorServiceConfig) UnmarshalJSON(data []byte) error {
	return unmarshalJSONServiceConfig(data, (*serviceConfig)(c), security.NewValidatorConfig)
}

func (c *ValidatorServiceConfig) UnmarshalYAML(value *yaml.Node) error {
	return unmarshalYAMLServiceConfig(value, (*serviceConfig)(c), security.NewValidatorConfig)
}

type KeychainServiceConfig serviceConfig

func (c *KeychainServiceConfig) UnmarshalJSON(data []byte) error {
	return unmarshalJSONServiceConfig(data, (*serviceConfig)(c), security.NewKeychainHandlerConfig)
}

func (c *KeychainServiceConfig) UnmarshalYAML(value *yaml.Node) error {
	return unmarshalYAMLServiceConfig(value, (*serviceConfig)(c), security.NewKeychainHandlerConfig)
}

type configFactoryFunc func(name string) (interface{}, error)

func unmarshalJSONServiceConfig(data []byte, c *serviceConfig, newConfig configFactoryFunc) error {
	m := make(map[string]interface{})

	err := json.Unmarshal(data, &m)
	if err != nil {
		return err
	}

	c.Name, c.Config, err = unmarshalServiceConfig(m, c.Name, newConfig)
	return err
}

func unmarshalYAMLServiceConfig(value *yaml.Node, c *serviceConfig, newConfig configFactoryFunc) error {
	m := make(map[string]interface{})

	err := value.Decode(&m)
	if err != nil {
		return err
	}

	c.Name, c.Config, err = unmarshalServiceConfig(m, c.Name, newConfig)
	return err
}

// unmarshalServiceConfig keeps current name when m has no name key
func unmarshalServiceConfig(
	m map[string]interface{},
	current string,
	newConfig configFactoryFunc,
) (name string, config interface{}, err error) {
	name = current
	if n, ok := m["name"]; ok {
		name, ok = n.(string)
		if !ok {
			err = fmt.Errorf("service name must be a string")
			return
		}
	}

	if len(name) == 0 {
		return
	}

	config, err = newConfig(name)
	if err != nil {
		err = fmt.Errorf("unknown service %q: %w", name, err)
		return
	}

	configRaw, ok := m["config"]
	if !ok || configRaw == nil {
		return
	}

	var configData []byte
	switch d := configRaw.(type) {
	case []byte:
		configData = d
	case string:
		configData = []byte(d)
	default:
		configData, err = yaml.Marshal(d)
		if err != nil {
			err = fmt.Errorf("failed to get service config bytes: %w", err)
			return
		}
	}

	dec := yaml.NewDecoder(bytes.NewReader(configData))
	dec.KnownFields(true)
	err = dec.Decode(config)
	return
}

// resolve ensures Config is set for Name, used when the name comes from flags
func (c *serviceConfig) resolve(newConfig configFactoryFunc) error {
	if c.Config != nil {
		return nil
	}

	config, err := newConfig(c.Name)
	if err != nil {
		return fmt.Errorf("unknown service %q: %w", c.Name, err)
	}

	c.Config = config
	return nil
}
