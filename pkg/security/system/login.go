package system

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"arhat.dev/credprompt/pkg/security"
)

type loginData struct {
	Username string `json:"username" yaml:"username"`
}

func sealLogin(username string) ([]byte, error) {
	data, err := json.Marshal(&loginData{Username: username})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal login: %w", err)
	}

	sealed, err := encrypt(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt login: %w", err)
	}

	return sealed, nil
}

func openLogin(data []byte) (string, error) {
	plain, err := decrypt(data)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt login data: %w", security.ErrOldInvalid)
	}

	login := &loginData{}
	err = json.Unmarshal(plain, login)
	if err != nil {
		return "", fmt.Errorf("failed to unmarshal login data: %w", security.ErrOldInvalid)
	}

	return login.Username, nil
}

// keyring values must be strings
func sealLoginString(username string) (string, error) {
	data, err := sealLogin(username)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(data), nil
}

func openLoginString(s string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("failed to decode login data: %w", security.ErrOldInvalid)
	}

	return openLogin(data)
}
