// Package system contains handlers backed by the operating system: the
// native credential dialog on windows and the keychain/keyring used to
// remember accepted usernames.
package system

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/denisbrodbeck/machineid"
	"golang.org/x/crypto/argon2"
)

// encryptionKey is a base64 encoded key seed, the AES-256-GCM key used
// to encrypt login data stored in system keychain is derived from it with
// argon2id and the machine id as salt when available, so the stored data
// is only readable on the same host
//
// can be overriden using ldflag
// "-X arhat.dev/credprompt/pkg/security/system.encryptionKey=<NEW ENCRYPTION KEY>"
var (
	encryptionKey = base64.StdEncoding.EncodeToString([]byte("arhat.dev"))
)

const appID = "credprompt"

var (
	encrypt func(d []byte) ([]byte, error)
	decrypt func(d []byte) ([]byte, error)
)

func init() {
	encKey, err := base64.StdEncoding.DecodeString(encryptionKey)
	if err != nil {
		panic(err)
	}

	salt := []byte(appID)
	if id, err2 := machineid.ProtectedID(appID); err2 == nil {
		salt = append(salt, id...)
	}

	encrypt, decrypt, err = newSealer(encKey, salt)
	if err != nil {
		panic(err)
	}
}

// newSealer returns AES-256-GCM seal and open funcs, sealed data is
// prefixed with a random nonce
func newSealer(key, salt []byte) (
	seal func(d []byte) ([]byte, error),
	open func(d []byte) ([]byte, error),
	err error,
) {
	c, err := aes.NewCipher(argon2.IDKey(key, salt, 1, 64*1024, 4, 32))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesgcm, err := cipher.NewGCM(c)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create gcm: %w", err)
	}

	nonceSize := aesgcm.NonceSize()

	seal = func(d []byte) ([]byte, error) {
		nonce := make([]byte, nonceSize, nonceSize+len(d)+aesgcm.Overhead())
		_, err := io.ReadFull(rand.Reader, nonce)
		if err != nil {
			return nil, fmt.Errorf("failed to generate nonce: %w", err)
		}

		return aesgcm.Seal(nonce, nonce, d, nil), nil
	}

	open = func(d []byte) ([]byte, error) {
		if len(d) < nonceSize {
			return nil, fmt.Errorf("sealed data too short")
		}

		return aesgcm.Open(nil, d[:nonceSize], d[nonceSize:], nil)
	}

	return seal, open, nil
}
