// Package credentials stores the Jira connection settings encrypted at
// rest, unlockable with a password at process start.
package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"
)

const (
	credentialsFile = "jira_credentials.enc"
	saltFile        = "jira_salt.key"
	saltSize        = 32
	keySize         = 32
)

// argon2id parameters for key derivation
const (
	argonTime    = 2
	argonMemory  = 19 * 1024
	argonThreads = 1
)

type Credentials struct {
	BaseURL  string `json:"base_url"`
	Email    string `json:"email"`
	APIToken string `json:"api_token"`
}

type encryptedFile struct {
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

// Vault reads and writes the encrypted credential file in a data
// directory.
type Vault struct {
	dir string
}

// NewVault uses dir when given, otherwise a per-user config location.
func NewVault(dir string) (*Vault, error) {
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("determine data directory: %w", err)
		}
		dir = filepath.Join(base, "scrumdeck")
	}
	return &Vault{dir: dir}, nil
}

// Has reports whether encrypted credentials exist on disk.
func (v *Vault) Has() bool {
	_, err := os.Stat(filepath.Join(v.dir, credentialsFile))
	return err == nil
}

// Save encrypts and writes the credentials under a key derived from the
// password and a persisted random salt.
func (v *Vault) Save(password string, creds Credentials) error {
	if err := os.MkdirAll(v.dir, 0o700); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	salt, err := v.loadOrCreateSalt()
	if err != nil {
		return err
	}
	key := deriveKey(password, salt)

	plain, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("serialize credentials: %w", err)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	ciphertext := gcm.Seal(nil, nonce, plain, nil)

	data, err := json.MarshalIndent(encryptedFile{
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize encrypted file: %w", err)
	}

	if err := os.WriteFile(filepath.Join(v.dir, credentialsFile), data, 0o600); err != nil {
		return fmt.Errorf("write credentials file: %w", err)
	}
	return nil
}

// Load decrypts the stored credentials. A wrong password surfaces as a
// descriptive error, not a panic or a garbage result.
func (v *Vault) Load(password string) (Credentials, error) {
	path := filepath.Join(v.dir, credentialsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Credentials{}, fmt.Errorf("no stored credentials")
		}
		return Credentials{}, fmt.Errorf("read credentials file: %w", err)
	}

	var file encryptedFile
	if err := json.Unmarshal(data, &file); err != nil {
		return Credentials{}, fmt.Errorf("parse credentials file: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(file.Nonce)
	if err != nil {
		return Credentials{}, fmt.Errorf("decode nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(file.Ciphertext)
	if err != nil {
		return Credentials{}, fmt.Errorf("decode ciphertext: %w", err)
	}

	salt, err := v.loadOrCreateSalt()
	if err != nil {
		return Credentials{}, err
	}
	key := deriveKey(password, salt)

	gcm, err := newGCM(key)
	if err != nil {
		return Credentials{}, err
	}
	if len(nonce) != gcm.NonceSize() {
		return Credentials{}, fmt.Errorf("corrupted credentials file")
	}
	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return Credentials{}, fmt.Errorf("invalid password or corrupted credentials")
	}

	var creds Credentials
	if err := json.Unmarshal(plain, &creds); err != nil {
		return Credentials{}, fmt.Errorf("parse decrypted credentials: %w", err)
	}
	return creds, nil
}

// Delete removes the credential file, keeping the salt.
func (v *Vault) Delete() error {
	err := os.Remove(filepath.Join(v.dir, credentialsFile))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete credentials: %w", err)
	}
	return nil
}

func (v *Vault) loadOrCreateSalt() ([]byte, error) {
	path := filepath.Join(v.dir, saltFile)
	if salt, err := os.ReadFile(path); err == nil {
		return salt, nil
	}

	if err := os.MkdirAll(v.dir, 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	if err := os.WriteFile(path, salt, 0o600); err != nil {
		return nil, fmt.Errorf("write salt: %w", err)
	}
	return salt, nil
}

func deriveKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, keySize)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}
