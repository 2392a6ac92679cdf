package provider

import (
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Environment variables holding provider API keys.
const (
	GoogleKeyEnv = "GOOGLE_PLACES_API_KEY"
	YelpKeyEnv   = "YELP_API_KEY"
)

// KeyFunc returns an API key or an error wrapping ErrMissingCredential.
type KeyFunc func() (string, error)

// Keys resolves API keys from the process environment first and then from
// a dotenv-format keys file. The file is read at most once.
type Keys struct {
	path string

	once sync.Once
	file map[string]string
}

// NewKeys creates a resolver backed by the dotenv file at path. An empty
// path disables the file fallback.
func NewKeys(path string) *Keys {
	return &Keys{path: path}
}

// Lookup returns the value for name.
func (k *Keys) Lookup(name string) (string, error) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v, nil
	}

	k.once.Do(k.load)
	if v := strings.TrimSpace(k.file[name]); v != "" {
		return v, nil
	}
	return "", eris.Wrapf(ErrMissingCredential, "%s not set in environment or %s", name, k.path)
}

// For returns a KeyFunc bound to name.
func (k *Keys) For(name string) KeyFunc {
	return func() (string, error) { return k.Lookup(name) }
}

func (k *Keys) load() {
	if k.path == "" {
		return
	}
	vals, err := godotenv.Read(k.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			zap.L().Warn("provider: read keys file", zap.String("path", k.path), zap.Error(err))
		}
		return
	}
	k.file = vals
}

// StaticKey returns a KeyFunc that always yields key, or ErrMissingCredential
// when key is empty.
func StaticKey(key string) KeyFunc {
	return func() (string, error) {
		if key == "" {
			return "", eris.Wrap(ErrMissingCredential, "empty key")
		}
		return key, nil
	}
}
