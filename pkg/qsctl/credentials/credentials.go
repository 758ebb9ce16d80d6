// Package credentials persists Qualiscan user tokens per context, preferring
// the OS keychain with a file-backed fallback.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zalando/go-keyring"
)

// keyringService is the service name tokens are filed under in the OS
// keychain; the account is the qsctl context name.
const keyringService = "qsctl"

// ErrNotFound is returned when no token is stored for a context.
var ErrNotFound = errors.New("no stored credential")

// Store persists one token per context name.
type Store interface {
	Get(contextName string) (string, error)
	Set(contextName, token string) error
	Delete(contextName string) error
}

// Open returns the store for a backend name: "keychain", "file", or
// "auto"/"" which tries the keychain and falls back to the file store when
// the keychain is unusable (headless Linux, locked session).
func Open(backend, filePath string) (Store, error) {
	switch backend {
	case "keychain":
		return Keychain{}, nil
	case "file":
		return &File{Path: filePath}, nil
	case "auto", "":
		return &fallbackStore{primary: Keychain{}, secondary: &File{Path: filePath}}, nil
	default:
		return nil, fmt.Errorf("unknown token storage backend: %s", backend)
	}
}

// Keychain stores tokens in the OS keychain.
type Keychain struct{}

func (Keychain) Get(contextName string) (string, error) {
	token, err := keyring.Get(keyringService, contextName)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("keychain read failed: %w", err)
	}
	return token, nil
}

func (Keychain) Set(contextName, token string) error {
	if err := keyring.Set(keyringService, contextName, token); err != nil {
		return fmt.Errorf("keychain write failed: %w", err)
	}
	return nil
}

func (Keychain) Delete(contextName string) error {
	err := keyring.Delete(keyringService, contextName)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("keychain delete failed: %w", err)
	}
	return nil
}

// storedCredential is one file-store entry.
type storedCredential struct {
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created-at"`
}

type credentialFile struct {
	Credentials map[string]storedCredential `json:"credentials"`
}

// File stores tokens in a 0600 JSON file.
type File struct {
	Path string
}

func (f *File) Get(contextName string) (string, error) {
	entries, err := f.load()
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", err
	}
	entry, ok := entries.Credentials[contextName]
	if !ok {
		return "", ErrNotFound
	}
	return entry.Token, nil
}

func (f *File) Set(contextName, token string) error {
	entries, err := f.load()
	if err != nil {
		entries = &credentialFile{Credentials: map[string]storedCredential{}}
	}
	entries.Credentials[contextName] = storedCredential{Token: token, CreatedAt: time.Now().UTC()}
	return f.save(entries)
}

func (f *File) Delete(contextName string) error {
	entries, err := f.load()
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	if _, ok := entries.Credentials[contextName]; !ok {
		return ErrNotFound
	}
	delete(entries.Credentials, contextName)
	return f.save(entries)
}

func (f *File) load() (*credentialFile, error) {
	content, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	var entries credentialFile
	if err := json.Unmarshal(content, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse credential file: %w", err)
	}
	if entries.Credentials == nil {
		entries.Credentials = map[string]storedCredential{}
	}
	return &entries, nil
}

func (f *File) save(entries *credentialFile) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("failed to create credential dir: %w", err)
	}
	content, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	return os.WriteFile(f.Path, content, 0o600)
}

// fallbackStore prefers the keychain and degrades to the file store when the
// keychain errors for any reason other than a missing entry.
type fallbackStore struct {
	primary   Store
	secondary Store
}

func (s *fallbackStore) Get(contextName string) (string, error) {
	token, err := s.primary.Get(contextName)
	if err == nil {
		return token, nil
	}
	if errors.Is(err, ErrNotFound) {
		return s.secondary.Get(contextName)
	}
	return s.secondary.Get(contextName)
}

func (s *fallbackStore) Set(contextName, token string) error {
	if err := s.primary.Set(contextName, token); err == nil {
		return nil
	}
	return s.secondary.Set(contextName, token)
}

func (s *fallbackStore) Delete(contextName string) error {
	primaryErr := s.primary.Delete(contextName)
	secondaryErr := s.secondary.Delete(contextName)
	if primaryErr == nil || secondaryErr == nil {
		return nil
	}
	return primaryErr
}
