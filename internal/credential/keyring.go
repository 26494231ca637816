// Package credential keeps API keys in the OS keyring, for machines where
// they should not sit in a config file or the environment.
package credential

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/99designs/keyring"
)

const serviceName = "duetask"

// backendEnv pins the keyring backend (e.g. "file" on a headless server
// without a desktop secret service).
const backendEnv = "DUETASK_KEYRING_BACKEND"

// Well-known keys.
const (
	KeyOneSignalAPIKey    = "onesignal-api-key"
	KeySupabaseServiceKey = "supabase-service-key"
)

// ErrNotFound is returned when no entry exists for a key.
var ErrNotFound = errors.New("credential not found")

// names maps the short names used on the command line to keyring keys.
var names = map[string]string{
	"onesignal": KeyOneSignalAPIKey,
	"supabase":  KeySupabaseServiceKey,
}

// Names returns the short credential names, sorted.
func Names() []string {
	out := make([]string, 0, len(names))
	for name := range names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Lookup resolves a short name such as "onesignal" to its keyring key.
func Lookup(name string) (string, error) {
	key, ok := names[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("unknown credential %q (want %s)", name, strings.Join(Names(), " or "))
	}
	return key, nil
}

// Store reads and writes credentials. The keyring is opened on each call,
// so building a Store never prompts or touches the OS secret service.
type Store struct {
	open func() (keyring.Keyring, error)
}

// NewSystemStore returns a Store backed by the OS keyring.
func NewSystemStore() *Store {
	return &Store{open: openSystemKeyring}
}

// NewStore returns a Store over an already opened keyring.
func NewStore(ring keyring.Keyring) *Store {
	return &Store{open: func() (keyring.Keyring, error) { return ring, nil }}
}

func openSystemKeyring() (keyring.Keyring, error) {
	backends := []keyring.BackendType{
		keyring.KeychainBackend,
		keyring.SecretServiceBackend,
		keyring.WinCredBackend,
		keyring.PassBackend,
		keyring.FileBackend,
	}
	if pinned := strings.TrimSpace(os.Getenv(backendEnv)); pinned != "" {
		backends = []keyring.BackendType{keyring.BackendType(pinned)}
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName:              serviceName,
		AllowedBackends:          backends,
		FileDir:                  "~/.config/duetask/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("duetask-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get returns the value stored for key, or ErrNotFound.
func (s *Store) Get(key string) (string, error) {
	ring, err := s.open()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	switch {
	case errors.Is(err, keyring.ErrKeyNotFound):
		return "", fmt.Errorf("%w: %q", ErrNotFound, key)
	case err != nil:
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set stores value under key, replacing any previous value. Empty values
// are refused so that a blank paste cannot wipe a working key.
func (s *Store) Set(key, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("credential %q: empty value", key)
	}
	ring, err := s.open()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:         key,
		Data:        []byte(value),
		Label:       serviceName + " " + key,
		Description: "API key used by the duetask reminder service",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Delete removes the entry for key. A missing entry is ErrNotFound.
func (s *Store) Delete(key string) error {
	ring, err := s.open()
	if err != nil {
		return err
	}

	switch err := ring.Remove(key); {
	case errors.Is(err, keyring.ErrKeyNotFound):
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	case err != nil:
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}

// Fill sets *dst from the entry for key when *dst is empty. The keyring is
// not opened when *dst is already set.
func (s *Store) Fill(dst *string, key string) error {
	if *dst != "" {
		return nil
	}
	value, err := s.Get(key)
	if err != nil {
		return err
	}
	*dst = value
	return nil
}
