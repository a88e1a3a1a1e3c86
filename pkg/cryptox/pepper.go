package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const pepperLength = 32

var (
	pepperMu sync.RWMutex
	pepper   string
)

// LoadPepper reads the server-wide password pepper from path. The first start
// creates the file with a random value; later starts must find the same
// value, or every stored password hash stops verifying. It must run before
// any password is hashed or verified.
func LoadPepper(path string) error {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("cryptox: pepper dir: %w", err)
	}

	value, err := readPepper(path)
	if errors.Is(err, fs.ErrNotExist) {
		value, err = createPepper(path)
	}
	if err != nil {
		return err
	}

	pepperMu.Lock()
	pepper = value
	pepperMu.Unlock()
	return nil
}

func readPepper(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	value := strings.TrimSpace(string(b))
	if value == "" {
		return "", fmt.Errorf("cryptox: pepper file %s is empty", path)
	}
	return value, nil
}

// createPepper writes a fresh pepper. O_EXCL makes a concurrent first start
// fall back to the file the other process wrote.
func createPepper(path string) (string, error) {
	buf := make([]byte, pepperLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: read pepper entropy: %w", err)
	}
	value := base64.RawURLEncoding.EncodeToString(buf)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return readPepper(path)
	}
	if err != nil {
		return "", fmt.Errorf("cryptox: create pepper: %w", err)
	}
	if _, err := f.WriteString(value); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("cryptox: write pepper: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("cryptox: write pepper: %w", err)
	}
	return value, nil
}

// GetPepper returns the loaded pepper. Hashing without one would silently
// produce unpeppered hashes, so a missing LoadPepper is a programming error.
func GetPepper() string {
	pepperMu.RLock()
	defer pepperMu.RUnlock()
	if pepper == "" {
		panic("cryptox: LoadPepper has not been called")
	}
	return pepper
}
