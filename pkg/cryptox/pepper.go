package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const pepperLen = 32

// LoadOrCreatePepper reads a base64-encoded pepper from path. When the file
// does not exist a fresh pepper is generated and written with 0600
// permissions, so a first boot on an empty volume just works.
func LoadOrCreatePepper(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		pepper, decErr := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
		if decErr != nil || len(pepper) == 0 {
			return nil, fmt.Errorf("pepper file %s is not valid base64", path)
		}
		return pepper, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read pepper file: %w", err)
	}

	pepper := make([]byte, pepperLen)
	if _, err := rand.Read(pepper); err != nil {
		return nil, fmt.Errorf("generate pepper: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create pepper dir: %w", err)
		}
	}
	encoded := base64.StdEncoding.EncodeToString(pepper) + "\n"
	if err := os.WriteFile(path, []byte(encoded), 0o600); err != nil {
		return nil, fmt.Errorf("write pepper file: %w", err)
	}
	return pepper, nil
}
