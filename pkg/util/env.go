package util

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/small-frappuccino/nicknamebot/pkg/errutil"
)

// DefaultEnvFile is loaded from the working directory when present.
const DefaultEnvFile = ".env"

// LocalBinEnvFile returns $HOME/.local/bin/.env, or "" when the home
// directory cannot be resolved.
func LocalBinEnvFile() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".local", "bin", ".env")
}

// LoadEnvFiles populates missing environment variables from .env files
// without overwriting variables that are already set.
//
// Behavior:
//   - When explicit is non-empty, that file must exist and is the only one loaded.
//   - Otherwise ./.env is loaded if it exists, then $HOME/.local/bin/.env
//     fills anything still missing.
//
// It returns the files that were actually loaded.
func LoadEnvFiles(explicit string) ([]string, error) {
	if explicit != "" {
		if err := loadEnvFile(explicit); err != nil {
			return nil, err
		}
		return []string{explicit}, nil
	}

	var loaded []string
	for _, path := range []string{DefaultEnvFile, LocalBinEnvFile()} {
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
			continue
		}
		if err != nil {
			return loaded, fmt.Errorf("stat env file %s: %w", path, err)
		}
		if err := loadEnvFile(path); err != nil {
			return loaded, err
		}
		loaded = append(loaded, path)
	}
	return loaded, nil
}

// loadEnvFile does not override variables that are already set.
func loadEnvFile(path string) error {
	return errutil.HandleConfigError("load env file", path, func() error {
		return godotenv.Load(path)
	})
}
