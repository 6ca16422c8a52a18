package localcache

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	envHome    = "INFLUENTER_CACHE_DIR" // override for tests
	dirName    = ".influenter"          // default under $HOME
	dbFilename = "cache.db"
)

// DataDir returns the directory where the local cache lives (~/.influenter).
// It creates the directory with 0700 permissions if it does not exist.
func DataDir() (string, error) {
	if custom := os.Getenv(envHome); custom != "" {
		if err := os.MkdirAll(custom, 0o700); err != nil {
			return "", err
		}
		return custom, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user home: %w", err)
	}
	dir := filepath.Join(home, dirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// DBPath returns the absolute path of the cache database inside dir, or
// inside DataDir when dir is empty.
func DBPath(dir string) (string, error) {
	if dir == "" {
		var err error
		if dir, err = DataDir(); err != nil {
			return "", err
		}
	} else if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, dbFilename), nil
}
