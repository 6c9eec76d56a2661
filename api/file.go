// Package api holds the versioned document types and the file helpers
// shared by them.
package api

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/macropower/condfmt/pkg/yaml"
)

// ReadFile reads a regular file from disk.
func ReadFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: path is a directory", path)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: unknown file state", path)
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: Potential file inclusion via variable.
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// MarshalYAML serializes a document to YAML bytes.
func MarshalYAML(obj any) ([]byte, error) {
	return yaml.Marshal(obj) //nolint:wrapcheck // Already wrapped.
}

// FindConfigFile searches for one of fileNames starting from targetPath
// and walking up the directory tree until the filesystem root.
// It returns an empty string when nothing is found.
func FindConfigFile(targetPath string, fileNames []string) (string, error) {
	absPath, err := filepath.Abs(targetPath)
	if err != nil {
		return "", fmt.Errorf("get absolute path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("stat path: %w", err)
	}

	searchDir := absPath
	if !info.IsDir() {
		searchDir = filepath.Dir(absPath)
	}

	for {
		for _, fileName := range fileNames {
			p := filepath.Join(searchDir, fileName)

			_, statErr := os.Stat(p)
			if statErr == nil {
				return p, nil
			}
		}

		parent := filepath.Dir(searchDir)
		if parent == searchDir {
			return "", nil
		}

		searchDir = parent
	}
}

// WriteDefaultFile writes defaultData to path unless a file already exists
// there. Using force backs up and replaces an existing file.
func WriteDefaultFile(path string, defaultData []byte, force bool, kind string) error {
	fileExists := false

	info, err := os.Stat(path)
	if info != nil {
		switch {
		case err == nil && info.Mode().IsRegular():
			fileExists = true
		case info.IsDir():
			return fmt.Errorf("%s: path is a directory", path)
		default:
			return fmt.Errorf("%s: unknown file state", path)
		}
	}

	err = os.MkdirAll(filepath.Dir(path), 0o700)
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	if fileExists && !force {
		slog.Debug("file already exists, skipping write",
			slog.String("type", kind),
			slog.String("path", path),
		)

		return nil
	}

	if fileExists {
		backupPath := filepath.Join(filepath.Dir(path),
			fmt.Sprintf("%s.%d.old", filepath.Base(path), time.Now().UnixNano()))

		slog.Info("backing up existing file",
			slog.String("type", kind),
			slog.String("path", backupPath),
		)

		err = os.Rename(path, backupPath)
		if err != nil {
			return fmt.Errorf("rename existing %s file to backup: %w", kind, err)
		}
	}

	slog.Info("write default file",
		slog.String("type", kind),
		slog.String("path", path),
	)

	err = os.WriteFile(path, defaultData, 0o600)
	if err != nil {
		return fmt.Errorf("write %s file: %w", kind, err)
	}

	return nil
}
