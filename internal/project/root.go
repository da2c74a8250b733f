package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FindManifest walks up from startDir to locate reqtrace.toml.
func FindManifest(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}

	for prev := ""; dir != prev; prev, dir = dir, filepath.Dir(dir) {
		candidate := filepath.Join(dir, ManifestName)
		_, err := os.Stat(candidate)
		switch {
		case err == nil:
			return candidate, true, nil
		case !errors.Is(err, os.ErrNotExist):
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
	}
	return "", false, nil
}

// Discover walks up from startDir and loads the manifest it finds. Without
// one it returns Default() rooted at startDir together with ErrNoProject,
// so callers can fall back to defaults with errors.Is.
func Discover(startDir string) (*Manifest, string, error) {
	manifestPath, ok, err := FindManifest(startDir)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		abs, absErr := filepath.Abs(startDir)
		if absErr != nil {
			return nil, "", fmt.Errorf("failed to resolve start directory: %w", absErr)
		}
		return Default(), abs, ErrNoProject
	}
	m, err := Load(manifestPath)
	if err != nil {
		return nil, "", err
	}
	return m, filepath.Dir(manifestPath), nil
}
