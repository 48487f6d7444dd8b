package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

type PathCWD struct {
	Path string `json:"path" mapstructure:"path"`
}

func CWDFromPath(path string) (*PathCWD, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		return &PathCWD{Path: cwd}, nil
	}

	absPath := path
	if !filepath.IsAbs(path) {
		var err error
		absPath, err = filepath.Abs(path)
		if err != nil {
			return nil, err
		}
	}

	fileInfo, err := os.Stat(absPath)
	if err == nil && !fileInfo.IsDir() {
		absPath = filepath.Dir(absPath)
	}

	return &PathCWD{Path: absPath}, nil
}

func (c *PathCWD) Set(path string) error {
	if path == "" {
		return errors.New("path is required")
	}
	if c == nil {
		return errors.New("CWD is nil")
	}
	normalized, err := CWDFromPath(path)
	if err != nil {
		return fmt.Errorf("failed to normalize path: %w", err)
	}
	c.Path = normalized.Path
	return nil
}

func (c *PathCWD) PathStr() string {
	if c == nil {
		return ""
	}
	return c.Path
}

// Join resolves path against the working directory without requiring the
// target to exist.
func (c *PathCWD) Join(path string) string {
	if c == nil || c.Path == "" {
		return path
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Path, path)
}

func (c *PathCWD) Validate() error {
	if c.Path == "" {
		return errors.New("current working directory not set")
	}
	return nil
}
