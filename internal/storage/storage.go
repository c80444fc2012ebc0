package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultFilename is the calendar file written when no output path is configured
const DefaultFilename = "cska.ics"

// Storage writes the calendar file
type Storage struct {
	path string
}

// New creates a Storage for the given file path
func New(path string) (*Storage, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultFilename
	}

	// Expand ~ to home directory
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	return &Storage{
		path: path,
	}, nil
}

// Path returns the resolved output path
func (s *Storage) Path() string {
	return s.path
}

// Save overwrites the calendar file with text
func (s *Storage) Save(text string) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	if err := os.WriteFile(s.path, []byte(text), 0644); err != nil {
		return fmt.Errorf("writing calendar: %w", err)
	}

	return nil
}
