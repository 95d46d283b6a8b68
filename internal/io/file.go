package ioutils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	invalidChars   = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingDots   = regexp.MustCompile(`\.+$`)
	repeatedSpaces = regexp.MustCompile(`\s+`)
)

// SaveFile writes data to dir/name atomically and returns the final path.
//
// The data is written to a temp file in dir, synced and renamed over the
// destination, so a reader never observes a partially written file. On any
// failure the temp file is removed. dir is created if it does not exist.
//
// Example:
//
//	path, err := SaveFile(ctx, "/home/me/Downloads", "data.xlsx", body)
//	// path = "/home/me/Downloads/data.xlsx"
func SaveFile(ctx context.Context, dir, name string, data []byte) (path string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name = SanitizeFileName(name)
	if name == "" {
		return "", errors.New("empty file name")
	}

	if err := EnsureDir(dir); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}

	file, err := os.CreateTemp(dir, ".data-displayer-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}

	defer func() {
		if err != nil {
			file.Close()
			os.Remove(file.Name())
		}
	}()

	if _, err = file.Write(data); err != nil {
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err = file.Sync(); err != nil {
		return "", fmt.Errorf("syncing temp file: %w", err)
	}
	if err = file.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	if err = os.Chmod(file.Name(), 0644); err != nil {
		return "", fmt.Errorf("chmod temp file: %w", err)
	}

	path = filepath.Join(dir, name)
	if err = os.Rename(file.Name(), path); err != nil {
		return "", fmt.Errorf("renaming temp file: %w", err)
	}

	return path, nil
}

// SanitizeFileName removes or replaces characters that are invalid in file/folder names.
//
// The following transformations are applied:
//   - Invalid characters (<>:"/\|?* and control chars 0x00-0x1f) → underscore
//   - Trailing dots → removed (Windows limitation)
//   - Multiple whitespace → single space
//   - Trailing whitespace → removed
//
// Example:
//
//	SanitizeFileName("data: 2024/05.json") // Returns "data_ 2024_05.json"
func SanitizeFileName(name string) string {
	name = invalidChars.ReplaceAllString(name, "_")
	name = trailingDots.ReplaceAllString(name, "")
	name = repeatedSpaces.ReplaceAllString(name, " ")
	return strings.TrimRight(name, " ")
}

// EnsureDir creates a directory and all parent directories if they don't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
