package validation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrInvalidPath = errors.New("invalid path")

const DefaultMaxPathLength = 4096

// FilePathValidator cleans paths given on the command line for world
// exports and imports.
type FilePathValidator struct {
	// AllowedBaseDirs restricts paths to these trees. Empty allows any
	// location.
	AllowedBaseDirs []string
	MaxPathLength   int
}

func NewFilePathValidator(baseDirs ...string) *FilePathValidator {
	return &FilePathValidator{AllowedBaseDirs: baseDirs, MaxPathLength: DefaultMaxPathLength}
}

// Clean expands a leading "~/", makes path absolute and checks it against
// the allowed base directories.
func (v *FilePathValidator) Clean(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	if v.MaxPathLength > 0 && len(path) > v.MaxPathLength {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidPath, v.MaxPathLength)
	}
	for _, r := range path {
		if r < 32 {
			return "", fmt.Errorf("%w: contains control characters", ErrInvalidPath)
		}
	}

	expanded, err := ExpandHome(path)
	if err != nil {
		return "", err
	}
	for _, part := range strings.Split(filepath.ToSlash(expanded), "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: %q traverses upwards", ErrInvalidPath, path)
		}
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", path, err)
	}
	if !v.withinBase(abs) {
		return "", fmt.Errorf("%w: %s is outside %v", ErrInvalidPath, abs, v.AllowedBaseDirs)
	}
	return abs, nil
}

// ValidateFile is Clean plus a check that an existing path is not a
// directory.
func (v *FilePathValidator) ValidateFile(path string) (string, error) {
	clean, err := v.Clean(path)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(clean); err == nil && info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrInvalidPath, clean)
	}
	return clean, nil
}

// EnsureDir validates path and creates it with its parents.
func (v *FilePathValidator) EnsureDir(path string) (string, error) {
	clean, err := v.Clean(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(clean, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", clean, err)
	}
	return clean, nil
}

func (v *FilePathValidator) withinBase(abs string) bool {
	if len(v.AllowedBaseDirs) == 0 {
		return true
	}
	for _, base := range v.AllowedBaseDirs {
		baseAbs, err := filepath.Abs(base)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(baseAbs, abs)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	if strings.HasPrefix(path, "~") {
		return "", fmt.Errorf("%w: unsupported home reference in %q", ErrInvalidPath, path)
	}
	return path, nil
}
