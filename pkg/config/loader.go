package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Common errors for configuration loading.
var (
	ErrFileNotFound     = errors.New("configuration file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidJSON      = errors.New("invalid JSON syntax")
	ErrInvalidYAML      = errors.New("invalid YAML syntax")
	ErrInvalidTOML      = errors.New("invalid TOML syntax")
	ErrEmptyFile        = errors.New("configuration file is empty")
)

// Format is a configuration file syntax.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the format from the file extension. Unknown
// extensions are treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

// LoadFromFile reads and validates a configuration file.
func LoadFromFile(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	f, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse expands environment references in data, decodes it and validates
// the result.
func Parse(data []byte, format Format) (*File, error) {
	expanded := []byte(ExpandEnvVars(string(data)))

	var f File
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(expanded, &f); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
		}
	case FormatTOML:
		if _, err := toml.Decode(string(expanded), &f); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTOML, err)
		}
	default:
		if !json.Valid(expanded) {
			return nil, ErrInvalidJSON
		}
		if err := json.Unmarshal(expanded, &f); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	}

	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return &f, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnvVars expands ${VAR_NAME} and ${VAR_NAME:-default} references.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		submatch := envVarPattern.FindStringSubmatch(match)
		if val := os.Getenv(submatch[1]); val != "" {
			return val
		}
		return submatch[2]
	})
}
