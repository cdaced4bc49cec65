package plugins

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

var (
	semverRegex = regexp.MustCompile(`^v?(\d+)\.(\d+)(\.(\d+))?(-[a-zA-Z0-9.-]+)?(\+[a-zA-Z0-9.-]+)?$`)
	slugRegex   = regexp.MustCompile(`^[a-z0-9_-]+$`)
)

// LoadMetadata loads and parses a plugin header from a manifest file
func LoadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return ParseMetadata(data)
}

// ParseMetadata parses a YAML plugin header
func ParseMetadata(data []byte) (*Metadata, error) {
	var meta Metadata
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &meta, nil
}

// SaveMetadata writes a plugin header to a manifest file
func SaveMetadata(meta *Metadata, path string) error {
	data, err := yaml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}

// ValidateMetadata performs basic validation on a plugin header
func ValidateMetadata(meta *Metadata) []ValidationError {
	var errors []ValidationError

	if meta.Name == "" {
		errors = append(errors, ValidationError{
			Field:   "name",
			Message: "Plugin name is required",
		})
	}

	if meta.Version != "" && !semverRegex.MatchString(meta.Version) {
		errors = append(errors, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("Invalid version format: %s", meta.Version),
		})
	}

	for _, page := range meta.AdminPages {
		if !slugRegex.MatchString(page) {
			errors = append(errors, ValidationError{
				Field:   "admin_pages",
				Message: fmt.Sprintf("Invalid admin page slug: %q", page),
			})
		}
	}

	return errors
}
