package plugins

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetadata(t *testing.T) {
	data := []byte(`
name: Hello Dolly
version: 1.7.2
author: Matt
network: true
admin_pages: [hello-settings]
`)
	meta, err := ParseMetadata(data)
	require.NoError(t, err)
	assert.Equal(t, "Hello Dolly", meta.Name)
	assert.Equal(t, "1.7.2", meta.Version)
	assert.True(t, meta.Network)
	assert.Equal(t, []string{"hello-settings"}, meta.AdminPages)
}

func TestParseMetadata_Invalid(t *testing.T) {
	_, err := ParseMetadata([]byte("name: [unterminated"))
	assert.Error(t, err)
}

func TestSaveAndLoadMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), ManifestFile)
	meta := &Metadata{Name: "Akismet", Version: "5.3", TextDomain: "akismet"}

	require.NoError(t, SaveMetadata(meta, path))
	loaded, err := LoadMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, meta, loaded)
}

func TestLoadMetadata_Missing(t *testing.T) {
	_, err := LoadMetadata(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateMetadata(t *testing.T) {
	tests := []struct {
		name   string
		meta   Metadata
		fields []string
	}{
		{"valid", Metadata{Name: "A", Version: "1.0.0"}, nil},
		{"two part version", Metadata{Name: "A", Version: "5.3"}, nil},
		{"missing name", Metadata{}, []string{"name"}},
		{"bad version", Metadata{Name: "A", Version: "latest"}, []string{"version"}},
		{"bad slug", Metadata{Name: "A", AdminPages: []string{"Bad Slug"}}, []string{"admin_pages"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateMetadata(&tt.meta)
			var fields []string
			for _, e := range errs {
				fields = append(fields, e.Field)
			}
			assert.Equal(t, tt.fields, fields)
		})
	}
}
