package plugins

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource is an in-memory DescriptorSource
type fakeSource struct {
	multisite   bool
	meta        map[string]*Metadata
	active      map[string]bool
	network     map[string]bool
	networkOnly map[string]bool
	readCalls   int
}

func (f *fakeSource) ReadMetadata(ctx context.Context, file string) (*Metadata, error) {
	f.readCalls++
	meta, ok := f.meta[file]
	if !ok {
		return nil, ErrNotFound
	}
	return meta, nil
}

func (f *fakeSource) Multisite() bool { return f.multisite }

func (f *fakeSource) IsActive(ctx context.Context, file string) (bool, error) {
	return f.active[file], nil
}

func (f *fakeSource) IsActiveForNetwork(ctx context.Context, file string) (bool, error) {
	return f.network[file], nil
}

func (f *fakeSource) IsNetworkOnly(ctx context.Context, file string) (bool, error) {
	return f.networkOnly[file], nil
}

func TestNewDescriptor_FetchesMissingMetadata(t *testing.T) {
	src := &fakeSource{
		meta:   map[string]*Metadata{"a/plugin.yaml": {Name: "A"}},
		active: map[string]bool{"a/plugin.yaml": true},
	}

	d, err := NewDescriptor(context.Background(), src, "a/plugin.yaml", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, src.readCalls)
	assert.Equal(t, Descriptor{Name: "A", File: "a/plugin.yaml", Status: StatusActive}, d)
	assert.Equal(t, "deactivate", d.ToggleAction())
}

func TestNewDescriptor_UsesProvidedMetadata(t *testing.T) {
	src := &fakeSource{}

	d, err := NewDescriptor(context.Background(), src, "b.yaml", &Metadata{Name: "B"})
	require.NoError(t, err)
	assert.Equal(t, 0, src.readCalls)
	assert.False(t, d.IsActive())
	assert.Equal(t, "activate", d.ToggleAction())
}

func TestNewDescriptor_MetadataError(t *testing.T) {
	_, err := NewDescriptor(context.Background(), &fakeSource{}, "ghost.yaml", nil)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestNewDescriptor_NetworkStatus(t *testing.T) {
	src := &fakeSource{
		multisite:   true,
		network:     map[string]bool{"net.yaml": true},
		networkOnly: map[string]bool{"only.yaml": true, "net.yaml": true},
	}
	ctx := context.Background()

	net, err := NewDescriptor(ctx, src, "net.yaml", &Metadata{Name: "Net"})
	require.NoError(t, err)
	assert.Equal(t, NetworkActivated, net.NetworkStatus)

	only, err := NewDescriptor(ctx, src, "only.yaml", &Metadata{Name: "Only"})
	require.NoError(t, err)
	assert.Equal(t, NetworkOnly, only.NetworkStatus)

	plain, err := NewDescriptor(ctx, src, "plain.yaml", &Metadata{Name: "Plain"})
	require.NoError(t, err)
	assert.Equal(t, NetworkNone, plain.NetworkStatus)

	// Single-site hosts never populate network status
	src.multisite = false
	single, err := NewDescriptor(ctx, src, "net.yaml", &Metadata{Name: "Net"})
	require.NoError(t, err)
	assert.Equal(t, NetworkNone, single.NetworkStatus)
}

func TestDescriptor_IsNetworkRelated(t *testing.T) {
	networked := Descriptor{Name: "N", File: "n.yaml", NetworkStatus: NetworkActivated}
	local := Descriptor{Name: "L", File: "l.yaml"}

	tests := []struct {
		name  string
		d     Descriptor
		scope Scope
		want  bool
	}{
		{"single site", networked, Scope{}, false},
		{"multisite site admin", networked, Scope{Multisite: true}, true},
		{"multisite network admin", networked, Scope{Multisite: true, NetworkAdmin: true}, false},
		{"multisite plain plugin", local, Scope{Multisite: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.d.IsNetworkRelated(tt.scope))
		})
	}
}
