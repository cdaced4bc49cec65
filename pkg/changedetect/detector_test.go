package changedetect

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/platinummonkey/pluginlinks/pkg/storage"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func newTestDetector(t require.TestingT) (*Detector, storage.Store) {
	store, err := storage.NewMemoryStore(64)
	require.NoError(t, err)
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(store, "pluginlinks", log), store
}

func TestHasChanged_FirstCallThenStable(t *testing.T) {
	d, store := newTestDetector(t)
	ctx := context.Background()
	listing := []string{".", "..", "akismet", "hello.yaml"}

	changed, err := d.HasChanged(ctx, "plugins", listing)
	require.NoError(t, err)
	assert.True(t, changed, "missing record counts as changed")

	changed, err = d.HasChanged(ctx, "plugins", listing)
	require.NoError(t, err)
	assert.False(t, changed)

	recorded, err := store.Get(ctx, "pluginlinks_hash-plugins")
	require.NoError(t, err)
	want, _ := Hash(listing)
	assert.Equal(t, want, string(recorded))
}

func TestHasChanged_DetectsDifference(t *testing.T) {
	d, _ := newTestDetector(t)
	ctx := context.Background()

	_, err := d.HasChanged(ctx, "active_plugins", []string{"a"})
	require.NoError(t, err)

	changed, err := d.HasChanged(ctx, "active_plugins", []string{"a", "b"})
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = d.HasChanged(ctx, "active_plugins", []string{"a", "b"})
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestOptionName_SanitizesKey(t *testing.T) {
	d, _ := newTestDetector(t)
	assert.Equal(t, "pluginlinks_hash-active_plugins", d.OptionName("Active_Plugins!"))
}

func TestHash_IsFixedSizeAndDeterministic(t *testing.T) {
	a, err := Hash(map[string]int{"b": 2, "a": 1})
	require.NoError(t, err)
	b, err := Hash(map[string]int{"a": 1, "b": 2})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 32)
}

func TestHash_Unserialisable(t *testing.T) {
	_, err := Hash(make(chan int))
	assert.Error(t, err)
}

// failingStore fails every read
type failingStore struct{ storage.Store }

func (failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errors.New("boom")
}

func TestHasChanged_PropagatesReadErrors(t *testing.T) {
	d := New(failingStore{}, "pluginlinks", nil)
	_, err := d.HasChanged(context.Background(), "plugins", []string{})
	assert.Error(t, err)
}

// A second identical call is false; any call whose input differs from the
// last recorded input for its key is true, regardless of interleaved calls on
// other keys.
func TestHasChanged_PropertyKeyIsolation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d, _ := newTestDetector(t)
		ctx := context.Background()
		last := map[string][]string{}
		keys := []string{"plugins", "active_plugins", "themes"}

		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			key := rapid.SampledFrom(keys).Draw(t, "key")
			data := rapid.SliceOfN(rapid.SampledFrom([]string{"a", "b", "c"}), 0, 3).Draw(t, "data")
			if data == nil {
				data = []string{}
			}

			prev, seen := last[key]
			want := !seen || !equalSlices(prev, data)

			got, err := d.HasChanged(ctx, key, data)
			if err != nil {
				t.Fatalf("HasChanged: %v", err)
			}
			if got != want {
				t.Fatalf("key %s data %v prev %v: got %v want %v", key, data, prev, got, want)
			}

			again, _ := d.HasChanged(ctx, key, data)
			if again {
				t.Fatalf("repeated call for %s reported a change", key)
			}
			last[key] = data
		}
	})
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestHasChanged_SurvivesStoreRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := storage.NewFileSystemStorage(dir)
	require.NoError(t, err)
	changed, err := New(first, "pluginlinks", nil).HasChanged(ctx, "plugins", []string{"x"})
	require.NoError(t, err)
	assert.True(t, changed)

	second, err := storage.NewFileSystemStorage(dir)
	require.NoError(t, err)
	second.WithClock(func() time.Time { return time.Now().Add(365 * 24 * time.Hour) })
	changed, err = New(second, "pluginlinks", nil).HasChanged(ctx, "plugins", []string{"x"})
	require.NoError(t, err)
	assert.False(t, changed, "hash records never expire")
}
