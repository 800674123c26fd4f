//go:build (linux || darwin) && cgo

package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/modloader/pkg/image"
)

func TestPluginLinker_Materialize(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	l := NewPluginLinker(dir, nil)
	img := &image.Image{Name: "M", BuildID: uuid.New(), Code: []byte("payload")}

	path, err := l.materialize(img)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, img.BuildID.String()+".so"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, img.Code, data)

	info, err := os.Stat(path)
	require.NoError(t, err)

	again, err := l.materialize(img)
	require.NoError(t, err)
	assert.Equal(t, path, again)
	info2, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), info2.ModTime())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "staging files are cleaned up")
}

func TestPluginLinker_InvalidPayload(t *testing.T) {
	l := NewPluginLinker(t.TempDir(), nil)
	img := &image.Image{Name: "M", BuildID: uuid.New(), Code: []byte("not a shared object")}

	_, err := l.Link(img, "m.xmod")
	assert.Error(t, err)
}
