package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/modloader/pkg/image"
)

func TestInspect_YAML(t *testing.T) {
	dir := t.TempDir()
	a := writeImage(t, dir, "a.xmod", moduleImage(t, "A", "1.2.0"))
	b := writeImage(t, dir, "b.xmod", moduleImage(t, "B", ""))

	out, err := run(t, "inspect", "-o", "yaml", "-j", "2", a, b)
	require.NoError(t, err)

	var reports []imageReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 2)

	assert.Equal(t, a, reports[0].Path)
	assert.Equal(t, "A", reports[0].Module)
	assert.Equal(t, image.FormatVersion, reports[0].Format)
	assert.True(t, reports[0].BuildIDValid)
	assert.Equal(t, []metadataPair{{Key: "GameVersion", Value: "1.2.0"}}, reports[0].Metadata)

	require.Len(t, reports[0].Types, 3)
	assert.Equal(t, typeReport{Name: "A.Base", Extends: "ModuleLoader.SubModule", Implements: true}, reports[0].Types[0])
	assert.Equal(t, typeReport{
		Name:        "A.Core",
		Extends:     "ModuleLoader.SubModule",
		Constructor: "NewCore",
		Concrete:    true,
		Implements:  true,
	}, reports[0].Types[1])

	var names []string
	for _, s := range reports[0].Sections {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		image.SectionStrings, image.SectionBlobs, image.SectionModule, image.SectionTypeRefs,
		image.SectionTypeDefs, image.SectionMemberRefs, image.SectionAttributes,
	}, names)

	assert.Equal(t, "B", reports[1].Module)
	assert.Empty(t, reports[1].Metadata)
}

func TestInspect_Text(t *testing.T) {
	path := writeImage(t, t.TempDir(), "a.xmod", moduleImage(t, "A", "1.2.0"))

	out, err := run(t, "inspect", path)
	require.NoError(t, err)

	assert.Contains(t, out, "module:   A")
	assert.Contains(t, out, "(ok)")
	assert.Contains(t, out, "GameVersion = 1.2.0")
	assert.Contains(t, out, "#TypeDef")
	assert.Regexp(t, `A\.Core\s+ModuleLoader\.SubModule\s+NewCore\s+yes`, out)
	assert.Regexp(t, `A\.Base\s+ModuleLoader\.SubModule\s+-\s+abstract`, out)
}

func TestInspect_BuildIDMismatch(t *testing.T) {
	path := writeImage(t, t.TempDir(), "a.xmod", moduleImage(t, "A", ""))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[8] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0o644))

	out, err := run(t, "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, "(MISMATCH)")
}

func TestInspect_Errors(t *testing.T) {
	dir := t.TempDir()
	junk := filepath.Join(dir, "junk.xmod")
	require.NoError(t, os.WriteFile(junk, []byte("this is not a module image at all"), 0o644))

	_, err := run(t, "inspect", junk)
	require.Error(t, err)
	assert.ErrorIs(t, err, image.ErrBadMagic)

	_, err = run(t, "inspect", filepath.Join(dir, "missing.xmod"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = run(t, "inspect", "-o", "json", junk)
	assert.ErrorContains(t, err, "invalid format")
}
