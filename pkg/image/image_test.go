package image

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleImage(t *testing.T) *Image {
	t.Helper()

	img := &Image{Name: "ModuleLoader"}
	base := img.AddTypeRef("Host.Extensions", "SubModuleBase")
	img.AddType(TypeDef{
		Flags:       TypePublic,
		Namespace:   "ModuleLoader",
		Name:        "SubModule",
		Extends:     base,
		Constructor: "NewSubModule",
	})
	require.NoError(t, img.AddAssemblyMetadata("GameVersion", "e1.2.0"))
	require.NoError(t, img.AddAssemblyMetadata("Author", "someone"))
	img.Code = []byte("payload bytes")
	return img
}

func TestEncodeDecode(t *testing.T) {
	img := sampleImage(t)

	data, err := Encode(img)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, "ModuleLoader", decoded.Name)
	assert.Equal(t, img.TypeRefs, decoded.TypeRefs)
	assert.Equal(t, img.Types, decoded.Types)
	assert.Equal(t, img.MemberRefs, decoded.MemberRefs)
	assert.Equal(t, img.Attributes, decoded.Attributes)
	assert.Equal(t, img.Code, decoded.Code)
	assert.Equal(t, ComputeBuildID(data), decoded.BuildID)
}

func TestEncode_Deterministic(t *testing.T) {
	first, err := Encode(sampleImage(t))
	require.NoError(t, err)
	second, err := Encode(sampleImage(t))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// re-encoding a decoded image reproduces the same bytes
	decoded, err := Decode(first)
	require.NoError(t, err)
	third, err := Encode(decoded)
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

func TestEncode_BuildIDTracksContent(t *testing.T) {
	a, err := Encode(sampleImage(t))
	require.NoError(t, err)

	img := sampleImage(t)
	img.Name = "Other"
	b, err := Encode(img)
	require.NoError(t, err)

	assert.NotEqual(t, a[8:24], b[8:24])
	assert.True(t, VerifyBuildID(a))
	assert.True(t, VerifyBuildID(b))

	a[len(a)-1] ^= 0xFF
	assert.False(t, VerifyBuildID(a))
}

func TestBuildID_UUIDLayout(t *testing.T) {
	data, err := Encode(sampleImage(t))
	require.NoError(t, err)

	id := ComputeBuildID(data)
	assert.Equal(t, 8, int(id.Version()))
	assert.Equal(t, "RFC4122", id.Variant().String())
}

func TestEncode_InvalidHandles(t *testing.T) {
	tests := []struct {
		name string
		img  *Image
	}{
		{
			name: "extends missing type ref",
			img:  &Image{Types: []TypeDef{{Name: "A", Extends: TypeRefHandle(3)}}},
		},
		{
			name: "attribute without constructor",
			img:  &Image{Attributes: []CustomAttribute{{Constructor: 1}}},
		},
		{
			name: "member without class",
			img:  &Image{MemberRefs: []MemberRef{{Name: ".ctor"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.img)
			assert.ErrorIs(t, err, ErrInvalidHandle)
		})
	}
}

func TestEncode_RejectsNUL(t *testing.T) {
	_, err := Encode(&Image{Name: "bad\x00name"})
	assert.Error(t, err)
}

func TestDecode_Errors(t *testing.T) {
	valid, err := Encode(sampleImage(t))
	require.NoError(t, err)

	t.Run("too small", func(t *testing.T) {
		_, err := Decode([]byte("XMOD"))
		assert.ErrorIs(t, err, ErrBadMagic)
	})

	t.Run("bad magic", func(t *testing.T) {
		data := bytes.Clone(valid)
		copy(data, "MZ\x90\x00")
		_, err := Decode(data)
		assert.ErrorIs(t, err, ErrBadMagic)
	})

	t.Run("unsupported format", func(t *testing.T) {
		data := bytes.Clone(valid)
		binary.LittleEndian.PutUint16(data[4:], 9)
		_, err := Decode(data)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("section overruns file", func(t *testing.T) {
		data := bytes.Clone(valid)
		binary.LittleEndian.PutUint64(data[headerSize+16:], uint64(len(data)))
		_, err := Decode(data)
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := Decode(valid[:len(valid)-4])
		assert.ErrorIs(t, err, ErrCorrupt)
	})
}

func TestReader_SkipsCode(t *testing.T) {
	data, err := Encode(sampleImage(t))
	require.NoError(t, err)

	r, err := NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	names := make([]string, 0)
	for _, s := range r.Sections() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		SectionStrings, SectionBlobs, SectionModule, SectionTypeRefs,
		SectionTypeDefs, SectionMemberRefs, SectionAttributes, SectionCode,
	}, names)

	md, err := r.ReadMetadata()
	require.NoError(t, err)
	assert.Len(t, md.TypeDefs, 1)
	assert.Len(t, md.Attributes, 2)

	ns, name, err := md.TypeName(TypeHandle(md.TypeDefs[0].Extends))
	require.NoError(t, err)
	assert.Equal(t, "Host.Extensions", ns)
	assert.Equal(t, "SubModuleBase", name)
}

func TestImage_InheritsFrom(t *testing.T) {
	img := &Image{}
	base := img.AddTypeRef("Host", "Base")
	mid := img.AddType(TypeDef{Namespace: "Impl", Name: "Middle", Flags: TypeAbstract, Extends: base})
	img.AddType(TypeDef{Namespace: "Impl", Name: "Leaf", Extends: mid})
	img.AddType(TypeDef{Namespace: "Impl", Name: "Unrelated"})
	img.AddType(TypeDef{Namespace: "Impl", Name: "Loop", Extends: TypeDefHandle(4)})
	img.AddType(TypeDef{Namespace: "Impl", Name: "Dangling", Extends: TypeDefHandle(9)})

	assert.True(t, img.InheritsFrom(0, "Host.Base"))
	assert.True(t, img.InheritsFrom(1, "Host.Base"))
	assert.False(t, img.InheritsFrom(2, "Host.Base"))
	assert.False(t, img.InheritsFrom(3, "Host.Base"))
	assert.False(t, img.InheritsFrom(4, "Host.Base"))
}

func TestAssemblyMetadata(t *testing.T) {
	img := sampleImage(t)
	assert.Equal(t, [][2]string{{"GameVersion", "e1.2.0"}, {"Author", "someone"}}, img.AssemblyMetadata())

	require.NoError(t, img.SetAssemblyMetadata("GameVersion", "v1.3.0"))
	require.NoError(t, img.SetAssemblyMetadata("Channel", "stable"))
	assert.Equal(t, [][2]string{
		{"GameVersion", "v1.3.0"}, {"Author", "someone"}, {"Channel", "stable"},
	}, img.AssemblyMetadata())

	// the attribute type and constructor are shared
	assert.Len(t, img.TypeRefs, 2)
	assert.Len(t, img.MemberRefs, 1)
}

// A metadata attribute type from another namespace is matched by its simple
// name, the same way metadata.Walk matches it
func TestAssemblyMetadata_ForeignAttributeType(t *testing.T) {
	img := &Image{Name: "Foreign"}
	class := img.AddTypeRef("Other.Ns", AssemblyMetadataAttribute)
	img.MemberRefs = append(img.MemberRefs, MemberRef{Class: class, Name: ConstructorName})
	value, err := EncodeAttributeValue("GameVersion", "v1.0.0")
	require.NoError(t, err)
	img.Attributes = append(img.Attributes, CustomAttribute{Constructor: 1, Value: value})

	assert.Equal(t, [][2]string{{"GameVersion", "v1.0.0"}}, img.AssemblyMetadata())

	require.NoError(t, img.SetAssemblyMetadata("GameVersion", "v2.0.0"))
	assert.Equal(t, [][2]string{{"GameVersion", "v2.0.0"}}, img.AssemblyMetadata())
	assert.Len(t, img.Attributes, 1)

	assert.True(t, IsMetadataAttributeType("System.Reflection.AssemblyMetadataAttribute"))
	assert.True(t, IsMetadataAttributeType("AssemblyMetadataAttribute"))
	assert.False(t, IsMetadataAttributeType("System.Reflection.AssemblyTitleAttribute"))
	assert.False(t, IsMetadataAttributeType("Other.AssemblyMetadataAttributeX"))
}

func TestAttributeValue(t *testing.T) {
	blob, err := EncodeAttributeValue("GameVersion", "e1.0.0")
	require.NoError(t, err)

	args, err := DecodeAttributeStrings(blob, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"GameVersion", "e1.0.0"}, args)

	_, err = DecodeAttributeStrings(blob[:5], 2)
	assert.ErrorIs(t, err, ErrBadAttributeValue)

	_, err = DecodeAttributeStrings([]byte{0x02, 0x00}, 1)
	assert.ErrorIs(t, err, ErrBadAttributeValue)

	nulls := []byte{0x01, 0x00, 0xFF, 0x01, 'x'}
	args, err = DecodeAttributeStrings(nulls, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "x"}, args)
}

func TestCompressedIntegers(t *testing.T) {
	for _, v := range []uint32{0, 1, 0x7F, 0x80, 0x3FFF, 0x4000, 0x1FFFFFFF} {
		enc, err := appendCompressed(nil, v)
		require.NoError(t, err)
		dec, n, err := readCompressed(enc)
		require.NoError(t, err)
		assert.Equal(t, v, dec)
		assert.Equal(t, len(enc), n)
	}

	_, err := appendCompressed(nil, 0x20000000)
	assert.Error(t, err)
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "A.B.C", FullName("A.B", "C"))
	assert.Equal(t, "C", FullName("", "C"))

	ns, name := SplitFullName("A.B.C")
	assert.Equal(t, "A.B", ns)
	assert.Equal(t, "C", name)

	ns, name = SplitFullName("Plain")
	assert.Equal(t, "", ns)
	assert.Equal(t, "Plain", name)
}
