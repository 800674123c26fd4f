package image

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
)

// Decode parses a complete image, including its code payload
func Decode(data []byte) (*Image, error) {
	r, err := NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return r.Image()
}

// ReadFile opens and decodes the image at path
func ReadFile(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return Decode(data)
}

// Image resolves all tables of the reader into an Image
func (r *Reader) Image() (*Image, error) {
	md, err := r.ReadMetadata()
	if err != nil {
		return nil, err
	}

	img := &Image{
		BuildID: r.header.BuildID,
		Flags:   r.header.Flags,
	}

	if img.Name, err = md.Strings.Lookup(md.ModuleName); err != nil {
		return nil, err
	}

	for _, row := range md.TypeRefs {
		ns, name, err := md.names(row.Namespace, row.Name)
		if err != nil {
			return nil, err
		}
		img.TypeRefs = append(img.TypeRefs, TypeRef{Namespace: ns, Name: name})
	}

	for _, row := range md.TypeDefs {
		ns, name, err := md.names(row.Namespace, row.Name)
		if err != nil {
			return nil, err
		}
		ctor, err := md.Strings.Lookup(row.Ctor)
		if err != nil {
			return nil, err
		}
		img.Types = append(img.Types, TypeDef{
			Flags:       TypeFlags(row.Flags),
			Namespace:   ns,
			Name:        name,
			Extends:     TypeHandle(row.Extends),
			Constructor: ctor,
		})
	}

	for _, row := range md.MemberRefs {
		name, err := md.Strings.Lookup(row.Name)
		if err != nil {
			return nil, err
		}
		sig, err := md.Blobs.Lookup(row.Signature)
		if err != nil {
			return nil, err
		}
		img.MemberRefs = append(img.MemberRefs, MemberRef{
			Class:     TypeHandle(row.Class),
			Name:      name,
			Signature: cloneBytes(sig),
		})
	}

	for _, row := range md.Attributes {
		value, err := md.Blobs.Lookup(row.Value)
		if err != nil {
			return nil, err
		}
		img.Attributes = append(img.Attributes, CustomAttribute{
			Parent:      row.Parent,
			Constructor: row.Ctor,
			Value:       cloneBytes(value),
		})
	}

	code, _, err := r.Section(SectionCode)
	if err != nil {
		return nil, err
	}
	img.Code = code

	if err := img.validate(); err != nil {
		return nil, err
	}
	return img, nil
}

// Encode serializes the image. Output depends only on the image content:
// heaps are interned in table order and the header carries a build ID
// derived from the encoded bytes, so equal images encode identically. The
// BuildID field of img is ignored.
func Encode(img *Image) ([]byte, error) {
	if err := img.validate(); err != nil {
		return nil, err
	}

	strs := newStringHeapBuilder()
	blobs := newBlobHeapBuilder()
	var (
		module, typeRefs, typeDefs, memberRefs, attrs []byte
		err                                           error
	)

	str := func(s string) uint32 {
		if err != nil {
			return 0
		}
		var idx uint32
		idx, err = strs.add(s)
		return idx
	}
	blob := func(b []byte) uint32 {
		if err != nil {
			return 0
		}
		var idx uint32
		idx, err = blobs.add(b)
		return idx
	}

	module = appendRow(module, str(img.Name))
	for _, t := range img.TypeRefs {
		typeRefs = appendRow(typeRefs, str(t.Namespace), str(t.Name))
	}
	for _, t := range img.Types {
		typeDefs = appendRow(typeDefs, uint32(t.Flags), str(t.Namespace), str(t.Name), uint32(t.Extends), str(t.Constructor))
	}
	for _, m := range img.MemberRefs {
		memberRefs = appendRow(memberRefs, uint32(m.Class), str(m.Name), blob(m.Signature))
	}
	for _, a := range img.Attributes {
		attrs = appendRow(attrs, a.Parent, a.Constructor, blob(a.Value))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build heaps: %w", err)
	}

	sections := []struct {
		name string
		data []byte
	}{
		{SectionStrings, strs.buf.Bytes()},
		{SectionBlobs, blobs.buf.Bytes()},
		{SectionModule, module},
		{SectionTypeRefs, typeRefs},
		{SectionTypeDefs, typeDefs},
		{SectionMemberRefs, memberRefs},
		{SectionAttributes, attrs},
	}
	if len(img.Code) > 0 {
		sections = append(sections, struct {
			name string
			data []byte
		}{SectionCode, img.Code})
	}

	var out bytes.Buffer
	out.WriteString(Magic)
	_ = binary.Write(&out, binary.LittleEndian, FormatVersion)
	_ = binary.Write(&out, binary.LittleEndian, uint16(len(sections)))
	out.Write(make([]byte, 16)) // build ID, stamped below
	_ = binary.Write(&out, binary.LittleEndian, img.Flags)
	_ = binary.Write(&out, binary.LittleEndian, uint32(0))

	offset := uint64(headerSize + len(sections)*sectionHeaderSize)
	for _, s := range sections {
		var name [sectionNameSize]byte
		copy(name[:], s.name)
		out.Write(name[:])
		_ = binary.Write(&out, binary.LittleEndian, offset)
		_ = binary.Write(&out, binary.LittleEndian, uint64(len(s.data)))
		offset += uint64(len(s.data))
	}
	for _, s := range sections {
		out.Write(s.data)
	}

	data := out.Bytes()
	id := ComputeBuildID(data)
	copy(data[8:24], id[:])
	return data, nil
}

// validate checks that every handle points at an existing row
func (img *Image) validate() error {
	checkType := func(h TypeHandle, what string) error {
		if h.IsNil() {
			if h != 0 {
				return fmt.Errorf("%w: %s 0x%x", ErrInvalidHandle, what, uint32(h))
			}
			return nil
		}
		if _, ok := img.TypeName(h); !ok {
			return fmt.Errorf("%w: %s 0x%x", ErrInvalidHandle, what, uint32(h))
		}
		return nil
	}

	for i, t := range img.Types {
		if err := checkType(t.Extends, fmt.Sprintf("type %d extends", i+1)); err != nil {
			return err
		}
	}
	for i, m := range img.MemberRefs {
		if m.Class.IsNil() {
			return fmt.Errorf("%w: member %d has no class", ErrInvalidHandle, i+1)
		}
		if err := checkType(m.Class, fmt.Sprintf("member %d class", i+1)); err != nil {
			return err
		}
	}
	for i, a := range img.Attributes {
		if a.Constructor == 0 || int(a.Constructor) > len(img.MemberRefs) {
			return fmt.Errorf("%w: attribute %d constructor %d", ErrInvalidHandle, i+1, a.Constructor)
		}
		if int(a.Parent) > len(img.Types) {
			return fmt.Errorf("%w: attribute %d parent %d", ErrInvalidHandle, i+1, a.Parent)
		}
	}
	return nil
}

func appendRow(dst []byte, cols ...uint32) []byte {
	for _, c := range cols {
		dst = binary.LittleEndian.AppendUint32(dst, c)
	}
	return dst
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return append([]byte(nil), b...)
}
