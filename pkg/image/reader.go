package image

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Header is the fixed-size file header
type Header struct {
	Format   uint16
	Sections uint16
	BuildID  uuid.UUID
	Flags    uint32
}

// SectionHeader locates one section in the file
type SectionHeader struct {
	Name   string
	Offset uint64
	Size   uint64
}

// Reader gives access to the header, section table and individual sections
// of an image without reading the whole file
type Reader struct {
	r        io.ReaderAt
	size     int64
	header   Header
	sections []SectionHeader
}

// NewReader reads and validates the header and section table
func NewReader(r io.ReaderAt, size int64) (*Reader, error) {
	var hdr [headerSize]byte
	if size < headerSize {
		return nil, fmt.Errorf("%w: file too small (%d bytes)", ErrBadMagic, size)
	}
	if err := readFull(r, hdr[:], 0); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if string(hdr[:4]) != Magic {
		return nil, ErrBadMagic
	}

	h := Header{
		Format:   binary.LittleEndian.Uint16(hdr[4:]),
		Sections: binary.LittleEndian.Uint16(hdr[6:]),
		Flags:    binary.LittleEndian.Uint32(hdr[24:]),
	}
	copy(h.BuildID[:], hdr[8:24])
	if h.Format != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFormat, h.Format)
	}

	tableSize := int64(h.Sections) * sectionHeaderSize
	if headerSize+tableSize > size {
		return nil, fmt.Errorf("%w: section table overruns file", ErrCorrupt)
	}
	table := make([]byte, tableSize)
	if err := readFull(r, table, headerSize); err != nil {
		return nil, fmt.Errorf("failed to read section table: %w", err)
	}

	sections := make([]SectionHeader, 0, h.Sections)
	for i := 0; i < int(h.Sections); i++ {
		entry := table[i*sectionHeaderSize : (i+1)*sectionHeaderSize]
		sh := SectionHeader{
			Name:   string(bytes.TrimRight(entry[:sectionNameSize], "\x00")),
			Offset: binary.LittleEndian.Uint64(entry[8:]),
			Size:   binary.LittleEndian.Uint64(entry[16:]),
		}
		if sh.Offset > uint64(size) || sh.Size > uint64(size)-sh.Offset {
			return nil, fmt.Errorf("%w: section %s overruns file", ErrCorrupt, sh.Name)
		}
		sections = append(sections, sh)
	}

	return &Reader{r: r, size: size, header: h, sections: sections}, nil
}

// Header returns the file header
func (r *Reader) Header() Header {
	return r.header
}

// Sections returns the section table
func (r *Reader) Sections() []SectionHeader {
	return r.sections
}

// Section reads the named section. A missing section yields nil and false.
func (r *Reader) Section(name string) ([]byte, bool, error) {
	for _, sh := range r.sections {
		if sh.Name != name {
			continue
		}
		data := make([]byte, sh.Size)
		if err := readFull(r.r, data, int64(sh.Offset)); err != nil {
			return nil, true, fmt.Errorf("failed to read section %s: %w", name, err)
		}
		return data, true, nil
	}
	return nil, false, nil
}

// Raw table rows. String fields are #Str offsets, blob fields #Blob offsets.
type (
	TypeRefRow struct {
		Namespace uint32
		Name      uint32
	}

	TypeDefRow struct {
		Flags     uint32
		Namespace uint32
		Name      uint32
		Extends   uint32
		Ctor      uint32
	}

	MemberRefRow struct {
		Class     uint32
		Name      uint32
		Signature uint32
	}

	AttributeRow struct {
		Parent uint32
		Ctor   uint32
		Value  uint32
	}
)

// Metadata holds the heaps and raw tables of an image, everything except
// the code payload
type Metadata struct {
	Strings    StringHeap
	Blobs      BlobHeap
	ModuleName uint32
	TypeRefs   []TypeRefRow
	TypeDefs   []TypeDefRow
	MemberRefs []MemberRefRow
	Attributes []AttributeRow
}

// ReadMetadata reads the heaps and tables. Missing sections read as empty.
func (r *Reader) ReadMetadata() (*Metadata, error) {
	md := &Metadata{}

	str, _, err := r.Section(SectionStrings)
	if err != nil {
		return nil, err
	}
	md.Strings = str

	blob, _, err := r.Section(SectionBlobs)
	if err != nil {
		return nil, err
	}
	md.Blobs = blob

	module, err := r.rows(SectionModule, 1)
	if err != nil {
		return nil, err
	}
	if len(module) > 1 {
		return nil, fmt.Errorf("%w: %d module rows", ErrCorrupt, len(module))
	}
	if len(module) == 1 {
		md.ModuleName = module[0][0]
	}

	refs, err := r.rows(SectionTypeRefs, 2)
	if err != nil {
		return nil, err
	}
	for _, row := range refs {
		md.TypeRefs = append(md.TypeRefs, TypeRefRow{Namespace: row[0], Name: row[1]})
	}

	defs, err := r.rows(SectionTypeDefs, 5)
	if err != nil {
		return nil, err
	}
	for _, row := range defs {
		md.TypeDefs = append(md.TypeDefs, TypeDefRow{
			Flags: row[0], Namespace: row[1], Name: row[2], Extends: row[3], Ctor: row[4],
		})
	}

	members, err := r.rows(SectionMemberRefs, 3)
	if err != nil {
		return nil, err
	}
	for _, row := range members {
		md.MemberRefs = append(md.MemberRefs, MemberRefRow{Class: row[0], Name: row[1], Signature: row[2]})
	}

	attrs, err := r.rows(SectionAttributes, 3)
	if err != nil {
		return nil, err
	}
	for _, row := range attrs {
		md.Attributes = append(md.Attributes, AttributeRow{Parent: row[0], Ctor: row[1], Value: row[2]})
	}

	return md, nil
}

// readFull fills buf from r at off. An io.EOF that arrives together with a
// full buffer is not an error.
func readFull(r io.ReaderAt, buf []byte, off int64) error {
	if len(buf) == 0 {
		return nil
	}
	n, err := r.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return err
}

// rows splits a table section into rows of the given number of uint32 columns
func (r *Reader) rows(name string, columns int) ([][]uint32, error) {
	data, _, err := r.Section(name)
	if err != nil {
		return nil, err
	}
	rowSize := columns * 4
	if len(data)%rowSize != 0 {
		return nil, fmt.Errorf("%w: table %s size %d is not a multiple of %d", ErrCorrupt, name, len(data), rowSize)
	}

	out := make([][]uint32, 0, len(data)/rowSize)
	for off := 0; off < len(data); off += rowSize {
		row := make([]uint32, columns)
		for c := range row {
			row[c] = binary.LittleEndian.Uint32(data[off+c*4:])
		}
		out = append(out, row)
	}
	return out, nil
}

// TypeName resolves a coded type handle to the referenced type's namespace
// and name
func (md *Metadata) TypeName(h TypeHandle) (namespace, name string, err error) {
	row := h.Row()
	switch {
	case h.IsTypeRef() && row <= len(md.TypeRefs):
		ref := md.TypeRefs[row-1]
		return md.names(ref.Namespace, ref.Name)
	case h.IsTypeDef() && row <= len(md.TypeDefs):
		def := md.TypeDefs[row-1]
		return md.names(def.Namespace, def.Name)
	default:
		return "", "", fmt.Errorf("%w: type handle 0x%x", ErrInvalidHandle, uint32(h))
	}
}

func (md *Metadata) names(nsIdx, nameIdx uint32) (string, string, error) {
	ns, err := md.Strings.Lookup(nsIdx)
	if err != nil {
		return "", "", err
	}
	name, err := md.Strings.Lookup(nameIdx)
	if err != nil {
		return "", "", err
	}
	return ns, name, nil
}
