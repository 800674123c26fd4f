package image

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const (
	// Magic identifies a module image file
	Magic = "XMOD"
	// FormatVersion is the only layout version this package reads and writes
	FormatVersion uint16 = 1

	// Extension is the conventional file extension of module images
	Extension = ".xmod"
	// SymbolsExtension is the extension of the debug companion file
	SymbolsExtension = ".xsym"

	headerSize        = 32
	sectionHeaderSize = 24
	sectionNameSize   = 8
)

// Section names, in the order Encode writes them
const (
	SectionStrings    = "#Str"
	SectionBlobs      = "#Blob"
	SectionModule     = "#Module"
	SectionTypeRefs   = "#TypeRef"
	SectionTypeDefs   = "#TypeDef"
	SectionMemberRefs = "#MemRef"
	SectionAttributes = "#Attr"
	SectionCode       = "#Code"
)

var (
	// ErrBadMagic is returned when the input is not a module image
	ErrBadMagic = errors.New("not a module image")
	// ErrUnsupportedFormat is returned for an unknown layout version
	ErrUnsupportedFormat = errors.New("unsupported module image format")
	// ErrCorrupt is returned when headers, tables or heaps are inconsistent
	ErrCorrupt = errors.New("corrupt module image")
	// ErrInvalidHandle is returned when a table row references a missing row
	ErrInvalidHandle = errors.New("invalid metadata handle")
)

// TypeFlags describe a type definition
type TypeFlags uint32

const (
	TypeAbstract TypeFlags = 1 << iota
	TypeInterface
	TypePublic
)

// TypeHandle is a coded reference to a TypeDef or TypeRef row. The zero
// value references nothing.
type TypeHandle uint32

// TypeDefHandle references the 1-based TypeDef row
func TypeDefHandle(row int) TypeHandle {
	return TypeHandle(uint32(row) << 1)
}

// TypeRefHandle references the 1-based TypeRef row
func TypeRefHandle(row int) TypeHandle {
	return TypeHandle(uint32(row)<<1 | 1)
}

// IsNil reports whether h references nothing
func (h TypeHandle) IsNil() bool { return h>>1 == 0 }

// IsTypeRef reports whether h references the TypeRef table
func (h TypeHandle) IsTypeRef() bool { return !h.IsNil() && h&1 == 1 }

// IsTypeDef reports whether h references the TypeDef table
func (h TypeHandle) IsTypeDef() bool { return !h.IsNil() && h&1 == 0 }

// Row returns the 1-based row number
func (h TypeHandle) Row() int { return int(h >> 1) }

// TypeRef names a type defined outside the image
type TypeRef struct {
	Namespace string
	Name      string
}

// FullName returns "Namespace.Name"
func (t TypeRef) FullName() string { return FullName(t.Namespace, t.Name) }

// TypeDef is a type defined by the image. Constructor names the exported
// symbol of its parameterless constructor; empty means the type has none.
type TypeDef struct {
	Flags       TypeFlags
	Namespace   string
	Name        string
	Extends     TypeHandle
	Constructor string
}

// FullName returns "Namespace.Name"
func (t TypeDef) FullName() string { return FullName(t.Namespace, t.Name) }

// IsConcrete reports whether the type can be instantiated
func (t TypeDef) IsConcrete() bool {
	return t.Flags&(TypeAbstract|TypeInterface) == 0
}

// MemberRef references a member, usually a constructor, of a type
type MemberRef struct {
	Class     TypeHandle
	Name      string
	Signature []byte
}

// CustomAttribute attaches a serialized attribute value to the image
// (Parent 0) or to the 1-based TypeDef row Parent. Constructor is the 1-based
// MemberRef row of the attribute constructor.
type CustomAttribute struct {
	Parent      uint32
	Constructor uint32
	Value       []byte
}

// Image is the structural representation of a module image
type Image struct {
	Name       string
	BuildID    uuid.UUID
	Flags      uint32
	TypeRefs   []TypeRef
	Types      []TypeDef
	MemberRefs []MemberRef
	Attributes []CustomAttribute
	Code       []byte
}

// FullName joins a namespace and a type name
func FullName(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

// SplitFullName splits "A.B.C" into namespace "A.B" and name "C"
func SplitFullName(fullName string) (namespace, name string) {
	i := strings.LastIndexByte(fullName, '.')
	if i < 0 {
		return "", fullName
	}
	return fullName[:i], fullName[i+1:]
}

// FindType returns the index of the TypeDef with the given full name
func (img *Image) FindType(fullName string) (int, bool) {
	for i, t := range img.Types {
		if t.FullName() == fullName {
			return i, true
		}
	}
	return -1, false
}

// TypeName resolves a handle to the full name of the referenced type
func (img *Image) TypeName(h TypeHandle) (string, bool) {
	row := h.Row()
	switch {
	case h.IsTypeDef() && row <= len(img.Types):
		return img.Types[row-1].FullName(), true
	case h.IsTypeRef() && row <= len(img.TypeRefs):
		return img.TypeRefs[row-1].FullName(), true
	default:
		return "", false
	}
}

// InheritsFrom walks the Extends chain of the TypeDef at index i and reports
// whether it reaches a type named baseFullName. Cycles end the walk.
func (img *Image) InheritsFrom(i int, baseFullName string) bool {
	seen := make(map[int]bool)
	for i >= 0 && i < len(img.Types) && !seen[i] {
		seen[i] = true
		h := img.Types[i].Extends
		name, ok := img.TypeName(h)
		if !ok {
			return false
		}
		if name == baseFullName {
			return true
		}
		if !h.IsTypeDef() {
			return false
		}
		i = h.Row() - 1
	}
	return false
}

// AddTypeRef returns a handle to the TypeRef with the given name, appending
// it when missing
func (img *Image) AddTypeRef(namespace, name string) TypeHandle {
	for i, r := range img.TypeRefs {
		if r.Namespace == namespace && r.Name == name {
			return TypeRefHandle(i + 1)
		}
	}
	img.TypeRefs = append(img.TypeRefs, TypeRef{Namespace: namespace, Name: name})
	return TypeRefHandle(len(img.TypeRefs))
}

// AddType appends a TypeDef and returns its handle
func (img *Image) AddType(t TypeDef) TypeHandle {
	img.Types = append(img.Types, t)
	return TypeDefHandle(len(img.Types))
}
