package image

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"
)

const (
	// AttributeNamespace and AssemblyMetadataAttribute name the attribute
	// type that carries key/value metadata on an image
	AttributeNamespace        = "System.Reflection"
	AssemblyMetadataAttribute = "AssemblyMetadataAttribute"

	// ConstructorName is the member name of attribute constructors
	ConstructorName = ".ctor"

	attributeProlog = 0x0001
	nullString      = 0xFF
)

// ErrBadAttributeValue is returned for blobs that are not valid attribute
// values
var ErrBadAttributeValue = errors.New("malformed attribute value")

// EncodeAttributeValue serializes fixed string arguments as an attribute
// value blob: prolog, SerString per argument, zero named arguments
func EncodeAttributeValue(args ...string) ([]byte, error) {
	out := binary.LittleEndian.AppendUint16(nil, attributeProlog)
	for _, a := range args {
		var err error
		out, err = appendCompressed(out, uint32(len(a)))
		if err != nil {
			return nil, err
		}
		out = append(out, a...)
	}
	return binary.LittleEndian.AppendUint16(out, 0), nil
}

// DecodeAttributeStrings reads the first n SerString fixed arguments of an
// attribute value blob. A null string decodes as the empty string.
func DecodeAttributeStrings(blob []byte, n int) ([]string, error) {
	if len(blob) < 2 || binary.LittleEndian.Uint16(blob) != attributeProlog {
		return nil, fmt.Errorf("%w: missing prolog", ErrBadAttributeValue)
	}

	out := make([]string, 0, n)
	rest := blob[2:]
	for len(out) < n {
		if len(rest) == 0 {
			return nil, fmt.Errorf("%w: expected %d string arguments, got %d", ErrBadAttributeValue, n, len(out))
		}
		if rest[0] == nullString {
			out = append(out, "")
			rest = rest[1:]
			continue
		}
		length, width, err := readCompressed(rest)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadAttributeValue, err)
		}
		rest = rest[width:]
		if uint64(length) > uint64(len(rest)) {
			return nil, fmt.Errorf("%w: string argument overruns value", ErrBadAttributeValue)
		}
		s := rest[:length]
		if !utf8.Valid(s) {
			return nil, fmt.Errorf("%w: string argument is not UTF-8", ErrBadAttributeValue)
		}
		out = append(out, string(s))
		rest = rest[length:]
	}
	return out, nil
}

// AddAssemblyMetadata attaches an AssemblyMetadataAttribute(key, value) to
// the image, adding the attribute type and constructor references on first
// use
func (img *Image) AddAssemblyMetadata(key, value string) error {
	blob, err := EncodeAttributeValue(key, value)
	if err != nil {
		return err
	}
	img.Attributes = append(img.Attributes, CustomAttribute{
		Constructor: img.metadataConstructor(),
		Value:       blob,
	})
	return nil
}

// SetAssemblyMetadata replaces the value of an existing metadata key or adds
// it when missing
func (img *Image) SetAssemblyMetadata(key, value string) error {
	blob, err := EncodeAttributeValue(key, value)
	if err != nil {
		return err
	}
	for i, a := range img.Attributes {
		k, ok := img.metadataKey(a)
		if ok && k == key {
			img.Attributes[i].Value = blob
			return nil
		}
	}
	return img.AddAssemblyMetadata(key, value)
}

// AssemblyMetadata returns the image-level metadata pairs in table order.
// Attributes with undecodable values are skipped.
func (img *Image) AssemblyMetadata() [][2]string {
	var out [][2]string
	for _, a := range img.Attributes {
		if a.Parent != 0 || !img.isMetadataAttribute(a) {
			continue
		}
		args, err := DecodeAttributeStrings(a.Value, 2)
		if err != nil {
			continue
		}
		out = append(out, [2]string{args[0], args[1]})
	}
	return out
}

func (img *Image) metadataKey(a CustomAttribute) (string, bool) {
	if a.Parent != 0 || !img.isMetadataAttribute(a) {
		return "", false
	}
	args, err := DecodeAttributeStrings(a.Value, 1)
	if err != nil {
		return "", false
	}
	return args[0], true
}

func (img *Image) isMetadataAttribute(a CustomAttribute) bool {
	row := int(a.Constructor)
	if row < 1 || row > len(img.MemberRefs) {
		return false
	}
	name, ok := img.TypeName(img.MemberRefs[row-1].Class)
	return ok && IsMetadataAttributeType(name)
}

// IsMetadataAttributeType reports whether the type with the given full name
// carries key/value metadata. Only the simple name is compared, so a copy of
// the attribute declared in any namespace or assembly matches.
func IsMetadataAttributeType(fullName string) bool {
	_, name := SplitFullName(fullName)
	return name == AssemblyMetadataAttribute
}

func (img *Image) metadataConstructor() uint32 {
	class := img.AddTypeRef(AttributeNamespace, AssemblyMetadataAttribute)
	for i, m := range img.MemberRefs {
		if m.Class == class && m.Name == ConstructorName {
			return uint32(i + 1)
		}
	}
	img.MemberRefs = append(img.MemberRefs, MemberRef{
		Class:     class,
		Name:      ConstructorName,
		Signature: []byte{0x20, 0x02, 0x01, 0x0E, 0x0E},
	})
	return uint32(len(img.MemberRefs))
}
