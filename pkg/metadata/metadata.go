package metadata

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/platinummonkey/modloader/pkg/image"
	"github.com/platinummonkey/modloader/pkg/version"
)

var (
	// ErrNotFound is returned when no assembly metadata attribute carries
	// the requested key
	ErrNotFound = errors.New("metadata key not found")
	// ErrMalformed is returned when the attribute value is not a version tag
	ErrMalformed = errors.New("malformed version metadata")
)

// ScanError records the image a lookup failed for
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// Extract reads the version tag stored under key in the assembly metadata of
// the image at path. Only the header and metadata sections are read; the
// code payload is never touched.
func Extract(path, key string) (version.Tag, error) {
	value, err := Lookup(path, key)
	if err != nil {
		return version.Tag{}, err
	}
	tag, err := version.ParseTag(value)
	if err != nil {
		return version.Tag{}, &ScanError{Path: path, Err: fmt.Errorf("%w: %w", ErrMalformed, err)}
	}
	return tag, nil
}

// Lookup returns the raw value stored under key in the assembly metadata of
// the image at path
func Lookup(path, key string) (string, error) {
	var value string
	found := false
	err := walkFile(path, func(k, v string) bool {
		if k == key {
			value, found = v, true
			return false
		}
		return true
	})
	if err != nil {
		return "", err
	}
	if !found {
		return "", &ScanError{Path: path, Err: fmt.Errorf("%w: %s", ErrNotFound, key)}
	}
	return value, nil
}

// Attributes returns every assembly metadata pair of the image at path in
// table order
func Attributes(path string) ([][2]string, error) {
	var out [][2]string
	err := walkFile(path, func(k, v string) bool {
		out = append(out, [2]string{k, v})
		return true
	})
	return out, err
}

func walkFile(path string, fn func(key, value string) bool) error {
	f, err := os.Open(path)
	if err != nil {
		return &ScanError{Path: path, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return &ScanError{Path: path, Err: err}
	}

	if err := Walk(f, info.Size(), fn); err != nil {
		return &ScanError{Path: path, Err: err}
	}
	return nil
}

// Walk calls fn for each assembly-level AssemblyMetadataAttribute of the
// image in r, in table order, until fn returns false. The attribute type is
// matched by name, whichever assembly declares it. Attributes whose value
// cannot be decoded are skipped.
func Walk(r io.ReaderAt, size int64, fn func(key, value string) bool) error {
	ir, err := image.NewReader(r, size)
	if err != nil {
		return err
	}
	md, err := ir.ReadMetadata()
	if err != nil {
		return err
	}

	for _, attr := range md.Attributes {
		if attr.Parent != 0 {
			continue
		}
		row := int(attr.Ctor)
		if row < 1 || row > len(md.MemberRefs) {
			return fmt.Errorf("%w: attribute constructor %d", image.ErrInvalidHandle, attr.Ctor)
		}
		namespace, name, err := md.TypeName(image.TypeHandle(md.MemberRefs[row-1].Class))
		if err != nil {
			return err
		}
		if !image.IsMetadataAttributeType(image.FullName(namespace, name)) {
			continue
		}

		blob, err := md.Blobs.Lookup(attr.Value)
		if err != nil {
			return err
		}
		args, err := image.DecodeAttributeStrings(blob, 2)
		if err != nil {
			continue
		}
		if !fn(args[0], args[1]) {
			return nil
		}
	}
	return nil
}
