package image

import (
	"bytes"
	"fmt"
	"strings"
)

// StringHeap is the raw #Str section: NUL-terminated UTF-8 strings
// addressed by byte offset
type StringHeap []byte

// Lookup returns the string starting at idx
func (h StringHeap) Lookup(idx uint32) (string, error) {
	if idx == 0 {
		return "", nil
	}
	if int64(idx) >= int64(len(h)) {
		return "", fmt.Errorf("%w: string index %d out of range", ErrCorrupt, idx)
	}
	end := bytes.IndexByte(h[idx:], 0)
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated string at %d", ErrCorrupt, idx)
	}
	return string(h[idx : int(idx)+end]), nil
}

// BlobHeap is the raw #Blob section: length-prefixed byte strings
// addressed by byte offset
type BlobHeap []byte

// Lookup returns the blob starting at idx
func (h BlobHeap) Lookup(idx uint32) ([]byte, error) {
	if idx == 0 {
		return nil, nil
	}
	if int64(idx) >= int64(len(h)) {
		return nil, fmt.Errorf("%w: blob index %d out of range", ErrCorrupt, idx)
	}
	n, width, err := readCompressed(h[idx:])
	if err != nil {
		return nil, err
	}
	start := int(idx) + width
	if uint64(start)+uint64(n) > uint64(len(h)) {
		return nil, fmt.Errorf("%w: blob at %d overruns heap", ErrCorrupt, idx)
	}
	return h[start : start+int(n)], nil
}

// stringHeapBuilder interns strings in first-use order
type stringHeapBuilder struct {
	buf   bytes.Buffer
	index map[string]uint32
}

func newStringHeapBuilder() *stringHeapBuilder {
	b := &stringHeapBuilder{index: make(map[string]uint32)}
	b.buf.WriteByte(0)
	return b
}

func (b *stringHeapBuilder) add(s string) (uint32, error) {
	if s == "" {
		return 0, nil
	}
	if strings.IndexByte(s, 0) >= 0 {
		return 0, fmt.Errorf("string %q contains NUL", s)
	}
	if idx, ok := b.index[s]; ok {
		return idx, nil
	}
	idx := uint32(b.buf.Len())
	b.buf.WriteString(s)
	b.buf.WriteByte(0)
	b.index[s] = idx
	return idx, nil
}

// blobHeapBuilder interns blobs in first-use order
type blobHeapBuilder struct {
	buf   bytes.Buffer
	index map[string]uint32
}

func newBlobHeapBuilder() *blobHeapBuilder {
	b := &blobHeapBuilder{index: make(map[string]uint32)}
	b.buf.WriteByte(0)
	return b
}

func (b *blobHeapBuilder) add(blob []byte) (uint32, error) {
	if len(blob) == 0 {
		return 0, nil
	}
	if idx, ok := b.index[string(blob)]; ok {
		return idx, nil
	}
	prefix, err := appendCompressed(nil, uint32(len(blob)))
	if err != nil {
		return 0, err
	}
	idx := uint32(b.buf.Len())
	b.buf.Write(prefix)
	b.buf.Write(blob)
	b.index[string(blob)] = idx
	return idx, nil
}

const maxCompressed = 0x1FFFFFFF

// appendCompressed appends v as an ECMA-335 compressed unsigned integer
func appendCompressed(dst []byte, v uint32) ([]byte, error) {
	switch {
	case v <= 0x7F:
		return append(dst, byte(v)), nil
	case v <= 0x3FFF:
		return append(dst, byte(v>>8)|0x80, byte(v)), nil
	case v <= maxCompressed:
		return append(dst, byte(v>>24)|0xC0, byte(v>>16), byte(v>>8), byte(v)), nil
	default:
		return dst, fmt.Errorf("value %d too large to compress", v)
	}
}

// readCompressed decodes an ECMA-335 compressed unsigned integer and returns
// it with the number of bytes consumed
func readCompressed(b []byte) (uint32, int, error) {
	if len(b) == 0 {
		return 0, 0, fmt.Errorf("%w: truncated compressed integer", ErrCorrupt)
	}
	switch {
	case b[0]&0x80 == 0:
		return uint32(b[0]), 1, nil
	case b[0]&0xC0 == 0x80:
		if len(b) < 2 {
			return 0, 0, fmt.Errorf("%w: truncated compressed integer", ErrCorrupt)
		}
		return uint32(b[0]&0x3F)<<8 | uint32(b[1]), 2, nil
	case b[0]&0xE0 == 0xC0:
		if len(b) < 4 {
			return 0, 0, fmt.Errorf("%w: truncated compressed integer", ErrCorrupt)
		}
		return uint32(b[0]&0x1F)<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), 4, nil
	default:
		return 0, 0, fmt.Errorf("%w: invalid compressed integer prefix 0x%02x", ErrCorrupt, b[0])
	}
}
