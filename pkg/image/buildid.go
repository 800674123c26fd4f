package image

import (
	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
)

// ComputeBuildID derives the build ID of an encoded image from its bytes.
// The header's build ID field is treated as zero, so the ID of an already
// stamped image can be recomputed for verification. The 128-bit xxh3 hash is
// laid out as an RFC 4122 variant UUID with version 8.
func ComputeBuildID(data []byte) uuid.UUID {
	h := xxh3.New()
	if len(data) < 24 {
		_, _ = h.Write(data)
	} else {
		_, _ = h.Write(data[:8])
		_, _ = h.Write(make([]byte, 16))
		_, _ = h.Write(data[24:])
	}

	id := uuid.UUID(h.Sum128().Bytes())
	id[6] = id[6]&0x0f | 0x80
	id[8] = id[8]&0x3f | 0x80
	return id
}

// VerifyBuildID reports whether the header of an encoded image carries the
// build ID derived from its content
func VerifyBuildID(data []byte) bool {
	if len(data) < headerSize {
		return false
	}
	want := ComputeBuildID(data)
	return string(data[8:24]) == string(want[:])
}
