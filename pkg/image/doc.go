// Package image reads and writes module images, the container format used
// for extension implementations and the loader template.
//
// # Layout
//
// An image is a 32-byte header, a section table and the section data:
//
//	"XMOD" | format u16 | sections u16 | build ID [16] | flags u32 | reserved u32
//	section header: name [8] | offset u64 | size u64
//
// The metadata sections follow the ECMA-335 model: a string heap (#Str), a
// blob heap (#Blob), and the #Module, #TypeRef, #TypeDef, #MemRef and #Attr
// tables. Custom attribute values use the ECMA-335 blob encoding. The
// optional #Code section carries the implementation payload.
//
// # Access levels
//
// Reader exposes the header, section table and raw tables without touching
// the payload; it is what metadata scanning uses. Decode and Encode convert
// between bytes and the structural Image used by the rewriter:
//
//	img, err := image.Decode(data)
//	if err != nil {
//		return err
//	}
//	img.Name = "MyModule"
//	out, err := image.Encode(img)
//
// Encode is deterministic and stamps a build ID derived from the content.
package image
