// Package metadata reads version metadata out of module images without
// loading them.
//
// Only the header, section table and metadata sections are read through an
// io.ReaderAt, so images built for another host, or carrying a code payload
// that would fail to link, can be inspected safely:
//
//	tag, err := metadata.Extract("/mods/ModuleLoader.MyMod.xmod", "GameVersion")
//	switch {
//	case errors.Is(err, metadata.ErrNotFound):
//		// untagged image
//	case errors.Is(err, metadata.ErrMalformed):
//		// tag present but unparseable
//	}
//
// Scanner applies Extract to a list of files and keeps the usable ones.
package metadata
