// Package version implements the version tags embedded in extension images
// and the relations used to match them against the running host.
//
// Tags have the form "[kind]major.minor[.patch[.changeset]]", where kind is
// one of a (alpha), b (beta), e (early access), v (release) or
// d (development):
//
//	t, err := version.ParseTag("e1.2.3")
//	if err != nil {
//		return err
//	}
//	ok := version.SameReleaseLine(host, t)
package version
