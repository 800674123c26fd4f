package version

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrMalformed is returned when a string is not a valid version tag
var ErrMalformed = errors.New("malformed version tag")

var tagRegex = regexp.MustCompile(`^([abevd])?(\d+)\.(\d+)(?:\.(\d+))?(?:\.(\d+))?$`)

// Kind identifies the release track of a version tag
type Kind int

const (
	KindAlpha Kind = iota
	KindBeta
	KindEarlyAccess
	KindRelease
	KindDevelopment
)

var (
	kindPrefixes = []string{"a", "b", "e", "v", "d"}
	kindNames    = []string{"alpha", "beta", "early-access", "release", "development"}
)

func (k Kind) valid() bool {
	return k >= 0 && int(k) < len(kindNames)
}

func (k Kind) String() string {
	if !k.valid() {
		return "unknown"
	}
	return kindNames[k]
}

// Prefix returns the single letter used for the kind in textual tags, or
// "unknown" for a value outside the defined kinds
func (k Kind) Prefix() string {
	if !k.valid() {
		return "unknown"
	}
	return kindPrefixes[k]
}

func kindFromPrefix(p string) Kind {
	for i, prefix := range kindPrefixes {
		if prefix == p {
			return Kind(i)
		}
	}
	return KindRelease
}

// Tag is an immutable version value: a release track plus four numeric
// components. Tags compare by value.
type Tag struct {
	Kind      Kind
	Major     uint32
	Minor     uint32
	Patch     uint32
	ChangeSet uint32
}

// New builds a release tag from its numeric components
func New(major, minor, patch uint32) Tag {
	return Tag{Kind: KindRelease, Major: major, Minor: minor, Patch: patch}
}

// ParseTag parses "[kind]major.minor[.patch[.changeset]]", e.g. "e1.2.3" or
// "v1.2.3.45". A missing kind prefix means release.
func ParseTag(s string) (Tag, error) {
	m := tagRegex.FindStringSubmatch(s)
	if m == nil {
		return Tag{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}

	nums := make([]uint32, 4)
	for i, part := range m[2:6] {
		if part == "" {
			continue
		}
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return Tag{}, fmt.Errorf("%w: %q: %v", ErrMalformed, s, err)
		}
		nums[i] = uint32(n)
	}

	return Tag{
		Kind:      kindFromPrefix(m[1]),
		Major:     nums[0],
		Minor:     nums[1],
		Patch:     nums[2],
		ChangeSet: nums[3],
	}, nil
}

// MustParse is like ParseTag but panics on error
func MustParse(s string) Tag {
	t, err := ParseTag(s)
	if err != nil {
		panic(err)
	}
	return t
}

// String renders the tag in the canonical form accepted by ParseTag
func (t Tag) String() string {
	return fmt.Sprintf("%s%d.%d.%d.%d", t.Kind.Prefix(), t.Major, t.Minor, t.Patch, t.ChangeSet)
}

// Compare orders tags by major, minor, patch, changeset and then kind.
// It returns -1, 0 or +1.
func Compare(a, b Tag) int {
	pairs := [][2]uint32{
		{a.Major, b.Major},
		{a.Minor, b.Minor},
		{a.Patch, b.Patch},
		{a.ChangeSet, b.ChangeSet},
		{uint32(a.Kind), uint32(b.Kind)},
	}
	for _, p := range pairs {
		switch {
		case p[0] < p[1]:
			return -1
		case p[0] > p[1]:
			return 1
		}
	}
	return 0
}

// Less reports whether t sorts before other
func (t Tag) Less(other Tag) bool {
	return Compare(t, other) < 0
}
