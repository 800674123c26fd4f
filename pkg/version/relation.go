package version

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Relation decides whether a candidate tag belongs to the same release line
// as the running host
type Relation func(running, candidate Tag) bool

// SameReleaseLine matches equal major and minor, any patch
func SameReleaseLine(running, candidate Tag) bool {
	return running.Major == candidate.Major && running.Minor == candidate.Minor
}

// SameRevision matches equal major, minor and patch
func SameRevision(running, candidate Tag) bool {
	return SameReleaseLine(running, candidate) && running.Patch == candidate.Patch
}

// ConstraintRelation builds a Relation from a semver constraint pattern.
// The placeholders {major}, {minor} and {patch} are replaced with the running
// version before the candidate is checked, so "~{major}.{minor}" accepts any
// patch of the running release line.
func ConstraintRelation(pattern string) (Relation, error) {
	if _, err := semver.NewConstraint(expandPattern(pattern, Tag{})); err != nil {
		return nil, fmt.Errorf("invalid compatibility constraint %q: %w", pattern, err)
	}

	return func(running, candidate Tag) bool {
		c, err := semver.NewConstraint(expandPattern(pattern, running))
		if err != nil {
			return false
		}
		return c.Check(candidate.Semver())
	}, nil
}

// RelationByName maps a configuration value to a Relation. Known names are
// "release-line" and "revision"; anything else is treated as a constraint
// pattern for ConstraintRelation.
func RelationByName(name string) (Relation, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "release-line":
		return SameReleaseLine, nil
	case "revision":
		return SameRevision, nil
	default:
		return ConstraintRelation(name)
	}
}

// Semver converts the numeric part of the tag to a semver version. The
// changeset is carried as build metadata; neither it nor the kind affects
// constraint checks.
func (t Tag) Semver() *semver.Version {
	return semver.New(uint64(t.Major), uint64(t.Minor), uint64(t.Patch), "", strconv.FormatUint(uint64(t.ChangeSet), 10))
}

func expandPattern(pattern string, t Tag) string {
	return strings.NewReplacer(
		"{major}", strconv.FormatUint(uint64(t.Major), 10),
		"{minor}", strconv.FormatUint(uint64(t.Minor), 10),
		"{patch}", strconv.FormatUint(uint64(t.Patch), 10),
	).Replace(pattern)
}
