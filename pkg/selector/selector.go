package selector

import (
	"path/filepath"
	"sort"

	"github.com/platinummonkey/modloader/pkg/version"
)

// Candidate is an implementation image with the version tag read from its
// metadata
type Candidate struct {
	Path string
	Tag  version.Tag
}

// Outcome tells which selection rule produced the result
type Outcome int

const (
	// OutcomeNoCandidates means the input was empty
	OutcomeNoCandidates Outcome = iota
	// OutcomeSingleMatch means exactly one candidate was compatible
	OutcomeSingleMatch
	// OutcomeLatestMatch means the latest of several compatible candidates won
	OutcomeLatestMatch
	// OutcomeFallbackLatest means nothing was compatible and the latest
	// candidate overall was taken
	OutcomeFallbackLatest
	// OutcomeNoCompatible means nothing was compatible and the policy
	// forbids the fallback
	OutcomeNoCompatible
)

var outcomeNames = map[Outcome]string{
	OutcomeNoCandidates:   "no-candidates",
	OutcomeSingleMatch:    "single-match",
	OutcomeLatestMatch:    "latest-match",
	OutcomeFallbackLatest: "fallback-latest",
	OutcomeNoCompatible:   "no-compatible",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// Policy configures selection
type Policy struct {
	// Relation decides compatibility with the running version. Nil means
	// version.SameReleaseLine.
	Relation version.Relation
	// FailClosed selects nothing when no candidate is compatible instead
	// of falling back to the latest one
	FailClosed bool
}

// DefaultPolicy matches the release line and falls back to the latest
// candidate
func DefaultPolicy() Policy {
	return Policy{Relation: version.SameReleaseLine}
}

func (p Policy) relation() version.Relation {
	if p.Relation == nil {
		return version.SameReleaseLine
	}
	return p.Relation
}

// Partition splits candidates into those compatible with running and the
// rest, keeping input order
func Partition(candidates []Candidate, running version.Tag, relation version.Relation) (compatible, incompatible []Candidate) {
	if relation == nil {
		relation = version.SameReleaseLine
	}
	for _, c := range candidates {
		if relation(running, c.Tag) {
			compatible = append(compatible, c)
		} else {
			incompatible = append(incompatible, c)
		}
	}
	return compatible, incompatible
}

// Select picks the candidate to load for the running version. Among
// compatible candidates the greatest tag wins; when none is compatible the
// greatest tag overall wins unless the policy fails closed. Equal tags are
// ordered by base name and then path, so the result does not depend on
// directory enumeration order.
func Select(candidates []Candidate, running version.Tag, policy Policy) (Candidate, Outcome, bool) {
	if len(candidates) == 0 {
		return Candidate{}, OutcomeNoCandidates, false
	}

	compatible, _ := Partition(candidates, running, policy.relation())
	switch len(compatible) {
	case 1:
		return compatible[0], OutcomeSingleMatch, true
	case 0:
		if policy.FailClosed {
			return Candidate{}, OutcomeNoCompatible, false
		}
		return Latest(candidates), OutcomeFallbackLatest, true
	default:
		return Latest(compatible), OutcomeLatestMatch, true
	}
}

// Latest returns the candidate with the greatest tag. It panics on an empty
// slice.
func Latest(candidates []Candidate) Candidate {
	sorted := append([]Candidate(nil), candidates...)
	Sort(sorted)
	return sorted[len(sorted)-1]
}

// Sort orders candidates from least to most preferred: ascending tag, and
// among equal tags the alphabetically first base name, then path, last
func Sort(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return less(candidates[i], candidates[j])
	})
}

func less(a, b Candidate) bool {
	if c := version.Compare(a.Tag, b.Tag); c != 0 {
		return c < 0
	}
	an, bn := filepath.Base(a.Path), filepath.Base(b.Path)
	if an != bn {
		return an > bn
	}
	return a.Path > b.Path
}
