package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/modloader/pkg/version"
)

func candidates(paths ...string) []Candidate {
	out := make([]Candidate, 0, len(paths)/2)
	for i := 0; i+1 < len(paths); i += 2 {
		out = append(out, Candidate{Path: paths[i], Tag: version.MustParse(paths[i+1])})
	}
	return out
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name        string
		candidates  []Candidate
		running     string
		policy      Policy
		wantPath    string
		wantOutcome Outcome
		wantOK      bool
	}{
		{
			name:        "latest compatible on the release line",
			candidates:  candidates("/m/a.xmod", "v1.0.0", "/m/b.xmod", "v1.1.0", "/m/c.xmod", "v2.0.0"),
			running:     "v1.1.5",
			policy:      DefaultPolicy(),
			wantPath:    "/m/b.xmod",
			wantOutcome: OutcomeSingleMatch,
			wantOK:      true,
		},
		{
			name:        "fallback to latest when nothing matches",
			candidates:  candidates("/m/a.xmod", "v1.0.0", "/m/b.xmod", "v1.2.0"),
			running:     "v1.1.0",
			policy:      DefaultPolicy(),
			wantPath:    "/m/b.xmod",
			wantOutcome: OutcomeFallbackLatest,
			wantOK:      true,
		},
		{
			name:        "latest of several compatible",
			candidates:  candidates("/m/a.xmod", "v1.0.0", "/m/b.xmod", "v1.0.1"),
			running:     "v1.0.5",
			policy:      DefaultPolicy(),
			wantPath:    "/m/b.xmod",
			wantOutcome: OutcomeLatestMatch,
			wantOK:      true,
		},
		{
			name:        "empty input",
			running:     "v1.0.0",
			policy:      DefaultPolicy(),
			wantOutcome: OutcomeNoCandidates,
		},
		{
			name:        "fail closed",
			candidates:  candidates("/m/a.xmod", "v1.0.0", "/m/b.xmod", "v1.2.0"),
			running:     "v1.1.0",
			policy:      Policy{FailClosed: true},
			wantOutcome: OutcomeNoCompatible,
		},
		{
			name:        "nil relation means release line",
			candidates:  candidates("/m/a.xmod", "v1.1.0", "/m/b.xmod", "v1.2.0"),
			running:     "v1.1.9",
			policy:      Policy{},
			wantPath:    "/m/a.xmod",
			wantOutcome: OutcomeSingleMatch,
			wantOK:      true,
		},
		{
			name:        "revision relation",
			candidates:  candidates("/m/a.xmod", "v1.1.0", "/m/b.xmod", "v1.1.2"),
			running:     "v1.1.2",
			policy:      Policy{Relation: version.SameRevision},
			wantPath:    "/m/b.xmod",
			wantOutcome: OutcomeSingleMatch,
			wantOK:      true,
		},
		{
			name:        "changeset breaks a patch tie",
			candidates:  candidates("/m/a.xmod", "v1.1.0.9", "/m/b.xmod", "v1.1.0.10"),
			running:     "v1.1.0",
			policy:      DefaultPolicy(),
			wantPath:    "/m/b.xmod",
			wantOutcome: OutcomeLatestMatch,
			wantOK:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, outcome, ok := Select(tt.candidates, version.MustParse(tt.running), tt.policy)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantOutcome, outcome)
			assert.Equal(t, tt.wantPath, got.Path)
		})
	}
}

func TestSelect_TieBreakIsOrderIndependent(t *testing.T) {
	forward := candidates("/x/b.xmod", "v1.0.0", "/y/a.xmod", "v1.0.0", "/a/a.xmod", "v1.0.0")
	backward := []Candidate{forward[2], forward[1], forward[0]}

	for _, in := range [][]Candidate{forward, backward} {
		got, outcome, ok := Select(in, version.MustParse("v1.0.0"), DefaultPolicy())
		require.True(t, ok)
		assert.Equal(t, OutcomeLatestMatch, outcome)
		assert.Equal(t, "/a/a.xmod", got.Path)
	}
}

func TestSelect_DoesNotReorderInput(t *testing.T) {
	in := candidates("/m/b.xmod", "v1.2.0", "/m/a.xmod", "v1.0.0")
	_, _, _ = Select(in, version.MustParse("v1.1.0"), DefaultPolicy())
	assert.Equal(t, "/m/b.xmod", in[0].Path)
}

func TestPartition(t *testing.T) {
	in := candidates("/m/a.xmod", "v1.0.0", "/m/b.xmod", "v1.1.3", "/m/c.xmod", "e1.1.0")
	compatible, incompatible := Partition(in, version.MustParse("v1.1.0"), nil)

	require.Len(t, compatible, 2)
	assert.Equal(t, "/m/b.xmod", compatible[0].Path)
	assert.Equal(t, "/m/c.xmod", compatible[1].Path)
	require.Len(t, incompatible, 1)
	assert.Equal(t, "/m/a.xmod", incompatible[0].Path)
}

func TestSort(t *testing.T) {
	in := candidates("/m/b.xmod", "v1.0.0", "/m/c.xmod", "e1.0.0", "/m/a.xmod", "v1.0.0", "/m/d.xmod", "v0.9.0")
	Sort(in)

	var order []string
	for _, c := range in {
		order = append(order, c.Path)
	}
	assert.Equal(t, []string{"/m/d.xmod", "/m/c.xmod", "/m/b.xmod", "/m/a.xmod"}, order)
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "fallback-latest", OutcomeFallbackLatest.String())
	assert.Equal(t, "unknown", Outcome(99).String())
}
