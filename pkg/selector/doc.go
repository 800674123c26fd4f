// Package selector chooses one implementation image among versioned
// candidates.
//
// Candidates compatible with the running host version are preferred and the
// latest of them wins. When none is compatible the latest candidate overall
// is used, unless Policy.FailClosed is set:
//
//	running := version.MustParse("v1.1.5")
//	winner, outcome, ok := selector.Select(candidates, running, selector.DefaultPolicy())
//
// Selection is deterministic: equal tags are ordered by file name.
package selector
