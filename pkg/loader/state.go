package loader

// State is a step of the resolution state machine
type State int

// Progress states, in order
const (
	StateLocateSelf State = iota
	StateScanDirectory
	StateReadHostVersion
	StateScanCandidateVersions
	StateSelectCandidate
	StateLoadWinner
	StateConstructInstances
	StateDone
)

// Terminal states that stop resolution with an empty result
const (
	StateSelfNotFound State = iota + 100
	StateDirectoryMissing
	StateNoFiles
	StateHostVersionUnknown
	StateNoVersionedCandidates
	StateNoSelection
	StateLoadFailed
	StateNoImplementations
	StateConstructionFailed
	StateInvalidFilter
)

var stateNames = map[State]string{
	StateLocateSelf:            "LocateSelf",
	StateScanDirectory:         "ScanDirectory",
	StateReadHostVersion:       "ReadHostVersion",
	StateScanCandidateVersions: "ScanCandidateVersions",
	StateSelectCandidate:       "SelectCandidate",
	StateLoadWinner:            "LoadWinner",
	StateConstructInstances:    "ConstructInstances",
	StateDone:                  "Done",
	StateSelfNotFound:          "SelfNotFound",
	StateDirectoryMissing:      "DirectoryMissing",
	StateNoFiles:               "NoFiles",
	StateHostVersionUnknown:    "HostVersionUnknown",
	StateNoVersionedCandidates: "NoVersionedCandidates",
	StateNoSelection:           "NoSelection",
	StateLoadFailed:            "LoadFailed",
	StateNoImplementations:     "NoImplementations",
	StateConstructionFailed:    "ConstructionFailed",
	StateInvalidFilter:         "InvalidFilter",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Terminal reports whether resolution stops in s
func (s State) Terminal() bool {
	return s >= StateDone
}
