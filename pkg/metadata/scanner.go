package metadata

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/modloader/pkg/observability"
	"github.com/platinummonkey/modloader/pkg/selector"
)

// Candidate scan results, used as metric labels
const (
	ResultTagged     = "tagged"
	ResultUntagged   = "untagged"
	ResultMalformed  = "malformed"
	ResultUnreadable = "unreadable"
)

// Scanner extracts version tags from many candidate images, skipping the
// ones that cannot be used
type Scanner struct {
	key     string
	logger  *logrus.Logger
	metrics *observability.Metrics
}

// NewScanner creates a scanner for the given metadata key. Logger and
// metrics may be nil.
func NewScanner(key string, logger *logrus.Logger, metrics *observability.Metrics) *Scanner {
	if logger == nil {
		logger = logrus.New()
	}
	return &Scanner{key: key, logger: logger, metrics: metrics}
}

// Scan returns a candidate for every path carrying a well-formed tag, in
// input order. Untagged, malformed and unreadable images are logged and
// skipped.
func (s *Scanner) Scan(paths []string) []selector.Candidate {
	var out []selector.Candidate
	for _, path := range paths {
		tag, err := Extract(path, s.key)
		result := Classify(err)
		s.metrics.RecordCandidate(result)

		log := s.logger.WithField("path", path)
		switch result {
		case ResultTagged:
			log.WithField("version", tag.String()).Debug("Found candidate")
			out = append(out, selector.Candidate{Path: path, Tag: tag})
		case ResultUntagged:
			log.Warnf("Skipping candidate without %s metadata", s.key)
		case ResultMalformed:
			log.WithError(err).Warn("Skipping candidate with malformed version")
		default:
			log.WithError(err).Warn("Skipping unreadable candidate")
		}
	}
	return out
}

// Classify maps an Extract error to a scan result
func Classify(err error) string {
	switch {
	case err == nil:
		return ResultTagged
	case errors.Is(err, ErrNotFound):
		return ResultUntagged
	case errors.Is(err, ErrMalformed):
		return ResultMalformed
	default:
		return ResultUnreadable
	}
}
