package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/modloader/pkg/metadata"
	"github.com/platinummonkey/modloader/pkg/observability"
	"github.com/platinummonkey/modloader/pkg/selector"
	"github.com/platinummonkey/modloader/pkg/version"
)

// DefaultAttributeKey is the assembly metadata key holding the host version
// an implementation was built for
const DefaultAttributeKey = "GameVersion"

// ErrInvalidFilter is returned when the candidate filter is not a valid glob
var ErrInvalidFilter = errors.New("invalid candidate filter")

// HostVersionFunc returns the version of the running host
type HostVersionFunc func() (version.Tag, error)

// Options configures a Resolver
type Options struct {
	// Locate returns the path of the image the resolver ships in. Nil
	// means os.Executable.
	Locate func() (string, error)
	// Dir overrides the directory scanned for candidates. Empty means the
	// directory of the located image.
	Dir string
	// Filter is the glob matched against candidate base names
	Filter string
	// AlreadyLoaded holds base names, without extension, of images the
	// process already provides. They are never candidates.
	AlreadyLoaded []string
	// AttributeKey is the metadata key carrying the version tag
	AttributeKey string
	// Contract is the full name of the extension base type
	Contract string
	// Order lists full type names in instantiation order
	Order []string
	// Policy configures candidate selection
	Policy selector.Policy
	// HostVersion reports the running host version
	HostVersion HostVersionFunc
	// Linker links the winning image
	Linker Linker

	Logger  *logrus.Logger
	Metrics *observability.Metrics
	Tracer  trace.Tracer
}

// Report describes how a resolution went
type Report struct {
	State       State
	Self        string
	Dir         string
	Files       []string
	HostVersion version.Tag
	Candidates  []selector.Candidate
	Winner      selector.Candidate
	Outcome     selector.Outcome
	Skipped     []Skipped
	Instances   []string
	Err         error
}

// Resolver picks the implementation image matching the running host and
// constructs the extension instances it declares
type Resolver[T any] struct {
	opts Options
	log  *logrus.Logger
}

// NewResolver creates a resolver for the contract type T
func NewResolver[T any](opts Options) *Resolver[T] {
	if opts.Locate == nil {
		opts.Locate = os.Executable
	}
	if opts.Filter == "" {
		opts.Filter = "*.xmod"
	}
	if opts.AttributeKey == "" {
		opts.AttributeKey = DefaultAttributeKey
	}
	if opts.Linker == nil {
		opts.Linker = NewStaticLinker(nil)
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.Tracer == nil {
		opts.Tracer = observability.Tracer()
	}
	return &Resolver[T]{opts: opts, log: opts.Logger}
}

// resolution carries the state of one Resolve call
type resolution[T any] struct {
	report    *Report
	factories []Factory[T]
	instances []Instance[T]
}

// Resolve runs the state machine once. Every stop short of Done yields an
// empty result and is logged; only a failing constructor is returned as an
// error.
func (r *Resolver[T]) Resolve(ctx context.Context) ([]T, *Report, error) {
	ctx, span := r.opts.Tracer.Start(ctx, "loader.Resolve")
	defer span.End()

	res := &resolution[T]{report: &Report{State: StateLocateSelf}}
	for !res.report.State.Terminal() {
		from := res.report.State
		res.report.State = r.step(res)
		span.AddEvent(from.String(), trace.WithAttributes(
			attribute.String("modloader.next_state", res.report.State.String()),
		))
	}

	rep := res.report
	r.opts.Metrics.RecordResolution(rep.State.String())
	span.SetAttributes(attribute.String("modloader.state", rep.State.String()))

	log := observability.WithTraceContext(ctx, r.log.WithFields(logrus.Fields{
		"state": rep.State.String(),
		"dir":   rep.Dir,
	}))
	for _, s := range rep.Skipped {
		log.WithField("type", s.TypeName).Warnf("Skipped implementation: %s", s)
	}

	if rep.State != StateDone {
		span.SetStatus(codes.Error, rep.State.String())
		log.WithError(rep.Err).Error("Implementation resolution stopped")
		if rep.State == StateConstructionFailed {
			return nil, rep, rep.Err
		}
		return nil, rep, nil
	}

	r.opts.Metrics.RecordInstances(len(res.instances))
	log.WithFields(logrus.Fields{
		"winner":    rep.Winner.Path,
		"version":   rep.Winner.Tag.String(),
		"outcome":   rep.Outcome.String(),
		"instances": len(res.instances),
	}).Info("Resolved implementation")
	return Values(res.instances), rep, nil
}

func (r *Resolver[T]) step(res *resolution[T]) State {
	rep := res.report
	switch rep.State {
	case StateLocateSelf:
		self, err := r.opts.Locate()
		if err != nil || self == "" {
			rep.Err = fmt.Errorf("cannot locate own image: %w", errOrUnknown(err))
			return StateSelfNotFound
		}
		rep.Self = self
		rep.Dir = r.opts.Dir
		if rep.Dir == "" {
			rep.Dir = filepath.Dir(self)
		}
		return StateScanDirectory

	case StateScanDirectory:
		exclude := append([]string{stem(rep.Self)}, r.opts.AlreadyLoaded...)
		files, err := ScanDirectory(rep.Dir, r.opts.Filter, exclude)
		switch {
		case errors.Is(err, ErrInvalidFilter):
			rep.Err = err
			return StateInvalidFilter
		case err != nil:
			rep.Err = err
			return StateDirectoryMissing
		}
		if len(files) == 0 {
			rep.Err = fmt.Errorf("no files matching %q in %s", r.opts.Filter, rep.Dir)
			return StateNoFiles
		}
		rep.Files = files
		return StateReadHostVersion

	case StateReadHostVersion:
		if r.opts.HostVersion == nil {
			rep.Err = errors.New("no host version source configured")
			return StateHostVersionUnknown
		}
		host, err := r.opts.HostVersion()
		if err != nil {
			rep.Err = fmt.Errorf("cannot determine host version: %w", err)
			return StateHostVersionUnknown
		}
		rep.HostVersion = host
		return StateScanCandidateVersions

	case StateScanCandidateVersions:
		scanner := metadata.NewScanner(r.opts.AttributeKey, r.log, r.opts.Metrics)
		rep.Candidates = scanner.Scan(rep.Files)
		if len(rep.Candidates) == 0 {
			rep.Err = fmt.Errorf("no candidate carries %s metadata", r.opts.AttributeKey)
			return StateNoVersionedCandidates
		}
		return StateSelectCandidate

	case StateSelectCandidate:
		winner, outcome, ok := selector.Select(rep.Candidates, rep.HostVersion, r.opts.Policy)
		rep.Outcome = outcome
		if !ok {
			rep.Err = fmt.Errorf("no candidate selected for host %s: %s", rep.HostVersion, outcome)
			return StateNoSelection
		}
		rep.Winner = winner
		if outcome == selector.OutcomeFallbackLatest {
			r.log.Warnf("No candidate matches host %s; falling back to %s (%s)", rep.HostVersion, winner.Path, winner.Tag)
		}
		return StateLoadWinner

	case StateLoadWinner:
		factories, skipped, err := LinkFile[T](rep.Winner.Path, r.opts.Linker, r.opts.Contract)
		rep.Skipped = skipped
		if err != nil {
			rep.Err = err
			if errors.Is(err, ErrNoImplementations) {
				return StateNoImplementations
			}
			return StateLoadFailed
		}
		res.factories = factories
		return StateConstructInstances

	case StateConstructInstances:
		instances, err := Construct(res.factories)
		if err != nil {
			rep.Err = err
			return StateConstructionFailed
		}
		res.instances = Order(instances, r.opts.Order)
		for _, inst := range res.instances {
			rep.Instances = append(rep.Instances, inst.TypeName)
		}
		return StateDone

	default:
		return rep.State
	}
}

// ScanDirectory lists regular files in dir whose base name matches filter,
// leaving out files whose base name without extension is in exclude. The
// result is sorted by name. The filter is checked before the directory.
func ScanDirectory(dir, filter string, exclude []string) ([]string, error) {
	if _, err := filepath.Match(filter, ""); err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidFilter, filter, err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("candidate directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("candidate directory %s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read candidate directory: %w", err)
	}

	excluded := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		excluded[name] = true
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if ok, _ := filepath.Match(filter, name); !ok || excluded[stem(name)] {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	return files, nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func errOrUnknown(err error) error {
	if err == nil {
		return errors.New("empty path")
	}
	return err
}
