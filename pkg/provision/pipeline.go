package provision

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/modloader/pkg/image"
	"github.com/platinummonkey/modloader/pkg/observability"
	"github.com/platinummonkey/modloader/pkg/rewrite"
)

// DefaultTemplateName is the template image file name
const DefaultTemplateName = "ModuleLoader" + image.Extension

// ErrInvalidModuleID is returned for module identifiers that cannot be
// used in a file name
var ErrInvalidModuleID = errors.New("invalid module identifier")

// Status of a provisioning run
type Status string

const (
	StatusSkipped   Status = "skipped"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Error kinds reported in failure diagnostics
const (
	KindTemplateMissing   = "TemplateMissing"
	KindTemplateMalformed = "TemplateMalformed"
	KindInvalidInput      = "InvalidInput"
	KindIO                = "IOError"
	KindPanic             = "Panic"
	KindUnknown           = "Error"
)

// Options configures a Pipeline
type Options struct {
	// Templates holds the template image and its debug companion
	Templates fs.FS
	// TemplateName is the template image file name in Templates. The
	// companion has the same base name with the symbols extension.
	TemplateName string
	// TypeName is the well-known type renamed per module
	TypeName string
	// Reporter receives diagnostics as they are emitted. Optional.
	Reporter Reporter

	Logger  *logrus.Logger
	Metrics *observability.Metrics
	Tracer  trace.Tracer
}

// Result is the outcome of one run
type Result struct {
	RunID       uuid.UUID
	Status      Status
	Diagnostics []Diagnostic
	Files       []string
	Err         error
}

// Pipeline produces per-module copies of the template image inside a build
type Pipeline struct {
	opts Options
	log  *logrus.Logger
}

// NewPipeline creates a provisioning pipeline
func NewPipeline(opts Options) *Pipeline {
	if opts.TemplateName == "" {
		opts.TemplateName = DefaultTemplateName
	}
	if opts.TypeName == "" {
		opts.TypeName = rewrite.DefaultTypeName
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.Tracer == nil {
		opts.Tracer = observability.Tracer()
	}
	return &Pipeline{opts: opts, log: opts.Logger}
}

// Run provisions the image for one module. Missing inputs skip the run
// without touching the file system. Run never panics: every failure is
// reported as a diagnostic and in Result.Err.
func (p *Pipeline) Run(ctx context.Context, in Inputs) (res Result) {
	start := time.Now()
	res.RunID = uuid.New()

	ctx, span := p.opts.Tracer.Start(ctx, "provision.Run", trace.WithAttributes(
		attribute.String("modloader.run_id", res.RunID.String()),
	))
	defer span.End()

	log := observability.WithTraceContext(ctx, p.log.WithField("run_id", res.RunID.String()))

	defer func() {
		if rerr := observability.MustRecover(recover()); rerr != nil {
			p.fail(&res, log, rerr)
		}
		if res.Status == StatusFailed {
			span.SetStatus(codes.Error, res.Err.Error())
		}
		span.SetAttributes(attribute.String("modloader.status", string(res.Status)))
		p.opts.Metrics.RecordProvision(string(res.Status), time.Since(start))
	}()

	if missing := in.Missing(); len(missing) > 0 {
		res.Status = StatusSkipped
		p.emit(&res, log, Diagnostic{
			Code:     CodeMissingInputs,
			Severity: SeverityInfo,
			Message:  "skipped, missing required inputs: " + strings.Join(missing, ", "),
		})
		return res
	}

	moduleID := in.ResolvedModuleID()
	log = log.WithField("module", moduleID)
	span.SetAttributes(attribute.String("modloader.module", moduleID))

	p.emit(&res, log, Diagnostic{
		Code:     CodeStarted,
		Severity: SeverityInfo,
		Message:  fmt.Sprintf("generation started for module %s", moduleID),
	})

	files, err := p.generate(in.OutputDir(), moduleID)
	res.Files = files
	if err != nil {
		p.fail(&res, log, err)
		return res
	}

	res.Status = StatusSucceeded
	p.emit(&res, log, Diagnostic{
		Code:     CodeSucceeded,
		Severity: SeverityInfo,
		Message:  fmt.Sprintf("generation succeeded for module %s", moduleID),
	})
	return res
}

// generate writes the renamed image and the debug companion, if the
// template has one
func (p *Pipeline) generate(outDir, moduleID string) ([]string, error) {
	if strings.ContainsAny(moduleID, `/\`) || moduleID == "." || moduleID == ".." {
		return nil, fmt.Errorf("%w: %q", ErrInvalidModuleID, moduleID)
	}
	if p.opts.Templates == nil {
		return nil, fmt.Errorf("no template source: %w", fs.ErrNotExist)
	}

	template, err := fs.ReadFile(p.opts.Templates, p.opts.TemplateName)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}

	out, err := rewrite.Rewrite(template, moduleID, p.opts.TypeName)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	base := strings.TrimSuffix(p.opts.TemplateName, image.Extension)
	imagePath := filepath.Join(outDir, base+"."+moduleID+image.Extension)
	if err := os.WriteFile(imagePath, out, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write image: %w", err)
	}
	files := []string{imagePath}

	symbols, err := fs.ReadFile(p.opts.Templates, base+image.SymbolsExtension)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		p.log.Debugf("Template %s has no debug companion", p.opts.TemplateName)
		return files, nil
	case err != nil:
		return files, fmt.Errorf("failed to read debug companion: %w", err)
	}

	symbolsPath := filepath.Join(outDir, base+"."+moduleID+image.SymbolsExtension)
	if err := os.WriteFile(symbolsPath, symbols, 0o644); err != nil {
		return files, fmt.Errorf("failed to write debug companion: %w", err)
	}
	return append(files, symbolsPath), nil
}

func (p *Pipeline) fail(res *Result, log *logrus.Entry, err error) {
	res.Status = StatusFailed
	res.Err = err
	p.emit(res, log.WithError(err), Diagnostic{
		Code:     CodeFailed,
		Severity: SeverityError,
		Message:  fmt.Sprintf("generation failed: %s: %v", ErrorKind(err), err),
	})
}

func (p *Pipeline) emit(res *Result, log *logrus.Entry, d Diagnostic) {
	res.Diagnostics = append(res.Diagnostics, d)
	if p.opts.Reporter != nil {
		p.opts.Reporter.Report(d)
	}

	log = log.WithField("code", d.Code)
	switch d.Severity {
	case SeverityError:
		log.Error(d.Message)
	case SeverityWarning:
		log.Warn(d.Message)
	default:
		log.Info(d.Message)
	}
}

// ErrorKind classifies a provisioning error for failure diagnostics
func ErrorKind(err error) string {
	var (
		panicErr *observability.PanicError
		pathErr  *fs.PathError
	)
	switch {
	case errors.As(err, &panicErr):
		return KindPanic
	case errors.Is(err, ErrInvalidModuleID), errors.Is(err, rewrite.ErrEmptyName):
		return KindInvalidInput
	case errors.Is(err, rewrite.ErrTypeNotFound),
		errors.Is(err, image.ErrBadMagic),
		errors.Is(err, image.ErrUnsupportedFormat),
		errors.Is(err, image.ErrCorrupt),
		errors.Is(err, image.ErrInvalidHandle):
		return KindTemplateMalformed
	case errors.Is(err, fs.ErrNotExist):
		return KindTemplateMissing
	case errors.As(err, &pathErr):
		return KindIO
	default:
		return KindUnknown
	}
}
