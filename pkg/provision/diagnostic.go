package provision

import "fmt"

// Diagnostic codes
const (
	CodeMissingInputs = "ML0001"
	CodeStarted       = "ML0002"
	CodeSucceeded     = "ML0003"
	CodeFailed        = "ML0004"
)

// Severity of a diagnostic
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Diagnostic is a structured message for the build toolchain
type Diagnostic struct {
	Code     string
	Severity Severity
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s: %s", d.Severity, d.Code, d.Message)
}

// Reporter receives diagnostics as they are emitted
type Reporter interface {
	Report(Diagnostic)
}

// ReporterFunc adapts a function to Reporter
type ReporterFunc func(Diagnostic)

// Report calls f(d)
func (f ReporterFunc) Report(d Diagnostic) { f(d) }
