package errors

import (
	"encoding/json"
	"fmt"
)

// SchemaVersion tags the JSON shape of a Report so external consumers
// (language server, CI tooling) can version against it.
const SchemaVersion = "virdant.diagnostic/v1"

// Report is Virdant's canonical diagnostic: a kind, a stable code, the
// phase that raised it, a human message, and either a qualified
// identifier or a span.
type Report struct {
	Schema  string         `json:"schema"`
	Code    string         `json:"code"`
	Kind    Kind           `json:"kind"`
	Phase   string         `json:"phase"`
	Message string         `json:"message"`
	Ident   string         `json:"ident,omitempty"`
	Span    *Span          `json:"span,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// Error implements the error interface so a *Report can be returned
// wherever Go code expects an error.
func (r *Report) Error() string {
	if r == nil {
		return "<nil diagnostic>"
	}
	loc := r.Ident
	if loc == "" && r.Span != nil {
		loc = r.Span.String()
	}
	if loc != "" {
		return fmt.Sprintf("%s: %s (%s)", r.Code, r.Message, loc)
	}
	return fmt.Sprintf("%s: %s", r.Code, r.Message)
}

// dedupeKey is used by Diagnostics to drop repeated reports.
func (r *Report) dedupeKey() string {
	loc := r.Ident
	if r.Span != nil {
		loc += "|" + r.Span.String()
	}
	return r.Code + "|" + loc + "|" + r.Message
}

// ToJSON renders the report as indented or compact JSON.
func (r *Report) ToJSON(compact bool) (string, error) {
	var data []byte
	var err error
	if compact {
		data, err = json.Marshal(r)
	} else {
		data, err = json.MarshalIndent(r, "", "  ")
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func newReport(kind Kind, phase string, message string) *Report {
	if phase == "" {
		phase = phaseOf[kind]
	}
	return &Report{
		Schema:  SchemaVersion,
		Code:    codeOf(kind),
		Kind:    kind,
		Phase:   phase,
		Message: message,
		Data:    map[string]any{},
	}
}

// WithIdent attaches a qualified identifier to the report and returns it.
func (r *Report) WithIdent(ident string) *Report {
	r.Ident = ident
	return r
}

// WithSpan attaches a source span to the report and returns it.
func (r *Report) WithSpan(span Span) *Report {
	r.Span = &span
	return r
}

// WithData merges a key/value pair into the report's structured data.
func (r *Report) WithData(key string, value any) *Report {
	if r.Data == nil {
		r.Data = map[string]any{}
	}
	r.Data[key] = value
	return r
}

// Constructors, one per diagnostic kind.

func Io(message string) *Report    { return newReport(KindIo, "", message) }
func Parse(message string) *Report { return newReport(KindParse, "", message) }
func DupItem(ident string) *Report {
	return newReport(KindDupItem, "", fmt.Sprintf("duplicate item %q", ident)).WithIdent(ident)
}
func CantImport(pkg string) *Report {
	return newReport(KindCantImport, "", fmt.Sprintf("cannot import unknown package %q", pkg)).WithIdent(pkg)
}
func DupImport(pkg string) *Report {
	return newReport(KindDupImport, "", fmt.Sprintf("package %q imported more than once", pkg)).WithIdent(pkg)
}
func UnresolvedIdent(ident string) *Report {
	return newReport(KindUnresolvedIdent, "", fmt.Sprintf("unresolved identifier %q", ident)).WithIdent(ident)
}
func ItemDepCycle(path []string) *Report {
	r := newReport(KindItemDepCycle, "", fmt.Sprintf("item dependency cycle: %v", path))
	r.Data["cycle"] = path
	if len(path) > 0 {
		r.Ident = path[0]
	}
	return r
}
func KindError(message string) *Report { return newReport(KindKindError, "", message) }
func TypeMismatch(message string) *Report {
	return newReport(KindTypeMismatch, "", message)
}
func CantInfer(message string) *Report { return newReport(KindCantInfer, "", message) }
func DriverDiscipline(message string) *Report {
	return newReport(KindDriverDiscipline, "", message)
}
func Other(message string) *Report { return newReport(KindOther, "", message) }
