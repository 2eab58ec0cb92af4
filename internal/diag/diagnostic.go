package diag

import (
	"windjammer/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

// Suggestion is a human hint with an optional literal replacement for Span.
type Suggestion struct {
	Message     string
	Span        source.Span
	Replacement *string
}

// Diagnostic is the CompileError record shared by every pass.
type Diagnostic struct {
	Severity    Severity
	Code        Code
	Message     string
	Primary     source.Span
	Notes       []Note
	Help        []string
	Suggestions []Suggestion
}

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}

func (d Diagnostic) WithHelp(msg string) Diagnostic {
	d.Help = append(d.Help, msg)
	return d
}

// WithSuggestion appends a suggestion; replacement may be empty for message-only hints.
func (d Diagnostic) WithSuggestion(msg string, sp source.Span, replacement string) Diagnostic {
	s := Suggestion{Message: msg, Span: sp}
	if replacement != "" {
		s.Replacement = &replacement
	}
	d.Suggestions = append(d.Suggestions, s)
	return d
}

// Error lets a Diagnostic travel through Go error returns.
func (d Diagnostic) Error() string {
	return d.Code.ID() + ": " + d.Message
}
