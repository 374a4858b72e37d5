package diag

import (
	"fmt"
	"strings"
)

type Note struct {
	Subject string
	Msg     string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Subject  string
	Message  string
	Notes    []Note
}

func New(sev Severity, code Code, subject, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Subject:  subject,
		Message:  msg,
	}
}

func NewWarning(code Code, subject, msg string) Diagnostic {
	return New(SevWarning, code, subject, msg)
}

func (d Diagnostic) WithNote(subject, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Subject: subject, Msg: msg})
	return d
}

// String renders a single line: "warning[RES3002] EV_1: message".
func (d Diagnostic) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s[%s]", strings.ToLower(d.Severity.String()), d.Code.ID())
	if d.Subject != "" {
		sb.WriteString(" ")
		sb.WriteString(d.Subject)
	}
	sb.WriteString(": ")
	sb.WriteString(d.Message)
	for _, n := range d.Notes {
		sb.WriteString("\n  note: ")
		if n.Subject != "" {
			sb.WriteString(n.Subject)
			sb.WriteString(": ")
		}
		sb.WriteString(n.Msg)
	}
	return sb.String()
}
