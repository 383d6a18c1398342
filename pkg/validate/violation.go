package validate

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Code is a machine-readable classification of a structural violation.
// Codes let callers branch on failure categories without parsing messages.
type Code string

const (
	// CodeMissingMember marks a required document member that is absent or
	// empty.
	CodeMissingMember Code = "MISSING_MEMBER"
	// CodeWrongType marks a member carrying the wrong JSON type, including
	// a document "type" field that contradicts the object kind.
	CodeWrongType Code = "WRONG_TYPE"
	// CodeBadLink marks a malformed entry in the links array.
	CodeBadLink Code = "BAD_LINK"
	// CodeBadDatetime marks a violation of the item datetime rules: a
	// missing or unparseable datetime, a null datetime without a declared
	// range, or a range whose start follows its end.
	CodeBadDatetime Code = "BAD_DATETIME"
	// CodeBadExtent marks a malformed collection extent.
	CodeBadExtent Code = "BAD_EXTENT"
	// CodeBadGeometry marks a malformed item geometry or a non-null
	// geometry without the required bbox.
	CodeBadGeometry Code = "BAD_GEOMETRY"
	// CodeBadExtensionField marks extension-owned fields that violate the
	// extension's rules.
	CodeBadExtensionField Code = "BAD_EXTENSION_FIELD"
	// CodeUnknownExtension marks a declared extension URI no registered
	// validator covers. Only reported in strict mode.
	CodeUnknownExtension Code = "UNKNOWN_EXTENSION"
)

// Violation is one structural rule failure. Field locates the offending
// member as a dotted path ("properties.datetime", "links[2].href"); it is
// empty for document-level failures. Cause carries the underlying error
// when the violation wraps one, such as an extension hook failure.
type Violation struct {
	Code    Code
	Field   string
	Message string
	Cause   error
}

// Error implements the error interface.
func (v *Violation) Error() string {
	msg := v.Message
	if v.Field != "" {
		msg = v.Field + ": " + msg
	}
	if v.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", v.Code, msg, v.Cause)
	}
	return fmt.Sprintf("%s: %s", v.Code, msg)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (v *Violation) Unwrap() error { return v.Cause }

func violation(code Code, field, format string, args ...any) *Violation {
	return &Violation{
		Code:    code,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// HasCode reports whether err carries at least one violation with the given
// code, descending into aggregated errors.
func HasCode(err error, code Code) bool {
	for _, v := range Violations(err) {
		if v.Code == code {
			return true
		}
	}
	return false
}

// Violations flattens every violation aggregated in err, in reporting
// order. Non-violation errors in the aggregate are skipped.
func Violations(err error) []*Violation {
	if err == nil {
		return nil
	}
	switch e := err.(type) {
	case *multierror.Error:
		var out []*Violation
		for _, sub := range e.Errors {
			out = append(out, Violations(sub)...)
		}
		return out
	case *Violation:
		return []*Violation{e}
	}
	return Violations(errors.Unwrap(err))
}
