package layout

import (
	"fmt"
	"regexp"
	"strings"
)

// MissingVarError is returned by Template.Substitute when a variable cannot
// be resolved from the object or the template's defaults.
type MissingVarError struct {
	Var string
	Err error
}

func (e *MissingVarError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("template variable %q: %v", e.Var, e.Err)
	}
	return fmt.Sprintf("template variable %q cannot be resolved", e.Var)
}

func (e *MissingVarError) Unwrap() error { return e.Err }

var varPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Template is a path pattern with "${var}" placeholders, such as
// "${collection}/${year}/${month}". Variables resolve against the object's
// TemplateValue; objects expose their id, collection, datetime parts
// (year/month/day/date) and dotted property paths. The Defaults map fills
// variables the object cannot provide.
type Template struct {
	pattern  string
	defaults map[string]string
}

// NewTemplate parses pattern into a Template. defaults may be nil.
func NewTemplate(pattern string, defaults map[string]string) *Template {
	return &Template{pattern: pattern, defaults: defaults}
}

// Pattern returns the original pattern string.
func (t *Template) Pattern() string { return t.pattern }

// Vars returns the placeholder names in order of first appearance.
func (t *Template) Vars() []string {
	matches := varPattern.FindAllStringSubmatch(t.pattern, -1)
	seen := make(map[string]bool, len(matches))
	var vars []string
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			vars = append(vars, m[1])
		}
	}
	return vars
}

// Substitute expands the template against n. Unresolvable variables fall
// back to Defaults; when neither source has a value, Substitute returns a
// *MissingVarError naming the variable.
func (t *Template) Substitute(n Node) (string, error) {
	var firstErr error
	out := varPattern.ReplaceAllStringFunc(t.pattern, func(m string) string {
		name := m[2 : len(m)-1]
		val, err := n.TemplateValue(name)
		if err == nil && val != "" {
			return val
		}
		if def, ok := t.defaults[name]; ok {
			return def
		}
		if firstErr == nil {
			firstErr = &MissingVarError{Var: name, Err: err}
		}
		return m
	})
	if firstErr != nil {
		return "", firstErr
	}
	return strings.Trim(out, "/"), nil
}

// SubstitutePath expands the template and splits the result into its path
// segments. GenerateSubcatalogs uses the segments as the chain of
// subcatalog ids for an item.
func (t *Template) SubstitutePath(n Node) ([]string, error) {
	sub, err := t.Substitute(n)
	if err != nil {
		return nil, err
	}
	if sub == "" {
		return nil, nil
	}
	return strings.Split(sub, "/"), nil
}
