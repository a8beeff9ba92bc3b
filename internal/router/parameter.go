package router

import (
	"github.com/vyrodovalexey/avactions/internal/security"
)

// Source is the ambient collection a parameter is read from.
type Source uint8

// Parameter sources.
const (
	SourceQuery Source = iota
	SourceBody
	SourceFile
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceQuery:
		return "query"
	case SourceBody:
		return "body"
	case SourceFile:
		return "file"
	default:
		return "unknown"
	}
}

// defaultFilters run on every parameter before its own filters.
var defaultFilters = []security.Filter{security.FilterXSS}

var sqliRules = security.MustParseRules(security.RuleSQLi)

// Parameter is one named input read from the query, the body or the
// uploaded files.
type Parameter struct {
	Name    string
	Source  Source
	Rules   []security.Rule
	Filters []security.Filter
	File    security.FileRules
}

// ParameterOption configures a Parameter.
type ParameterOption func(*Parameter)

// ParamRules adds validation rules.
func ParamRules(rules ...security.Rule) ParameterOption {
	return func(p *Parameter) {
		p.Rules = append(p.Rules, rules...)
	}
}

// ParamFilters adds filters applied after the default XSS filter.
func ParamFilters(filters ...security.Filter) ParameterOption {
	return func(p *Parameter) {
		p.Filters = append(p.Filters, filters...)
	}
}

// ParamFile sets the upload rules of a file parameter.
func ParamFile(rules security.FileRules) ParameterOption {
	return func(p *Parameter) {
		p.File = rules
	}
}

// Query declares a query string parameter.
func Query(name string, opts ...ParameterOption) Parameter {
	return newParameter(name, SourceQuery, opts)
}

// Body declares a form body parameter.
func Body(name string, opts ...ParameterOption) Parameter {
	return newParameter(name, SourceBody, opts)
}

// File declares an uploaded file parameter.
func File(name string, opts ...ParameterOption) Parameter {
	return newParameter(name, SourceFile, opts)
}

func newParameter(name string, source Source, opts []ParameterOption) Parameter {
	p := Parameter{Name: name, Source: source}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Retrieve reads the parameter from the ambient collections. received is
// false when the parameter is absent, which differs from an empty value.
func (p Parameter) Retrieve(a Ambient) (raw string, file *security.UploadedFile, received bool) {
	switch p.Source {
	case SourceQuery:
		if vals, ok := a.Query[p.Name]; ok && len(vals) > 0 {
			return vals[0], nil, true
		}
	case SourceBody:
		if vals, ok := a.Body[p.Name]; ok && len(vals) > 0 {
			return vals[0], nil, true
		}
	case SourceFile:
		if f, ok := a.Files[p.Name]; ok && f != nil {
			return f.Filename, f, true
		}
	}
	return "", nil, false
}

// Value applies the default filters and then the parameter's own.
func (p Parameter) Value(raw string, guard SecurityChecker) string {
	if p.Source == SourceFile {
		return raw
	}
	value := guard.FilterValue(raw, defaultFilters)
	return guard.FilterValue(value, p.Filters)
}

// Check validates a received value. Query and body values always get the
// SQL injection scan; files are checked against the upload rules.
func (p Parameter) Check(value string, file *security.UploadedFile, guard SecurityChecker) security.Result {
	if p.Source == SourceFile {
		return guard.CheckFile(file, p.File)
	}

	rules := p.Rules
	if !security.HasRule(rules, security.RuleSQLi) {
		rules = append(append([]security.Rule(nil), rules...), sqliRules...)
	}
	return guard.CheckValue(value, rules)
}
