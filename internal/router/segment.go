package router

import (
	"strings"

	"github.com/vyrodovalexey/avactions/internal/security"
)

// SegmentKind is the kind of a declared path segment.
type SegmentKind uint8

// Segment kinds.
const (
	SegmentFixed SegmentKind = iota
	SegmentString
	SegmentNumeric
)

// String returns the kind name.
func (k SegmentKind) String() string {
	switch k {
	case SegmentFixed:
		return "fixed"
	case SegmentString:
		return "string"
	case SegmentNumeric:
		return "numeric"
	default:
		return "unknown"
	}
}

var numericRules = security.MustParseRules(security.RuleNumeric)

// Segment is one declared URL path token. It is immutable once built and
// shared by every dispatch.
type Segment struct {
	Kind    SegmentKind
	Literal string
	Name    string
	Rules   []security.Rule
	Filters []security.Filter
}

// SegmentOption configures a Segment.
type SegmentOption func(*Segment)

// WithFilters sets the filters applied before the segment value is read.
func WithFilters(filters ...security.Filter) SegmentOption {
	return func(s *Segment) {
		s.Filters = append(s.Filters, filters...)
	}
}

// WithRules adds validation rules to a variable segment.
func WithRules(rules ...security.Rule) SegmentOption {
	return func(s *Segment) {
		s.Rules = append(s.Rules, rules...)
	}
}

// Fixed declares a literal segment.
func Fixed(literal string) Segment {
	return Segment{Kind: SegmentFixed, Literal: literal}
}

// Var declares a string segment bound to name.
func Var(name string, opts ...SegmentOption) Segment {
	s := Segment{Kind: SegmentString, Name: name}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Numeric declares a numeric segment bound to name.
func Numeric(name string, opts ...SegmentOption) Segment {
	s := Segment{Kind: SegmentNumeric, Name: name}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// IsVariable reports whether the segment binds a value.
func (s Segment) IsVariable() bool {
	return s.Kind != SegmentFixed
}

// Matches is the structural predicate used to select candidates. It never
// applies security rules.
func (s Segment) Matches(raw string) bool {
	switch s.Kind {
	case SegmentFixed:
		return strings.EqualFold(s.Literal, raw)
	case SegmentString:
		return true
	case SegmentNumeric:
		return security.IsNumeric(raw)
	default:
		return false
	}
}

// Resolve filters raw and checks the filtered value against the segment
// rules. Numeric segments always carry the numeric rule.
func (s Segment) Resolve(raw string, guard SecurityChecker) (string, security.Result) {
	if !s.IsVariable() {
		return raw, security.Pass()
	}

	value := guard.FilterValue(raw, s.Filters)

	rules := s.Rules
	if s.Kind == SegmentNumeric && !security.HasRule(rules, security.RuleNumeric) {
		rules = append(append([]security.Rule(nil), numericRules...), rules...)
	}
	return value, guard.CheckValue(value, rules)
}

// String returns the segment in "{name}" or literal form.
func (s Segment) String() string {
	if s.IsVariable() {
		return "{" + s.Name + "}"
	}
	return s.Literal
}
