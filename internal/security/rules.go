package security

import (
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Rule names understood by CheckValue.
const (
	RuleRequired  = "required"
	RuleSlug      = "slug"
	RuleAlpha     = "alpha"
	RuleAlnum     = "alnum"
	RuleNumeric   = "numeric"
	RuleInteger   = "integer"
	RuleEmail     = "email"
	RuleMinLength = "minLength"
	RuleMaxLength = "maxLength"
	RuleRegex     = "regex"
	RuleIn        = "in"
	RuleSQLi      = "sqli"
	RuleXSS       = "xss"
)

var (
	slugPattern    = regexp.MustCompile(`^[A-Za-z0-9]+(?:[-_][A-Za-z0-9]+)*$`)
	alphaPattern   = regexp.MustCompile(`^[A-Za-z]+$`)
	alnumPattern   = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	numericPattern = regexp.MustCompile(`^[+-]?(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+)$`)
	integerPattern = regexp.MustCompile(`^[+-]?[0-9]+$`)
)

// Rule is one parsed validation rule.
type Rule struct {
	Name string
	Arg  string

	n  int
	re *regexp.Regexp
	in []string
}

// String returns the rule in its "name:arg" form.
func (r Rule) String() string {
	if r.Arg == "" {
		return r.Name
	}
	return r.Name + ":" + r.Arg
}

// ParseRule parses "name" or "name:argument".
func ParseRule(s string) (Rule, error) {
	name, arg, _ := strings.Cut(strings.TrimSpace(s), ":")
	r := Rule{Name: name, Arg: arg}

	switch name {
	case RuleRequired, RuleSlug, RuleAlpha, RuleAlnum, RuleNumeric, RuleInteger,
		RuleEmail, RuleSQLi, RuleXSS:
		if arg != "" {
			return Rule{}, fmt.Errorf("rule %q takes no argument", name)
		}
	case RuleMinLength, RuleMaxLength:
		n, err := strconv.Atoi(arg)
		if err != nil || n < 0 {
			return Rule{}, fmt.Errorf("rule %q needs a non-negative length, got %q", name, arg)
		}
		r.n = n
	case RuleRegex:
		re, err := regexp.Compile(arg)
		if err != nil {
			return Rule{}, fmt.Errorf("rule %q: %w", name, err)
		}
		r.re = re
	case RuleIn:
		if arg == "" {
			return Rule{}, fmt.Errorf("rule %q needs a list of values", name)
		}
		r.in = strings.Split(arg, ",")
	default:
		return Rule{}, fmt.Errorf("unknown rule %q", s)
	}
	return r, nil
}

// ParseRules parses every rule in specs.
func ParseRules(specs ...string) ([]Rule, error) {
	rules := make([]Rule, 0, len(specs))
	for _, s := range specs {
		r, err := ParseRule(s)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// MustParseRules is like ParseRules but panics on error.
func MustParseRules(specs ...string) []Rule {
	rules, err := ParseRules(specs...)
	if err != nil {
		panic(err)
	}
	return rules
}

// HasRule reports whether rules contains a rule with the given name.
func HasRule(rules []Rule, name string) bool {
	for _, r := range rules {
		if r.Name == name {
			return true
		}
	}
	return false
}

// IsNumeric reports whether s is an optionally signed decimal number.
// At least one digit must appear on one side of the point.
func IsNumeric(s string) bool {
	return numericPattern.MatchString(s)
}

// check evaluates every rule except the detector-backed ones and returns
// the violations.
func (r Rule) check(value string) (string, bool) {
	switch r.Name {
	case RuleRequired:
		if value == "" {
			return "value is required", false
		}
		return "", true
	}

	// Empty values are only rejected by "required" and the length rules.
	if value == "" && r.Name != RuleMinLength {
		return "", true
	}

	switch r.Name {
	case RuleSlug:
		if !slugPattern.MatchString(value) {
			return "must be a slug", false
		}
	case RuleAlpha:
		if !alphaPattern.MatchString(value) {
			return "must contain letters only", false
		}
	case RuleAlnum:
		if !alnumPattern.MatchString(value) {
			return "must contain letters and digits only", false
		}
	case RuleNumeric:
		if !IsNumeric(value) {
			return "must be numeric", false
		}
	case RuleInteger:
		if !integerPattern.MatchString(value) {
			return "must be an integer", false
		}
	case RuleEmail:
		addr, err := mail.ParseAddress(value)
		if err != nil || addr.Address != value {
			return "must be an email address", false
		}
	case RuleMinLength:
		if utf8.RuneCountInString(value) < r.n {
			return fmt.Sprintf("must be at least %d characters", r.n), false
		}
	case RuleMaxLength:
		if utf8.RuneCountInString(value) > r.n {
			return fmt.Sprintf("must be at most %d characters", r.n), false
		}
	case RuleRegex:
		if !r.re.MatchString(value) {
			return fmt.Sprintf("must match %s", r.Arg), false
		}
	case RuleIn:
		for _, allowed := range r.in {
			if value == allowed {
				return "", true
			}
		}
		return fmt.Sprintf("must be one of %s", r.Arg), false
	}
	return "", true
}
