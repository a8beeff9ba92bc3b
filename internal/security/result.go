package security

import "strings"

// Result is the outcome of a security check.
type Result struct {
	OK         bool
	Violations []string
}

// Pass returns a successful result.
func Pass() Result {
	return Result{OK: true}
}

// Fail returns a failed result carrying the given violations.
func Fail(violations ...string) Result {
	return Result{OK: false, Violations: violations}
}

// Merge folds other into r. The merged result is OK only if both are.
func (r Result) Merge(other Result) Result {
	return Result{
		OK:         r.OK && other.OK,
		Violations: append(append([]string(nil), r.Violations...), other.Violations...),
	}
}

// Prefix returns a copy of r with every violation prefixed by "name: ".
func (r Result) Prefix(name string) Result {
	if len(r.Violations) == 0 {
		return r
	}
	out := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		out[i] = name + ": " + v
	}
	return Result{OK: r.OK, Violations: out}
}

// String joins the violations with "; ".
func (r Result) String() string {
	if r.OK {
		return "ok"
	}
	return strings.Join(r.Violations, "; ")
}
