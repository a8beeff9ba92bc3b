package security

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Filter names understood by FilterValue.
const (
	FilterXSS       = "xss"
	FilterStripTags = "striptags"
	FilterTrim      = "trim"
	FilterLower     = "lower"
	FilterUpper     = "upper"
)

// maxSanitizePasses bounds the unescape/sanitize loop for nested entities.
const maxSanitizePasses = 4

// Filter transforms a value before it is validated or read.
type Filter string

// ParseFilters checks that every name is a known filter.
func ParseFilters(names ...string) ([]Filter, error) {
	filters := make([]Filter, 0, len(names))
	for _, name := range names {
		switch f := Filter(strings.TrimSpace(name)); f {
		case FilterXSS, FilterStripTags, FilterTrim, FilterLower, FilterUpper:
			filters = append(filters, f)
		default:
			return nil, fmt.Errorf("unknown filter %q", name)
		}
	}
	return filters, nil
}

// sanitizers holds the bluemonday policies. Policies are safe for
// concurrent use once built.
type sanitizers struct {
	ugc    *bluemonday.Policy
	strict *bluemonday.Policy
}

func newSanitizers() *sanitizers {
	return &sanitizers{
		ugc:    bluemonday.UGCPolicy(),
		strict: bluemonday.StrictPolicy(),
	}
}

func (s *sanitizers) apply(value string, filter Filter) string {
	switch filter {
	case FilterXSS:
		return sanitizeText(s.ugc, value)
	case FilterStripTags:
		return sanitizeText(s.strict, value)
	case FilterTrim:
		return strings.TrimSpace(value)
	case FilterLower:
		return strings.ToLower(value)
	case FilterUpper:
		return strings.ToUpper(value)
	default:
		return value
	}
}

// sanitizeText returns plain text with the markup policy p rejects
// removed. Entities are decoded and the value re-sanitized until stable,
// so encoded markup cannot survive by hiding behind an escape.
func sanitizeText(p *bluemonday.Policy, value string) string {
	if !strings.ContainsAny(value, "<>&") {
		return value
	}
	out := value
	for i := 0; i < maxSanitizePasses; i++ {
		next := html.UnescapeString(p.Sanitize(html.UnescapeString(out)))
		if next == out {
			break
		}
		out = next
	}
	return out
}
