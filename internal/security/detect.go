package security

import (
	"fmt"

	"github.com/corazawaf/coraza/v3"
)

const (
	sqliDirectives = `SecRuleEngine On
SecRule ARGS "@detectSQLi" "id:1001,phase:1,deny,status:403,msg:'SQL Injection detected',tag:'attack-sqli'"`

	xssDirectives = `SecRuleEngine On
SecRule ARGS "@detectXSS" "id:1002,phase:1,deny,status:403,msg:'XSS detected',tag:'attack-xss'"`
)

// detector runs a single-rule Coraza engine against one value.
type detector struct {
	engine coraza.WAF
}

func newDetector(directives string) (*detector, error) {
	engine, err := coraza.NewWAF(coraza.NewWAFConfig().WithDirectives(directives))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize detector: %w", err)
	}
	return &detector{engine: engine}, nil
}

// Detect reports whether value trips the detector's rule.
func (d *detector) Detect(value string) bool {
	if value == "" {
		return false
	}

	tx := d.engine.NewTransaction()
	defer func() {
		_ = tx.Close()
	}()

	tx.AddGetRequestArgument("value", value)
	return tx.ProcessRequestHeaders() != nil
}
