package security

import (
	"fmt"
	"time"

	"github.com/vyrodovalexey/avactions/internal/config"
	"github.com/vyrodovalexey/avactions/internal/observability"
)

// Guard validates values, files and CSRF tokens for the router.
type Guard struct {
	logger     observability.Logger
	sqli       *detector
	xss        *detector
	sanitizers *sanitizers
	csrf       *csrfProtector
	upload     config.UploadConfig
	blockXSS   bool
	metrics    *Metrics
}

// NewGuard builds a Guard from cfg. A nil cfg uses the defaults.
func NewGuard(cfg *config.SecurityConfig, logger observability.Logger) (*Guard, error) {
	if logger == nil {
		logger = observability.NopLogger()
	}
	if cfg == nil {
		cfg = &config.SecurityConfig{}
	}

	csrfCfg := config.CSRFConfig{
		FieldName:  config.DefaultCSRFFieldName,
		HeaderName: config.DefaultCSRFHeaderName,
		TokenTTL:   config.Duration(config.DefaultCSRFTokenTTL),
	}
	if cfg.CSRF != nil {
		csrfCfg = *cfg.CSRF
		if csrfCfg.FieldName == "" {
			csrfCfg.FieldName = config.DefaultCSRFFieldName
		}
		if csrfCfg.HeaderName == "" {
			csrfCfg.HeaderName = config.DefaultCSRFHeaderName
		}
	}

	sqli, err := newDetector(sqliDirectives)
	if err != nil {
		return nil, fmt.Errorf("sqli detector: %w", err)
	}
	xss, err := newDetector(xssDirectives)
	if err != nil {
		return nil, fmt.Errorf("xss detector: %w", err)
	}

	protector, err := newCSRFProtector(
		csrfCfg.Secret,
		csrfCfg.FieldName,
		csrfCfg.HeaderName,
		csrfCfg.TokenTTL.Duration(),
		csrfCfg.AllowedOrigins,
	)
	if err != nil {
		return nil, fmt.Errorf("csrf secret: %w", err)
	}
	if csrfCfg.Secret == "" {
		logger.Warn("no csrf secret configured, tokens will not survive a restart")
	}

	g := &Guard{
		logger:     logger,
		sqli:       sqli,
		xss:        xss,
		sanitizers: newSanitizers(),
		csrf:       protector,
		blockXSS:   cfg.BlockXSS,
		metrics:    GetSecurityMetrics(),
	}
	if cfg.Upload != nil {
		g.upload = *cfg.Upload
	}
	return g, nil
}

// CheckValue runs rules against value and collects every violation.
func (g *Guard) CheckValue(value string, rules []Rule) Result {
	var violations []string

	for _, r := range rules {
		var (
			msg string
			ok  bool
		)
		switch r.Name {
		case RuleSQLi:
			ok = !g.sqli.Detect(value)
			msg = "possible SQL injection"
		case RuleXSS:
			ok = !g.xss.Detect(value)
			msg = "possible script injection"
		default:
			msg, ok = r.check(value)
		}
		if !ok {
			violations = append(violations, msg)
			g.metrics.RecordViolation(r.Name)
		}
	}

	if g.blockXSS && !HasRule(rules, RuleXSS) && g.xss.Detect(value) {
		violations = append(violations, "possible script injection")
		g.metrics.RecordViolation(RuleXSS)
	}

	if len(violations) > 0 {
		g.metrics.RecordCheck(kindValue, false)
		return Fail(violations...)
	}
	g.metrics.RecordCheck(kindValue, true)
	return Pass()
}

// CheckFile validates an upload. Size and type limits left unset in rules
// fall back to the configured upload defaults.
func (g *Guard) CheckFile(f *UploadedFile, rules FileRules) Result {
	if rules.MaxSize == 0 {
		rules.MaxSize = g.upload.MaxSize
	}
	if len(rules.Extensions) == 0 {
		rules.Extensions = g.upload.AllowedExtensions
	}
	if len(rules.MimeTypes) == 0 {
		rules.MimeTypes = g.upload.AllowedMimeTypes
	}

	res := checkFile(f, rules)
	g.metrics.RecordCheck(kindFile, res.OK)
	if !res.OK {
		g.metrics.RecordViolation("file")
	}
	return res
}

// FilterValue applies filters in order.
func (g *Guard) FilterValue(value string, filters []Filter) string {
	for _, f := range filters {
		value = g.sanitizers.apply(value, f)
	}
	return value
}

// CheckRequestCsrf verifies the origin and the token of a protected request.
func (g *Guard) CheckRequestCsrf(req CSRFRequest) bool {
	err := g.csrf.verify(req)
	g.metrics.RecordCheck(kindCSRF, err == nil)
	if err != nil {
		g.metrics.RecordViolation("csrf")
		g.logger.Debug("csrf check failed", observability.Error(err))
		return false
	}
	return true
}

// IssueCSRFToken returns a fresh signed token.
func (g *Guard) IssueCSRFToken() string {
	return g.csrf.issue()
}

// CSRFFieldName is the parameter name tokens are expected under.
func (g *Guard) CSRFFieldName() string {
	return g.csrf.fieldName
}

// CSRFTokenTTL is how long an issued token stays valid.
func (g *Guard) CSRFTokenTTL() time.Duration {
	return g.csrf.ttl
}
