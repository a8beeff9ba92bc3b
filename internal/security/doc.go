// Package security validates and sanitizes request input before a route's
// handler sees it.
//
// A Guard is the single entry point used by the router:
//
//	guard, err := security.NewGuard(cfg.Spec.Security, logger)
//	res := guard.CheckValue(value, security.MustParseRules("slug", "maxLength:64"))
//	if !res.OK {
//	    // res.Violations lists every failed rule
//	}
//
// Rules are written as "name" or "name:argument". The SQL injection and
// XSS detectors are backed by the Coraza WAF engine. Filters sanitize
// values with bluemonday. Uploaded files are checked by sniffed MIME type
// and images are re-encoded before use. CSRF tokens are HMAC signed and
// carry their issue time.
package security
