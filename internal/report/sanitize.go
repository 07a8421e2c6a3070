package report

import (
	"net/url"
	"regexp"
	"strings"
	"sync"
)

var (
	reBearer    = regexp.MustCompile(`(?i)\b(bearer\s+)([a-z0-9\-\._~\+\/]+=*)`)
	reApiKeyKV  = regexp.MustCompile(`(?i)\b(api[_-]?key|access[_-]?token|token|secret|authorization)\s*[:=]\s*([^\s,;]+)`)
	reLongToken = regexp.MustCompile(`\b[a-zA-Z0-9_\-]{32,}\b`)

	customMu  sync.RWMutex
	customRes []*regexp.Regexp
)

// SetRedactionPatterns installs extra redaction regexes from the policy file.
// Invalid patterns are skipped; config validation reports them separately.
func SetRedactionPatterns(patterns []string) {
	var res []*regexp.Regexp
	for _, p := range patterns {
		if re, err := regexp.Compile(p); err == nil {
			res = append(res, re)
		}
	}
	customMu.Lock()
	customRes = res
	customMu.Unlock()
}

// SanitizeSiteReport scrubs token-looking strings from everything that came
// off the wire: URLs, locations, and evidence values.
func SanitizeSiteReport(r SiteReport) SiteReport {
	r.URL = SanitizeURL(r.URL)
	r.Title = SanitizeText(r.Title)
	for i, d := range r.Detections {
		d.URL = SanitizeURL(d.URL)
		d.Location = SanitizeText(d.Location)
		d.Evidence = sanitizeEvidence(d.Evidence)
		r.Detections[i] = d
	}
	return r
}

func sanitizeEvidence(ev map[string]any) map[string]any {
	if ev == nil {
		return nil
	}
	out := make(map[string]any, len(ev))
	for k, v := range ev {
		switch val := v.(type) {
		case string:
			out[k] = SanitizeText(val)
		case []string:
			clean := make([]string, len(val))
			for i, s := range val {
				clean[i] = SanitizeText(s)
			}
			out[k] = clean
		default:
			out[k] = v
		}
	}
	return out
}

func SanitizeText(s string) string {
	out := s
	out = reBearer.ReplaceAllString(out, "${1}<redacted>")
	out = reApiKeyKV.ReplaceAllString(out, "${1}=<redacted>")
	out = reLongToken.ReplaceAllStringFunc(out, func(tok string) string {
		return tok[:4] + "...<redacted>..." + tok[len(tok)-4:]
	})

	customMu.RLock()
	defer customMu.RUnlock()
	for _, re := range customRes {
		out = re.ReplaceAllString(out, "<redacted>")
	}
	return out
}

func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return SanitizeText(raw)
	}

	q := u.Query()
	for k := range q {
		kl := strings.ToLower(k)
		if strings.Contains(kl, "token") ||
			strings.Contains(kl, "key") ||
			strings.Contains(kl, "secret") ||
			strings.Contains(kl, "auth") ||
			strings.Contains(kl, "session") ||
			strings.Contains(kl, "pass") {
			q.Set(k, "<redacted>")
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
