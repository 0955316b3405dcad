package artifacts

import (
	"regexp"

	"go.uber.org/zap"
)

// RedactedMarker is the literal substituted for matched secrets. Redaction
// happens before bytes ever reach disk and is irreversible; no original is
// retained anywhere in this module.
const RedactedMarker = "[REDACTED]"

// DefaultSecretPatterns targets common credential shapes: API-key-like
// assignments, password fields, bearer tokens, and bare sk- keys. A
// pattern's first capture group, when present, is preserved so structured
// payloads (JSON key/value pairs) stay parseable after redaction.
func DefaultSecretPatterns() []string {
	return []string{
		`(?i)(api[_-]?key["']?\s*[:=]\s*["']?)[A-Za-z0-9_\-]{8,}`,
		`(?i)("?password"?\s*[:=]\s*"?)[^"\s,}]+`,
		`(?i)("?secret[_-]?[a-z]*"?\s*[:=]\s*"?)[^"\s,}]+`,
		`(?i)("?token"?\s*[:=]\s*"?)[A-Za-z0-9._\-]{8,}`,
		`(?i)(bearer\s+)[A-Za-z0-9._\-]+`,
		`sk-[A-Za-z0-9]{16,}`,
	}
}

// Redactor applies an ordered pattern list to content before storage.
type Redactor struct {
	patterns []*regexp.Regexp
	logger   *zap.Logger
}

// NewRedactor compiles patterns best-effort: a malformed pattern is logged
// and skipped, and the remaining patterns still apply.
func NewRedactor(patterns []string, logger *zap.Logger) *Redactor {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Redactor{logger: logger.With(zap.String("component", "redactor"))}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			r.logger.Warn("skipping malformed secret pattern",
				zap.String("pattern", p),
				zap.Error(err))
			continue
		}
		r.patterns = append(r.patterns, re)
	}
	return r
}

// Redact substitutes every match with RedactedMarker, preserving a
// pattern's first capture group as prefix when it has one. Returns the
// redacted bytes and the number of substitutions made.
func (r *Redactor) Redact(data []byte) ([]byte, int) {
	if r == nil || len(r.patterns) == 0 {
		return data, 0
	}
	total := 0
	for _, re := range r.patterns {
		matches := len(re.FindAllIndex(data, -1))
		if matches == 0 {
			continue
		}
		total += matches
		replacement := RedactedMarker
		if re.NumSubexp() > 0 {
			replacement = "${1}" + RedactedMarker
		}
		data = re.ReplaceAll(data, []byte(replacement))
	}
	return data, total
}
