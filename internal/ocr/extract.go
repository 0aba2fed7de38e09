package ocr

import (
	"regexp"
	"strings"
)

// codePattern matches the first run of 5 consecutive alphanumeric characters,
// case-sensitive. Captcha codes are 5 characters of digits and letters.
var codePattern = regexp.MustCompile(`[A-Za-z0-9]{5}`)

// ExtractCode scans the backend's raw text reply for the first run of 5
// consecutive alphanumeric characters and returns it. If no such run exists,
// the trimmed raw text is returned unchanged.
//
// This is a best-effort heuristic, not a validated parse: when the fallback
// triggers, the returned value may not be exactly 5 characters and downstream
// consumers must tolerate that.
func ExtractCode(raw string) string {
	if match := codePattern.FindString(raw); match != "" {
		return match
	}
	return strings.TrimSpace(raw)
}
