package execution

import "unicode/utf8"

// MaxReportPayload is the largest payload, in bytes, that goes out on a report line.
// The decoder does not bound payload length, so every report is cut to this size.
const MaxReportPayload = 150

// TruncatePayload cuts s to at most limit bytes without splitting a UTF-8
// sequence. It reports whether anything was removed. A non-positive limit
// disables truncation.
func TruncatePayload(s string, limit int) (string, bool) {
	if limit <= 0 || len(s) <= limit {
		return s, false
	}

	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut], true
}
