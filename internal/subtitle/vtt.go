package subtitle

import (
	"regexp"
	"strings"
)

var srtTimestampRe = regexp.MustCompile(`(\d{2}:\d{2}:\d{2}),(\d{3})\s*-->\s*(\d{2}:\d{2}:\d{2}),(\d{3})`)

// ToVTT converts SRT text to WebVTT. Text that already carries a WEBVTT
// header is returned with normalized line endings only.
func ToVTT(text string) string {
	content := NormalizeNewlines(text)
	if strings.HasPrefix(strings.TrimPrefix(content, "\ufeff"), "WEBVTT") {
		return content
	}

	var sb strings.Builder
	sb.WriteString("WEBVTT\n\n")
	for i, l := range Classify(content) {
		if i > 0 {
			sb.WriteByte('\n')
		}
		line := l.Text
		// SRT uses a comma before milliseconds, WebVTT a dot
		if l.Kind == Timing && srtTimestampRe.MatchString(line) {
			line = srtTimestampRe.ReplaceAllString(line, "$1.$2 --> $3.$4")
		}
		sb.WriteString(line)
	}
	return sb.String()
}
