package subtitle

import (
	"regexp"
	"strings"
)

// TimingSeparator marks a cue timing line ("00:00:01,000 --> 00:00:02,000").
const TimingSeparator = "-->"

// Kind classifies a single subtitle line.
type Kind int

const (
	Blank Kind = iota
	Index
	Timing
	Caption
)

func (k Kind) String() string {
	switch k {
	case Blank:
		return "blank"
	case Index:
		return "index"
	case Timing:
		return "timing"
	case Caption:
		return "caption"
	default:
		return "unknown"
	}
}

// Line is one classified line of a subtitle document
type Line struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

// Document is decoded subtitle text together with its classified lines.
type Document struct {
	RawText string `json:"raw_text"`
	Lines   []Line `json:"lines"`
}

// NewDocument classifies raw text. Documents are replaced, never edited in place.
func NewDocument(raw string) *Document {
	return &Document{RawText: raw, Lines: Classify(raw)}
}

var (
	lineEndingReplacer = strings.NewReplacer("\r\n", "\n", "\r", "\n")
	excessBlankRe      = regexp.MustCompile(`\n{3,}`)
)

// NormalizeNewlines unifies CRLF and lone CR line endings to LF.
func NormalizeNewlines(text string) string {
	return lineEndingReplacer.Replace(text)
}

// Classify splits text into lines and classifies each one on its own content.
func Classify(raw string) []Line {
	parts := strings.Split(NormalizeNewlines(raw), "\n")
	lines := make([]Line, len(parts))
	for i, p := range parts {
		lines[i] = Line{Kind: ClassifyLine(p), Text: p}
	}
	return lines
}

// ClassifyLine is stateless: the result depends on the line content only.
func ClassifyLine(line string) Kind {
	switch {
	case strings.TrimSpace(line) == "":
		return Blank
	case strings.Contains(line, TimingSeparator):
		return Timing
	case isDigits(line):
		return Index
	default:
		return Caption
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Join reassembles lines with LF separators.
func Join(lines []Line) string {
	var sb strings.Builder
	for i, l := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(l.Text)
	}
	return sb.String()
}

// Format normalizes line endings, collapses runs of blank lines to a single
// blank line and trims the document. A non-empty result ends with exactly one
// newline. Format(Format(x)) == Format(x).
func Format(text string) string {
	out := NormalizeNewlines(text)
	out = excessBlankRe.ReplaceAllString(out, "\n\n")
	out = strings.TrimSpace(out)
	if out == "" {
		return ""
	}
	return out + "\n"
}
