package subtitle

import (
	"fmt"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/encoding/unicode"
)

// Decode reads subtitle bytes as UTF-8, dropping a leading byte order mark.
// Content is not validated as SRT/VTT.
func Decode(data []byte) (string, error) {
	out, err := unicode.UTF8BOM.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode subtitle: %w", err)
	}
	return string(out), nil
}

// detectSample is the number of captions DetectLanguage votes over.
const detectSample = 64

// DetectLanguage returns the ISO 639-1 code most of the first detectSample
// caption lines are written in, or "" when there are no captions or the
// detector is unsure.
func DetectLanguage(lines []Line) string {
	counts := make(map[string]int)
	seen := 0
	for _, l := range lines {
		if l.Kind != Caption {
			continue
		}
		if seen == detectSample {
			break
		}
		seen++
		info := whatlanggo.Detect(l.Text)
		if info.Lang == -1 {
			continue
		}
		counts[info.Lang.Iso6391()]++
	}

	var top string
	var topCount int
	for lang, n := range counts {
		if n > topCount || (n == topCount && lang < top) {
			top = lang
			topCount = n
		}
	}
	return top
}
