package og

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// Average adult reading speed, words per minute.
const wordsPerMinute = 200

// estimateReadingTime derives a human-readable reading time from the
// page HTML. The markup is converted to markdown first so scripts,
// styles, and tag soup don't inflate the word count. Returns "" when
// no usable text is found.
func estimateReadingTime(pageHTML string) string {
	if pageHTML == "" {
		return ""
	}

	text, err := htmltomarkdown.ConvertString(pageHTML)
	if err != nil {
		return ""
	}

	words := len(strings.Fields(text))
	if words == 0 {
		return ""
	}

	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	return fmt.Sprintf("%d min read", minutes)
}
