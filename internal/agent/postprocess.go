package agent

import (
	"regexp"
	"strings"
)

// Post-processing is cosmetic: slips here degrade gracefully and never fail
// the request.

var excessBlankLines = regexp.MustCompile(`\n{3,}`)

// normalizeResponse collapses runs of blank lines, trims the edges, and
// closes an unterminated code fence.
func normalizeResponse(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = excessBlankLines.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)

	if strings.Count(text, "```")%2 == 1 {
		text += "\n```"
	}
	return text
}

// beginnerTip is appended for beginner-expertise users by the chat agent.
const beginnerTip = "Tip: if any term above is unfamiliar, ask me to explain it - happy to break it down further."

// appendBeginnerTip adds the tip once; responses that already carry it are
// left alone.
func appendBeginnerTip(text string) string {
	if strings.Contains(text, beginnerTip) {
		return text
	}
	return text + "\n\n" + beginnerTip
}
