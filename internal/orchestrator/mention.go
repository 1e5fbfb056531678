package orchestrator

import (
	"regexp"
	"strings"

	"github.com/chiziuwaga/fixitforme-contractor-sub002/pkg/models"
)

// mentionPattern matches "@name" for a known agent, preceded by the start of
// the text or a non-word character, and followed by a word boundary.
var mentionPattern = regexp.MustCompile(`(?i)(?:^|[^a-z0-9_])(@(lexi|alex|rex))\b`)

// Mention is an explicit agent address found in a message.
type Mention struct {
	// Agent is the mentioned agent.
	Agent models.AgentID
	// CleanMessage is the message with the mention removed.
	CleanMessage string
}

// ParseMention finds the first "@agent" token in text.
// Only the first mention is consumed; any later mentions stay in CleanMessage.
func ParseMention(text string) (Mention, bool) {
	loc := mentionPattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return Mention{}, false
	}

	// loc[2:4] spans "@name", loc[4:6] spans "name".
	start, end := loc[2], loc[3]
	agent := models.AgentID(strings.ToLower(text[loc[4]:loc[5]]))

	before := strings.TrimRight(text[:start], " \t\r\n")
	after := strings.TrimLeft(text[end:], " \t\r\n")

	clean := before
	if before != "" && after != "" {
		clean += " "
	}
	clean += after

	return Mention{Agent: agent, CleanMessage: strings.TrimSpace(clean)}, true
}
