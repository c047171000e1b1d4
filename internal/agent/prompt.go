package agent

import (
	"fmt"
	"strings"

	"codedesk/internal/types"
)

// promptBuilder assembles the layered prompt every agent sends: role
// preamble first (as the system message), then context summaries, a bounded
// conversation recap, and finally the user input. Unknown context keys are
// never interpreted here - only the well-known ones below are summarized.
type promptBuilder struct {
	sections []string
}

// Well-known context keys the prompt layer summarizes. Everything else in
// the bag is opaque pass-through.
const (
	ctxKeyProjectInfo      = "projectInfo"
	ctxKeyCurrentFile      = "currentFile"
	ctxKeyChatContext      = "chatContext"
	ctxKeyCodeContext      = "codeContext"
	ctxKeyReasoningContext = "reasoningContext"
	ctxKeySemantic         = "semanticContext"
	ctxKeyOngoingTasks     = "ongoingTasks"
	ctxKeyUserID           = "userId"
	ctxKeyConversationID   = "conversationId"
	ctxKeyProfile          = "userProfile"
)

func newPromptBuilder() *promptBuilder {
	return &promptBuilder{}
}

func (b *promptBuilder) addSection(label, content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}
	if label == "" {
		b.sections = append(b.sections, content)
		return
	}
	b.sections = append(b.sections, label+":\n"+content)
}

// addContext summarizes the well-known keys present in the bag.
func (b *promptBuilder) addContext(ctx types.Context) {
	b.addSection("Project", ctx.GetString(ctxKeyProjectInfo))
	b.addSection("Current file", ctx.GetString(ctxKeyCurrentFile))
	b.addSection("Prior interpretation", ctx.GetString(ctxKeyChatContext))
	b.addSection("Prior code output", ctx.GetString(ctxKeyCodeContext))
	b.addSection("Prior analysis", ctx.GetString(ctxKeyReasoningContext))
	b.addSection("Conversation themes", ctx.GetString(ctxKeySemantic))
	b.addSection("Ongoing tasks", ctx.GetString(ctxKeyOngoingTasks))
}

// addConversation appends a compact recap of the trailing turns.
func (b *promptBuilder) addConversation(turns []types.Turn) {
	if len(turns) == 0 {
		return
	}
	var sb strings.Builder
	for _, t := range turns {
		content := t.Content
		if len(content) > 400 {
			content = content[:400] + "..."
		}
		fmt.Fprintf(&sb, "%s: %s\n", t.Role, content)
	}
	b.addSection("Recent conversation", sb.String())
}

func (b *promptBuilder) addInput(input string) {
	b.addSection("Request", input)
}

// build joins the layers with blank lines.
func (b *promptBuilder) build() string {
	return strings.Join(b.sections, "\n\n")
}
