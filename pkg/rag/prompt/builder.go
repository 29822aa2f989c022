// Package prompt assembles the system prompt of a widget conversation.
package prompt

import (
	"fmt"
	"strings"

	"ai-chatbot-be/internal/constant"
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/pkg/llm"
)

// GroundedBuilder builds a prompt grounded on retrieved knowledge chunks.
type GroundedBuilder struct {
	sources []*entity.ScoredChunk
	demo    bool
}

func NewGroundedBuilder(sources []*entity.ScoredChunk, demo bool) *GroundedBuilder {
	return &GroundedBuilder{
		sources: sources,
		demo:    demo,
	}
}

// Messages prepends the system prompt to the conversation.
func (b *GroundedBuilder) Messages(history []entity.ChatMessage) []llm.Message {
	out := make([]llm.Message, 0, len(history)+1)
	out = append(out, llm.Message{Role: constant.ChatMessageRoleSystem, Content: b.Build()})
	for _, m := range history {
		out = append(out, llm.Message{Role: string(m.Role), Content: m.Content})
	}
	return out
}

func (b *GroundedBuilder) Build() string {
	var prompt strings.Builder

	b.writeTask(&prompt)
	b.writeReferenceMaterial(&prompt)
	b.writeGuidelines(&prompt)

	return prompt.String()
}

func (b *GroundedBuilder) writeTask(prompt *strings.Builder) {
	prompt.WriteString("<task>\n")
	if b.demo {
		prompt.WriteString(constant.ChatTaskPromptDemo)
	} else {
		prompt.WriteString(constant.ChatTaskPromptWidget)
	}
	prompt.WriteString("</task>\n\n")
}

func (b *GroundedBuilder) writeReferenceMaterial(prompt *strings.Builder) {
	if len(b.sources) == 0 {
		return
	}

	prompt.WriteString("<reference_material>\n")
	for i, s := range b.sources {
		fmt.Fprintf(prompt, "[%d] %s\n%s\n\n", i+1, s.Filename, s.Chunk.Content)
	}
	prompt.WriteString("</reference_material>\n\n")
}

func (b *GroundedBuilder) writeGuidelines(prompt *strings.Builder) {
	prompt.WriteString("<guidelines>\n")
	prompt.WriteString(constant.ChatGuidelinesPrompt)
	prompt.WriteString("</guidelines>\n")
}
