// Package sanitize bounds and cleans conversational input before it reaches
// the knowledge store or the model.
package sanitize

import (
	"regexp"
	"strings"

	"ai-chatbot-be/internal/entity"
)

const (
	MaxMessageLength = 4000 // runes
	MaxMessages      = 50
)

var (
	angleBrackets = regexp.MustCompile(`[<>]`)
	schemes       = regexp.MustCompile(`(?i)(javascript|data|vbscript)\s*:`)
	handlers      = regexp.MustCompile(`(?i)on\w+\s*=`)
)

// Sanitize trims, truncates and strips markup and script vectors. It is
// idempotent.
func Sanitize(raw string) string {
	s := strings.TrimSpace(raw)
	if runes := []rune(s); len(runes) > MaxMessageLength {
		s = string(runes[:MaxMessageLength])
	}
	// removing one match can expose another, so run to a fixed point
	for {
		next := angleBrackets.ReplaceAllString(s, "")
		next = schemes.ReplaceAllString(next, "")
		next = handlers.ReplaceAllString(next, "")
		if next == s {
			break
		}
		s = next
	}
	return strings.TrimSpace(s)
}

type ValidationResult struct {
	Valid    bool
	Messages []entity.ChatMessage
	Error    string
}

// ValidateMessages sanitizes every message and normalizes roles. Anything
// that is not "assistant" becomes "user".
func ValidateMessages(messages []entity.ChatMessage) ValidationResult {
	if len(messages) == 0 {
		return ValidationResult{Error: "messages must not be empty"}
	}
	if len(messages) > MaxMessages {
		return ValidationResult{Error: "too many messages in conversation"}
	}

	out := make([]entity.ChatMessage, 0, len(messages))
	for _, m := range messages {
		content := Sanitize(m.Content)
		if content == "" {
			return ValidationResult{Error: "message content must not be empty"}
		}
		role := entity.ChatRoleUser
		if m.Role == entity.ChatRoleAssistant {
			role = entity.ChatRoleAssistant
		}
		out = append(out, entity.ChatMessage{Role: role, Content: content})
	}
	return ValidationResult{Valid: true, Messages: out}
}
