package dto

import "ai-chatbot-be/internal/entity"

type ChatRequest struct {
	Messages []entity.ChatMessage `json:"messages"`
	// SessionId only matters for the demo bot. Its transcript is kept server
	// side, so demo clients send only the new messages.
	SessionId string `json:"session_id" validate:"omitempty,max=64"`
}

type ChatSource struct {
	Filename   string  `json:"filename"`
	Similarity float64 `json:"similarity"`
}

type ChatUsage struct {
	Current int64 `json:"current"`
	Limit   int64 `json:"limit"`
}

type ChatResponse struct {
	Reply     string       `json:"reply"`
	IsDemo    bool         `json:"is_demo"`
	SessionId string       `json:"session_id,omitempty"`
	Sources   []ChatSource `json:"sources"`
	Usage     *ChatUsage   `json:"usage,omitempty"`
}
