package dto

import (
	"time"

	"ai-chatbot-be/internal/entity"

	"github.com/google/uuid"
)

type RecoveryRunResponse struct {
	RunId      uuid.UUID                `json:"run_id"`
	StartedAt  time.Time                `json:"started_at"`
	FinishedAt time.Time                `json:"finished_at"`
	Checked    int                      `json:"checked"`
	Recovered  int                      `json:"recovered"`
	Failures   []entity.RecoveryFailure `json:"failures"`
}
