package dto

type UsageLimit struct {
	Used  int64 `json:"used"`
	Limit int64 `json:"limit"` // -1 = unlimited
}

type UsageResponse struct {
	Month            string     `json:"month"`
	Tier             string     `json:"tier"`
	Messages         UsageLimit `json:"messages"`
	Documents        UsageLimit `json:"documents"`
	MonthlyUploads   int64      `json:"monthly_uploads"`
	TotalStoredWords int64      `json:"total_stored_words"`
}
