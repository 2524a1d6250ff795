package dto

// QueryRequest names the prompts table to send and the results table to
// write.
type QueryRequest struct {
	InputPath  string `json:"input_path" validate:"required"`
	OutputPath string `json:"output_path" validate:"required,nefield=InputPath"`
	Limit      int    `json:"limit" validate:"gte=0"`
}

// QueryReport summarises a query stage run.
type QueryReport struct {
	Model            string `json:"model"`
	Rows             int    `json:"rows"`
	Requested        int    `json:"requested"`
	CacheHits        int    `json:"cache_hits"`
	Failures         int    `json:"failures"`
	Skipped          int    `json:"skipped"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}
