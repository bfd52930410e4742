package domain

// ProcessingMetadata describes how a draft was produced.
// AIModelUsed is "fallback" when the degraded path ran.
type ProcessingMetadata struct {
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
	AIModelUsed           string  `json:"ai_model_used"`
	CategoryUsed          string  `json:"category_used"`
	TextLength            int     `json:"text_length"`
	WordCount             int     `json:"word_count"`
}

// NoteDraft is the structured output of the processing adapter,
// ready to be written into the vault.
type NoteDraft struct {
	Title      string         `json:"title"`
	Content    string         `json:"content"`
	Tags       []string       `json:"tags"`
	Category   Category       `json:"category"`
	Metadata   map[string]any `json:"metadata"`
	Processing ProcessingMetadata
	// RawResponse keeps the unparsed model output for auditing
	RawResponse string
}
