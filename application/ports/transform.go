package ports

import "context"

// TransformResult is the outcome of a remote text transform
type TransformResult struct {
	Transformed string
	Metadata    map[string]interface{}
}

// SentenceAnalysis is the per-sentence outcome of remote analysis
type SentenceAnalysis struct {
	Sentence string  `json:"sentence"`
	Stance   string  `json:"stance"`
	Entropy  float64 `json:"entropy"`
	Score    float64 `json:"score"`
}

// ProgressFunc reports long-running analysis progress
type ProgressFunc func(done, total int)

// TransformService is the boundary to the remote transform backend. The
// implementations behind it (LLM prompting, model selection) live outside this
// process; the core only sees a call that may suspend and may be cancelled
// through the context.
type TransformService interface {
	Humanize(ctx context.Context, text string, opts map[string]interface{}) (*TransformResult, error)
	TransformPersona(ctx context.Context, text, persona string, opts map[string]interface{}) (*TransformResult, error)
	TransformStyle(ctx context.Context, text, style string, opts map[string]interface{}) (*TransformResult, error)
	AnalyzeSentences(ctx context.Context, text string, progress ProgressFunc) ([]SentenceAnalysis, error)
}
