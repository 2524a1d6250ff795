package dto

// AnalysisRequest names the results table to analyse and where the processed
// table goes.
type AnalysisRequest struct {
	InputPath  string         `json:"input_path" validate:"required"`
	OutputPath string         `json:"output_path" validate:"required,nefield=InputPath"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// AnalysisSummary reports the statistics of a single analysed table.
type AnalysisSummary struct {
	RunID         string         `json:"run_id,omitempty"`
	Variant       string         `json:"variant"`
	InputPath     string         `json:"input_path"`
	OutputPath    string         `json:"output_path"`
	Items         int            `json:"items"`
	Excluded      int            `json:"excluded"`
	Parsed        int            `json:"parsed"`
	Unparsed      int            `json:"unparsed"`
	Missing       int            `json:"missing"`
	Mean          float64        `json:"mean"`
	CILower       float64        `json:"ci_lower"`
	CIUpper       float64        `json:"ci_upper"`
	BaselineMean  float64        `json:"baseline_mean"`
	BaselineLower float64        `json:"baseline_ci_lower"`
	BaselineUpper float64        `json:"baseline_ci_upper"`
	PValue        float64        `json:"p_value"`
	Seed          uint64         `json:"seed"`
	Resamples     int            `json:"resamples"`
	Trials        int            `json:"trials"`
	ScoreCounts   map[string]int `json:"score_counts"`
	GuessCounts   map[string]int `json:"guess_counts"`
	RuleCounts    map[string]int `json:"rule_counts"`
}

// TableSummary is one row of a cross-table comparison.
type TableSummary struct {
	Label    string  `json:"label"`
	Path     string  `json:"path"`
	Items    int     `json:"items"`
	Unparsed int     `json:"unparsed"`
	Mean     float64 `json:"mean"`
	CILower  float64 `json:"ci_lower"`
	CIUpper  float64 `json:"ci_upper"`
}

// AnalysisRunResponse is the listing view of a persisted run.
type AnalysisRunResponse struct {
	ID            string  `json:"id"`
	Variant       string  `json:"variant"`
	SourcePath    string  `json:"source_path"`
	ParsedCount   int     `json:"parsed_count"`
	UnparsedCount int     `json:"unparsed_count"`
	Mean          float64 `json:"mean"`
	CILower       float64 `json:"ci_lower"`
	CIUpper       float64 `json:"ci_upper"`
	PValue        float64 `json:"p_value"`
	CreatedAt     string  `json:"created_at"`
}
