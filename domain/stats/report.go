package stats

import "socialstats/domain/core"

// Result is the sealed set of values the aggregator accepts
type Result interface {
	analysisResult()
}

func (*TestResult) analysisResult()           {}
func (*ModelSelectionResult) analysisResult() {}
func (*ClusterResult) analysisResult()        {}
func (Failure) analysisResult()               {}

// Failure records one operation that failed inside a batch run
type Failure struct {
	Operation string `json:"operation"`
	Target    string `json:"target"`
	Error     string `json:"error"`
}

// DataSummary describes the working dataset
type DataSummary struct {
	Rows            int            `json:"rows"`
	Columns         int            `json:"columns"`
	TotalCells      int            `json:"total_cells"`
	MissingCells    int            `json:"missing_cells"`
	MissingByColumn map[string]int `json:"missing_by_column"`
	QualityScore    float64        `json:"quality_score"`
	Fingerprint     core.Hash      `json:"fingerprint"`
}

// AnalysisReport is a pure view over the results of one session
type AnalysisReport struct {
	ID                core.ReportID          `json:"id"`
	GeneratedAt       core.Timestamp         `json:"generated_at"`
	Data              DataSummary            `json:"data"`
	TotalAnalyses     int                    `json:"total_analyses"`
	AnalysesPerformed []string               `json:"analyses_performed"`
	Tests             []TestResult           `json:"tests,omitempty"`
	Models            []ModelSelectionResult `json:"models,omitempty"`
	Clusters          []ClusterResult        `json:"clusters,omitempty"`
	Failures          []Failure              `json:"failures,omitempty"`
	Recommendations   []string               `json:"recommendations"`
	Insights          []string               `json:"insights"`
}
