package stats

import "socialstats/domain/core"

// ModelMetrics are goodness-of-fit measures on one split
type ModelMetrics struct {
	R2                float64 `json:"r2"`
	RMSE              float64 `json:"rmse"`
	MAE               float64 `json:"mae"`
	ExplainedVariance float64 `json:"explained_variance"`
}

// ModelCandidate is one trained regression model with frozen hyperparameters
type ModelCandidate struct {
	Name            string             `json:"name"`
	Hyperparameters map[string]float64 `json:"hyperparameters"`
	Train           ModelMetrics       `json:"train"`
	Test            ModelMetrics       `json:"test"`
	CVScores        []float64          `json:"cv_scores"`
	CVMean          float64            `json:"cv_mean"`
	CVStd           float64            `json:"cv_std"`
	CVRMSE          float64            `json:"cv_rmse"`
	// FeatureImportance is nil when the model exposes neither coefficients nor importances
	FeatureImportance map[string]float64 `json:"feature_importance,omitempty"`
	ImportanceKind    string             `json:"importance_kind,omitempty"` // coefficient, impurity
	Overfitting       bool               `json:"overfitting"`
	// Error is set when the candidate failed; its metrics are then meaningless
	Error string `json:"error,omitempty"`
}

// Failed reports whether training the candidate failed
func (c ModelCandidate) Failed() bool { return c.Error != "" }

// ResidualDiagnostics describes the best candidate's test-set residuals
type ResidualDiagnostics struct {
	ResidualSummary
	BreuschPagan *DiagnosticTest `json:"breusch_pagan,omitempty"`
}

// FeatureScore ranks one feature independently of any model
type FeatureScore struct {
	Feature           string  `json:"feature"`
	FScore            float64 `json:"f_score"`
	FPValue           float64 `json:"f_p_value"`
	MutualInformation float64 `json:"mutual_information"`
	Combined          float64 `json:"combined"`
	Rank              int     `json:"rank"`
}

// TuningResult is the outcome of the bounded grid search on the best model family
type TuningResult struct {
	Model      string             `json:"model"`
	BestParams map[string]float64 `json:"best_params"`
	BestScore  float64            `json:"best_score"`
	Folds      int                `json:"folds"`
	Evaluated  int                `json:"evaluated"`
}

// BootstrapStability summarizes R² over bootstrap refits of the best model
type BootstrapStability struct {
	Rounds int     `json:"rounds"`
	MeanR2 float64 `json:"mean_r2"`
	StdR2  float64 `json:"std_r2"`
	Stable bool    `json:"stable"`
}

// Predictor is a fitted model frozen together with its feature order
type Predictor interface {
	Name() string
	Features() []string
	Predict(row []float64) float64
}

// ModelSelectionResult holds every candidate for one (target, features) pair
type ModelSelectionResult struct {
	ID             core.ID              `json:"id"`
	Target         string               `json:"target"`
	Features       []string             `json:"features"`
	Rows           int                  `json:"rows"`
	TrainRows      int                  `json:"train_rows"`
	TestRows       int                  `json:"test_rows"`
	Seed           int64                `json:"seed"`
	ScalerMode     string               `json:"scaler_mode"`
	Candidates     []ModelCandidate     `json:"candidates"`
	Best           string               `json:"best"`
	BestTestR2     float64              `json:"best_test_r2"`
	Residuals      *ResidualDiagnostics `json:"residuals,omitempty"`
	FeatureRanking []FeatureScore       `json:"feature_ranking"`
	TopFeatures    []string             `json:"top_features"`
	Tuning         *TuningResult        `json:"tuning,omitempty"`
	Stability      *BootstrapStability  `json:"stability,omitempty"`
	ComputedAt     core.Timestamp       `json:"computed_at"`

	// Model is the best candidate fitted on the training split
	Model Predictor `json:"-"`
}

// Candidate returns the named candidate
func (r *ModelSelectionResult) Candidate(name string) (ModelCandidate, bool) {
	for _, c := range r.Candidates {
		if c.Name == name {
			return c, true
		}
	}
	return ModelCandidate{}, false
}
