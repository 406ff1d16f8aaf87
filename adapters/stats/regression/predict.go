package regression

import (
	"sort"

	"socialstats/domain/core"
	"socialstats/domain/stats"
	"socialstats/internal/errors"
)

// fittedModel is the best candidate frozen with its feature order. In full
// scaler mode it carries the scaler that was fitted before the split.
type fittedModel struct {
	name     string
	features []string
	scaler   *Scaler
	model    Regressor
}

func (f *fittedModel) Name() string { return f.name }

func (f *fittedModel) Features() []string {
	return append([]string(nil), f.features...)
}

func (f *fittedModel) Predict(row []float64) float64 {
	if f.scaler != nil {
		row = f.scaler.TransformRow(row)
	}
	return f.model.Predict(row)
}

// PredictOne predicts a single row keyed by feature name. values must hold
// exactly the features the model was trained on.
func PredictOne(model stats.Predictor, values map[string]float64) (float64, error) {
	if model == nil {
		return 0, errors.WithCode(errors.CodeInvalidInput, core.ErrModelNotFitted)
	}
	features := model.Features()
	known := make(map[string]bool, len(features))
	var missing, extra []string
	for _, f := range features {
		known[f] = true
		if _, ok := values[f]; !ok {
			missing = append(missing, f)
		}
	}
	for k := range values {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		sort.Strings(missing)
		sort.Strings(extra)
		return 0, errors.WithCode(errors.CodeInvalidInput, core.NewFeatureMismatchError(missing, extra))
	}

	row := make([]float64, len(features))
	for j, f := range features {
		row[j] = values[f]
	}
	return model.Predict(row), nil
}
