// params.go - Optimizer-Datensatz einer Tabelle
package optimizer

import "log/slog"

// Params is the optimizer record attached to one embedding table.
type Params struct {
	Kind            Kind            `json:"type"`
	UpdateType      UpdateType      `json:"update_type"`
	Hyperparameters Hyperparameters `json:"hyperparameters"`
	LearningRate    float32         `json:"learning_rate"`
	Scaler          float32         `json:"scaler"`

	// Initialized is set when the record came from a per-table block
	// rather than the model-wide default.
	Initialized bool `json:"initialized"`
}

// DefaultParams is the model-wide record used when a config has none.
func DefaultParams() Params {
	return Params{
		Kind:            Adam,
		UpdateType:      Global,
		Hyperparameters: AdamParams{Beta1: 0.9, Beta2: 0.999, Epsilon: 1e-7},
		LearningRate:    0.001,
		Scaler:          1,
	}
}

// StateSlots is the number of per-row state vectors p needs.
func (p Params) StateSlots() int {
	if p.Hyperparameters == nil {
		return 0
	}
	return StateSlots(p.Hyperparameters)
}

func (p Params) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", p.Kind.String()),
		slog.String("update", p.UpdateType.String()),
		slog.Any("lr", p.LearningRate),
		slog.Bool("per_table", p.Initialized),
	)
}
