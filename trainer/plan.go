// plan.go - Serialisierbare Zusammenfassung eines kompilierten Modells
// Wird vom CLI als Tabelle/JSON ausgegeben und vom Server ausgeliefert.
package trainer

import (
	"context"
	"strings"

	"github.com/ollama/embedforge/embedding"
	"github.com/ollama/embedforge/ml"
	"github.com/ollama/embedforge/optimizer"
)

// Plan describes the tables of a compiled model and where their outputs
// live.
type Plan struct {
	ID        string `json:"id"`
	KeyType   string `json:"key_type"`
	ValueType string `json:"value_type"`

	BatchSize     int `json:"batchsize"`
	BatchSizeEval int `json:"batchsize_eval"`

	Devices []ml.DeviceInfo `json:"devices"`
	Tables  []TablePlan     `json:"tables"`

	// Train and Eval hold one entry list per device
	Train [][]EntryPlan `json:"train"`
	Eval  [][]EntryPlan `json:"eval"`

	Memory ml.BackendMemory `json:"memory"`
}

type TablePlan struct {
	Name       string               `json:"name"`
	Kind       embedding.Kind       `json:"type"`
	Bottom     string               `json:"bottom"`
	VectorSize int                  `json:"embedding_vec_size"`
	Combiner   string               `json:"combiner"`
	Sizing     string               `json:"sizing"`
	Optimizer  optimizer.Kind       `json:"optimizer"`
	Update     optimizer.UpdateType `json:"update_type"`
	Advisories []string             `json:"advisories,omitempty"`
}

// EntryPlan is one registry entry.
type EntryPlan struct {
	Name   string `json:"name"`
	Device string `json:"device"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Bytes  uint64 `json:"bytes"`
}

// Plan summarises the compiled model. Registries are read concurrently,
// one goroutine per device.
func (m *Model[K, V]) Plan(ctx context.Context) (Plan, error) {
	if !m.compiled {
		return Plan{}, ErrNotCompiled
	}

	p := Plan{
		ID:            m.ID.String(),
		KeyType:       ml.DTypeOf[K]().String(),
		ValueType:     ml.DTypeOf[V]().String(),
		BatchSize:     m.opts.BatchSize,
		BatchSizeEval: m.opts.BatchSizeEval,
		Devices:       ml.Devices(m.res),
		Memory:        m.Memory(),
	}

	backends := m.factory.Backends()
	for i, d := range m.descriptors {
		opt := backends[i].Optimizer()
		p.Tables = append(p.Tables, TablePlan{
			Name:       d.Top(),
			Kind:       d.Kind(),
			Bottom:     d.Bottom(),
			VectorSize: d.VectorSize(),
			Combiner:   d.Combiner().String(),
			Sizing:     d.Sizing().String(),
			Optimizer:  opt.Kind,
			Update:     opt.UpdateType,
			Advisories: d.Advisories(),
		})
	}

	var err error
	if p.Train, err = entries(ctx, m.train); err != nil {
		return Plan{}, err
	}
	if p.Eval, err = entries(ctx, m.eval); err != nil {
		return Plan{}, err
	}
	return p, nil
}

func entries(ctx context.Context, r *embedding.Registry) ([][]EntryPlan, error) {
	out := make([][]EntryPlan, r.Len())
	err := r.ForEachDevice(ctx, 0, func(_ context.Context, i int, es []embedding.TensorEntry) error {
		list := make([]EntryPlan, 0, len(es))
		for _, e := range es {
			list = append(list, EntryPlan{
				Name:   e.Name,
				Device: e.Tensor.Device().String(),
				DType:  e.Tensor.DType().String(),
				Shape:  e.Tensor.Shape(),
				Bytes:  e.Tensor.Size(),
			})
		}
		out[i] = list
		return nil
	})
	return out, err
}

// Table returns the table named name.
func (p Plan) Table(name string) (TablePlan, bool) {
	for _, t := range p.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TablePlan{}, false
}

// Phase returns the train or eval entries; the name is case-insensitive.
func (p Plan) Phase(name string) ([][]EntryPlan, bool) {
	switch strings.ToLower(name) {
	case "", "train":
		return p.Train, true
	case "eval", "evaluate":
		return p.Eval, true
	}
	return nil, false
}
