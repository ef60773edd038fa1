// factory.go - Aufbau der Backends aus Descriptor und Eingaben
// Hauptfunktionen: Build (eine Verzweigung pro Variante), Factory
package embedding

import (
	"log/slog"
	"slices"

	"github.com/ollama/embedforge/ml"
	"github.com/ollama/embedforge/types/errtypes"
)

// Build constructs the backend described by d for keys K and values V.
// Errors name the table.
func Build[K Key, V Value](d Descriptor, inputs *Inputs, p BuildParams) (Backend, error) {
	b, err := build[K, V](d, inputs, p)
	if err != nil {
		return nil, errtypes.WithTable(err, d.Top())
	}
	return b, nil
}

func build[K Key, V Value](d Descriptor, inputs *Inputs, p BuildParams) (Backend, error) {
	in, err := inputs.Lookup(d.Bottom())
	if err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	if err := checkInput[K](in, p); err != nil {
		return nil, err
	}
	if s, ok := d.sizing.(SlotSizes); ok && len(s.Sizes) != in.SlotNum {
		return nil, errtypes.Invalid("slot_size_array", "%d slot sizes for %d slots of input %q", len(s.Sizes), in.SlotNum, d.Bottom())
	}

	slog.Debug("building embedding", "embedding", d.Top(), "type", d.Kind(), "vec", d.VectorSize(), "key", ml.DTypeOf[K](), "value", ml.DTypeOf[V]())

	switch d.Kind() {
	case DistributedHash:
		return newDistributedHash[K, V](d, in, p)
	case LocalizedHash:
		return newLocalizedHash[K, V](d, in, p)
	case LocalizedOneHot:
		return newLocalizedOneHot[K, V](d, in, p)
	case Hybrid:
		return newHybrid[K, V](d, in, p)
	default:
		return nil, errtypes.Dispatch(d.Kind().String())
	}
}

// checkInput verifies that in has one train and one evaluate batch per
// device, on that device, with keys of type K and the batch geometry of p.
func checkInput[K Key](in SparseInput, p BuildParams) error {
	n := p.Resources.LocalDeviceCount()
	if len(in.Train) != n || len(in.Eval) != n {
		return errtypes.Invalid("bottom", "input has %d train and %d eval batches for %d devices", len(in.Train), len(in.Eval), n)
	}
	if in.SlotNum <= 0 || in.MaxFeatureNumPerSample < in.SlotNum {
		return errtypes.Invalid("bottom", "input has %d slots and %d features per sample", in.SlotNum, in.MaxFeatureNumPerSample)
	}

	dtype := ml.DTypeOf[K]()
	check := func(phase string, i int, sb SparseBatch, batch int) error {
		dev := p.Resources.LocalDevice(i).DeviceID
		for _, part := range []struct {
			name  string
			t     ml.Tensor
			elems int
		}{
			{"values", sb.Values, batch * in.MaxFeatureNumPerSample},
			{"row_offsets", sb.RowOffsets, batch*in.SlotNum + 1},
		} {
			switch {
			case part.t == nil:
				return errtypes.Invalid("bottom", "%s input %s on device %d is missing", phase, part.name, i)
			case part.t.Device() != dev:
				return errtypes.Invalid("bottom", "%s input %s is on %s, expected %s", phase, part.name, part.t.Device(), dev)
			case part.t.DType() != dtype:
				return errtypes.Invalid("bottom", "%s input %s has key type %s, expected %s", phase, part.name, part.t.DType(), dtype)
			case part.t.Elems() != part.elems:
				return errtypes.Invalid("bottom", "%s input %s on device %d has shape %v, expected %d elements", phase, part.name, i, part.t.Shape(), part.elems)
			}
		}
		return nil
	}

	for i := range n {
		if err := check("train", i, in.Train[i], p.BatchSize); err != nil {
			return err
		}
		if err := check("eval", i, in.Eval[i], p.BatchSizeEval); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Factory
// =============================================================================

// Factory builds tables one after another and keeps them in declaration
// order.
type Factory[K Key, V Value] struct {
	params   BuildParams
	backends []Backend
}

func NewFactory[K Key, V Value](p BuildParams) *Factory[K, V] {
	return &Factory[K, V]{params: p}
}

// Add builds d against inputs and appends the result.
func (f *Factory[K, V]) Add(d Descriptor, inputs *Inputs) (Backend, error) {
	b, err := Build[K, V](d, inputs, f.params)
	if err != nil {
		return nil, err
	}
	f.backends = append(f.backends, b)
	return b, nil
}

func (f *Factory[K, V]) Backends() []Backend {
	return slices.Clone(f.backends)
}

func (f *Factory[K, V]) Params() BuildParams {
	return f.params
}
