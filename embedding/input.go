// input.go - Sparse-Eingaben pro Tabelle
// Eingaben werden ueber den bottom-Namen der Tabelle nachgeschlagen.
package embedding

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"github.com/x448/float16"

	"github.com/ollama/embedforge/ml"
	"github.com/ollama/embedforge/types/errtypes"
)

// Key is the set of sparse key types tables can be built for.
type Key interface {
	int64 | uint32
}

// Value is the set of embedding value types tables can be built for.
type Value interface {
	float32 | float16.Float16
}

// SparseBatch is one device's bucketed index batch in CSR form: Values
// holds the keys and RowOffsets has one entry per (sample, slot) plus one.
type SparseBatch struct {
	Values     ml.Tensor
	RowOffsets ml.Tensor
}

// SparseInput carries the train and evaluate batches of one input source,
// one SparseBatch per local device.
type SparseInput struct {
	Train []SparseBatch
	Eval  []SparseBatch

	SlotNum                int
	MaxFeatureNumPerSample int
}

// AllocSparseInput allocates per-device batches for keys of type K.
// Every device receives the whole global batch; backends pick the keys
// they own.
func AllocSparseInput[K Key](r ml.ResourceManager, slotNum, maxFeatures, batch, batchEval int) (SparseInput, error) {
	in := SparseInput{SlotNum: slotNum, MaxFeatureNumPerSample: maxFeatures}
	dtype := ml.DTypeOf[K]()

	alloc := func(i, n int) (SparseBatch, error) {
		a := r.Allocator(i)
		values, err := a.Alloc(dtype, n*maxFeatures)
		if err != nil {
			return SparseBatch{}, err
		}
		offsets, err := a.Alloc(dtype, n*slotNum+1)
		if err != nil {
			return SparseBatch{}, err
		}
		return SparseBatch{Values: values, RowOffsets: offsets}, nil
	}

	for i := range r.LocalDeviceCount() {
		train, err := alloc(i, batch)
		if err != nil {
			return SparseInput{}, fmt.Errorf("train input on device %d: %w", i, err)
		}
		eval, err := alloc(i, batchEval)
		if err != nil {
			return SparseInput{}, fmt.Errorf("eval input on device %d: %w", i, err)
		}
		in.Train = append(in.Train, train)
		in.Eval = append(in.Eval, eval)
	}

	return in, nil
}

// Inputs maps bottom names to sparse inputs in registration order.
type Inputs struct {
	m *orderedmap.OrderedMap[string, SparseInput]
}

func NewInputs() *Inputs {
	return &Inputs{m: orderedmap.New[string, SparseInput]()}
}

// Add registers an input source. Names must be unique.
func (in *Inputs) Add(name string, s SparseInput) error {
	if _, ok := in.m.Get(name); ok {
		return errtypes.Invalid("top", "duplicate sparse input %q", name)
	}
	in.m.Set(name, s)
	return nil
}

// Lookup returns the input registered under name.
func (in *Inputs) Lookup(name string) (SparseInput, error) {
	if s, ok := in.m.Get(name); ok {
		return s, nil
	}
	return SparseInput{}, errtypes.NoInput(name)
}

// Names returns the registered names in registration order.
func (in *Inputs) Names() []string {
	names := make([]string, 0, in.m.Len())
	for pair := in.m.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

func (in *Inputs) Len() int {
	return in.m.Len()
}
