// backend.go - Backend-Interface und gemeinsame Tabellen-Speicherung
//
// Dieses Modul enthaelt:
// - Backend: Faehigkeiten aller vier Varianten
// - BuildParams: Batch-Groessen und externe Handles fuer den Aufbau
// - table/shard: gemeinsamer Speicher und Speicher-Bilanz pro Geraet
package embedding

import (
	"fmt"
	"slices"

	"github.com/ollama/embedforge/exchange"
	"github.com/ollama/embedforge/ml"
	"github.com/ollama/embedforge/optimizer"
	"github.com/ollama/embedforge/types/errtypes"
)

// Backend is a constructed embedding table. It owns its storage and
// optimizer state for the lifetime of the run; shapes never change after
// construction.
type Backend interface {
	Kind() Kind
	Name() string

	// TrainOutputs returns one output tensor per local device
	TrainOutputs() []ml.Tensor

	// EvalOutputs returns one output tensor per local device
	EvalOutputs() []ml.Tensor

	Memory() ml.BackendMemory
	Optimizer() optimizer.Params
}

// BuildParams are the model-wide inputs every table is built with.
type BuildParams struct {
	BatchSize     int
	BatchSizeEval int

	Resources ml.ResourceManager

	// Optimizer is the default record for tables without their own
	Optimizer optimizer.Params

	// Wgrad is the already selected gradient-exchange accessor. Only
	// Hybrid tables read it.
	Wgrad exchange.Accessor

	// Schedulers holds one learning-rate scheduler per local device.
	// Only Hybrid tables read it.
	Schedulers []optimizer.Scheduler

	UseCUDAGraph            bool
	NumIterationsStatistics int
}

func (p BuildParams) validate() error {
	if p.Resources == nil || p.Resources.LocalDeviceCount() == 0 {
		return errtypes.Unsupported("no local devices")
	}

	n := p.Resources.LocalDeviceCount()
	if p.BatchSize <= 0 || p.BatchSize%n != 0 {
		return errtypes.Invalid("batchsize", "batch size %d must be positive and divisible by %d devices", p.BatchSize, n)
	}
	if p.BatchSizeEval <= 0 || p.BatchSizeEval%n != 0 {
		return errtypes.Invalid("batchsize_eval", "batch size %d must be positive and divisible by %d devices", p.BatchSizeEval, n)
	}
	return nil
}

// =============================================================================
// Gemeinsamer Tabellen-Zustand
// =============================================================================

// shard is the storage one device holds for a block of rows.
type shard struct {
	keys   ml.Tensor
	values ml.Tensor
	state  []ml.Tensor
}

type table struct {
	kind Kind
	name string
	opt  optimizer.Params

	train []ml.Tensor
	eval  []ml.Tensor

	memory ml.BackendMemory
}

func newTable(kind Kind, d Descriptor, opt optimizer.Params, r ml.ResourceManager) table {
	t := table{kind: kind, name: d.Top(), opt: opt}
	for _, dev := range ml.Devices(r) {
		t.memory.Devices = append(t.memory.Devices, ml.DeviceMemory{
			DeviceID:       dev.DeviceID,
			Name:           dev.Name,
			Weights:        []uint64{0},
			OptimizerState: []uint64{0},
			Outputs:        []uint64{0},
		})
	}
	return t
}

func (t *table) Kind() Kind                  { return t.kind }
func (t *table) Name() string                { return t.name }
func (t *table) TrainOutputs() []ml.Tensor   { return slices.Clone(t.train) }
func (t *table) EvalOutputs() []ml.Tensor    { return slices.Clone(t.eval) }
func (t *table) Optimizer() optimizer.Params { return t.opt }

func (t *table) Memory() ml.BackendMemory {
	var m ml.BackendMemory
	m.Append(t.memory)
	return m
}

// allocShard allocates rows embedding vectors plus the optimizer state of
// t.opt on device i. Keys are only allocated for hashed storage.
func allocShard[K Key, V Value](t *table, r ml.ResourceManager, i int, rows uint64, vec int, hashed bool) (shard, error) {
	var s shard
	a := r.Allocator(i)
	mem := &t.memory.Devices[i]

	if hashed {
		keys, err := a.Alloc(ml.DTypeOf[K](), int(rows))
		if err != nil {
			return s, fmt.Errorf("keys on device %d: %w", i, err)
		}
		s.keys = keys
		mem.Weights[0] += keys.Size()
	}

	values, err := a.Alloc(ml.DTypeOf[V](), int(rows), vec)
	if err != nil {
		return s, fmt.Errorf("values on device %d: %w", i, err)
	}
	s.values = values
	mem.Weights[0] += values.Size()

	initial := optimizer.InitialState(t.opt.Hyperparameters)
	for range t.opt.StateSlots() {
		st, err := a.Alloc(ml.DTypeOf[V](), int(rows), vec)
		if err != nil {
			return s, fmt.Errorf("optimizer state on device %d: %w", i, err)
		}
		if err := ml.Fill(st, initial); err != nil {
			return s, err
		}
		s.state = append(s.state, st)
		mem.OptimizerState[0] += st.Size()
	}

	return s, nil
}

// allocOutputs allocates the train and evaluate output of device i.
func allocOutputs[V Value](t *table, r ml.ResourceManager, i int, train, eval []int) error {
	a := r.Allocator(i)

	tr, err := a.Alloc(ml.DTypeOf[V](), train...)
	if err != nil {
		return fmt.Errorf("train output on device %d: %w", i, err)
	}
	ev, err := a.Alloc(ml.DTypeOf[V](), eval...)
	if err != nil {
		return fmt.Errorf("eval output on device %d: %w", i, err)
	}

	t.train = append(t.train, tr)
	t.eval = append(t.eval, ev)
	t.memory.Devices[i].Outputs[0] += tr.Size() + ev.Size()
	return nil
}
