// model.go - Zusammenbau der Embedding-Stufe eines Modells
//
// MODUL: trainer
// ZWECK: Haelt Eingaben, Factory und beide Registries eines Modells und
//        fuehrt pro Tabelle Build und Bind aus
// INPUT: ml.ResourceManager, exchange.Exchange, Options
// OUTPUT: Model mit eingefrorenen Train-/Eval-Registries nach Compile
// NEBENEFFEKTE: Allokiert Tabellen ueber die Geraete-Allokatoren, loggt die
//               Speicher-Bilanz
// ABHAENGIGKEITEN: embedding, exchange, optimizer, uuid
// HINWEISE: Aufbau ist single-threaded; nach Compile nur noch lesend.
//           Der erste Fehler in AddSparseEmbedding bricht das Modell ab.
package trainer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ollama/embedforge/embedding"
	"github.com/ollama/embedforge/exchange"
	"github.com/ollama/embedforge/ml"
	"github.com/ollama/embedforge/optimizer"
)

var (
	ErrCompiled    = errors.New("model is already compiled")
	ErrNotCompiled = errors.New("model is not compiled")
	ErrAborted     = errors.New("model construction aborted")
)

// Options are the model-wide settings passed to every table.
type Options struct {
	BatchSize     int
	BatchSizeEval int

	GroupedAllReduce        bool
	UseCUDAGraph            bool
	NumIterationsStatistics int

	// Optimizer is the default record for tables without their own block
	Optimizer optimizer.Params

	// Schedule is copied into one learning rate scheduler per device
	Schedule optimizer.PolynomialScheduler
}

// Model assembles the embedding stage for keys K and values V.
type Model[K embedding.Key, V embedding.Value] struct {
	ID uuid.UUID

	opts Options
	res  ml.ResourceManager

	inputs      *embedding.Inputs
	factory     *embedding.Factory[K, V]
	descriptors []embedding.Descriptor

	train *embedding.Registry
	eval  *embedding.Registry

	compiled bool

	// err is the first failed AddSparseEmbedding
	err error
}

// New prepares an empty model. The gradient exchange accessor is selected
// once here; x may be nil for models without Hybrid tables.
func New[K embedding.Key, V embedding.Value](res ml.ResourceManager, x exchange.Exchange, opts Options) (*Model[K, V], error) {
	var wgrad exchange.Accessor
	if x != nil {
		var err error
		if wgrad, err = exchange.Select(x, opts.GroupedAllReduce); err != nil {
			return nil, err
		}
	}

	n := res.LocalDeviceCount()
	m := &Model[K, V]{
		ID:     uuid.New(),
		opts:   opts,
		res:    res,
		inputs: embedding.NewInputs(),
		factory: embedding.NewFactory[K, V](embedding.BuildParams{
			BatchSize:               opts.BatchSize,
			BatchSizeEval:           opts.BatchSizeEval,
			Resources:               res,
			Optimizer:               opts.Optimizer,
			Wgrad:                   wgrad,
			Schedulers:              optimizer.NewSchedulers(n, opts.Schedule),
			UseCUDAGraph:            opts.UseCUDAGraph,
			NumIterationsStatistics: opts.NumIterationsStatistics,
		}),
		train: embedding.NewRegistry(n),
		eval:  embedding.NewRegistry(n),
	}

	slog.Debug("new model", "id", m.ID, "devices", n, "key", ml.DTypeOf[K](), "value", ml.DTypeOf[V]())
	return m, nil
}

// AddInput registers a sparse input source tables can name as bottom.
func (m *Model[K, V]) AddInput(name string, in embedding.SparseInput) error {
	if err := m.usable(); err != nil {
		return err
	}
	return m.inputs.Add(name, in)
}

// AddSparseEmbedding builds the table described by d and binds its outputs
// under d.Top() on every device. Any error aborts the model; later calls
// return ErrAborted.
func (m *Model[K, V]) AddSparseEmbedding(d embedding.Descriptor) error {
	if err := m.usable(); err != nil {
		return err
	}

	b, err := m.factory.Add(d, m.inputs)
	if err != nil {
		m.err = err
		return err
	}
	if err := embedding.Bind(b, d.Top(), m.res, m.train, m.eval); err != nil {
		m.err = err
		return err
	}

	m.descriptors = append(m.descriptors, d)
	return nil
}

// Compile freezes both registries and logs the memory of all tables.
func (m *Model[K, V]) Compile() error {
	if err := m.usable(); err != nil {
		return err
	}

	m.train.Freeze()
	m.eval.Freeze()
	m.compiled = true

	mem := m.Memory()
	mem.Log(slog.LevelInfo)
	slog.Info("compiled embedding stage", "id", m.ID, "tables", len(m.descriptors))
	return nil
}

func (m *Model[K, V]) usable() error {
	switch {
	case m.err != nil:
		return fmt.Errorf("%w: %w", ErrAborted, m.err)
	case m.compiled:
		return ErrCompiled
	}
	return nil
}

// Memory sums the per-table memory of all backends.
func (m *Model[K, V]) Memory() ml.BackendMemory {
	var mem ml.BackendMemory
	for _, b := range m.factory.Backends() {
		mem.Append(b.Memory())
	}
	return mem
}

func (m *Model[K, V]) Backends() []embedding.Backend      { return m.factory.Backends() }
func (m *Model[K, V]) TrainRegistry() *embedding.Registry { return m.train }
func (m *Model[K, V]) EvalRegistry() *embedding.Registry  { return m.eval }
