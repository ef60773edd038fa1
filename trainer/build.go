// build.go - Aufbau eines Modells aus einer Modell-Beschreibung
// Hauptfunktionen: DataTypes, Build (waehlt Key/Value-Typen), buildModel (generisch)
package trainer

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/x448/float16"

	"github.com/ollama/embedforge/config"
	"github.com/ollama/embedforge/embedding"
	"github.com/ollama/embedforge/envconfig"
	"github.com/ollama/embedforge/exchange"
	"github.com/ollama/embedforge/ml"
	"github.com/ollama/embedforge/optimizer"
	"github.com/ollama/embedforge/types/errtypes"
)

// Handle is a compiled model with its key and value types erased.
type Handle interface {
	Plan(ctx context.Context) (Plan, error)
	Memory() ml.BackendMemory
	Backends() []embedding.Backend
	TrainRegistry() *embedding.Registry
	EvalRegistry() *embedding.Registry
}

// DataTypes resolves the key and value types of cfg. The solver section
// decides unless EMBEDFORGE_KEY_TYPE or EMBEDFORGE_VALUE_TYPE override it.
func DataTypes(cfg *config.Model) (key, value ml.DType, err error) {
	k := cmp.Or(envconfig.KeyType(), cfg.Solver.KeyType)
	v := cmp.Or(envconfig.ValueType(), cfg.Solver.ValueType)

	switch strings.ToLower(k) {
	case "int64", "i64":
		key = ml.DTypeI64
	case "uint32", "u32":
		key = ml.DTypeU32
	default:
		return 0, 0, errtypes.Invalid("key_type", "unsupported key type %s", k)
	}

	switch strings.ToLower(v) {
	case "f32", "float32":
		value = ml.DTypeF32
	case "f16", "float16":
		value = ml.DTypeF16
	default:
		return 0, 0, errtypes.Invalid("value_type", "unsupported value type %s", v)
	}

	return key, value, nil
}

// Build assembles and compiles the embedding stage of cfg with the types
// from DataTypes. Hybrid tables need x to hold buffers of the value type.
func Build(cfg *config.Model, res ml.ResourceManager, x exchange.Exchange) (Handle, error) {
	key, value, err := DataTypes(cfg)
	if err != nil {
		return nil, err
	}

	switch {
	case key == ml.DTypeI64 && value == ml.DTypeF32:
		return buildModel[int64, float32](cfg, res, x)
	case key == ml.DTypeI64 && value == ml.DTypeF16:
		return buildModel[int64, float16.Float16](cfg, res, x)
	case key == ml.DTypeU32 && value == ml.DTypeF32:
		return buildModel[uint32, float32](cfg, res, x)
	default:
		return buildModel[uint32, float16.Float16](cfg, res, x)
	}
}

// OptionsFromSolver converts the solver section, applying environment
// overrides.
func OptionsFromSolver(cfg *config.Model) (Options, error) {
	s := cfg.Solver
	opts := Options{
		BatchSize:               int(s.BatchSize),
		BatchSizeEval:           int(s.BatchSizeEval),
		GroupedAllReduce:        envconfig.GroupedAllReduce(s.GroupedAllReduce),
		UseCUDAGraph:            envconfig.UseCUDAGraph(s.UseCUDAGraph),
		NumIterationsStatistics: int(s.NumIterationsStatistics),
		Optimizer:               optimizer.DefaultParams(),
		Schedule: optimizer.PolynomialScheduler{
			BaseLR:      s.LearningRate,
			WarmupSteps: int(s.WarmupSteps),
			DecayStart:  int(s.DecayStart),
			DecaySteps:  int(s.DecaySteps),
			DecayPower:  s.DecayPower,
			EndLR:       s.EndLR,
		},
	}

	if envconfig.Var("EMBEDFORGE_ITERATIONS_STATISTICS") != "" {
		opts.NumIterationsStatistics = int(envconfig.IterationsStatistics())
	}

	opts.Optimizer.LearningRate = s.LearningRate
	if cfg.Optimizer != nil {
		p, err := optimizer.ParseParams(cfg.Optimizer, opts.Optimizer)
		if err != nil {
			return opts, fmt.Errorf("optimizer: %w", err)
		}
		opts.Optimizer = p
	}

	return opts, nil
}

func buildModel[K embedding.Key, V embedding.Value](cfg *config.Model, res ml.ResourceManager, x exchange.Exchange) (*Model[K, V], error) {
	opts, err := OptionsFromSolver(cfg)
	if err != nil {
		return nil, err
	}

	m, err := New[K, V](res, x, opts)
	if err != nil {
		return nil, err
	}

	for _, in := range cfg.Inputs {
		sparse, err := embedding.AllocSparseInput[K](res, int(in.SlotNum), int(in.MaxFeatureNumPerSample), opts.BatchSize, opts.BatchSizeEval)
		if err != nil {
			return nil, fmt.Errorf("sparse input %q: %w", in.Name, err)
		}
		if err := m.AddInput(in.Name, sparse); err != nil {
			return nil, err
		}
	}

	for _, b := range cfg.Embeddings {
		d, err := embedding.ParseDescriptor(b)
		if err != nil {
			return nil, err
		}
		if err := m.AddSparseEmbedding(d); err != nil {
			return nil, err
		}
		slog.Debug("added sparse embedding", "embedding", d)
	}

	if err := m.Compile(); err != nil {
		return nil, err
	}
	return m, nil
}

// ExchangeSize returns the per-device wgrad buffer elements the Hybrid tables
// of cfg need: frequent capacity times vector size, summed over tables.
// Blocks that do not parse are skipped; Build reports them.
func ExchangeSize(cfg *config.Model) int {
	batch := max(cfg.Solver.BatchSize, cfg.Solver.BatchSizeEval)

	var elems uint64
	for _, b := range cfg.Embeddings {
		name, err := b.String("type")
		if err != nil {
			continue
		}
		if kind, err := embedding.ParseKind(name); err != nil || kind != embedding.Hybrid {
			continue
		}

		hp, err := b.Block("sparse_embedding_hparam")
		if err != nil {
			continue
		}
		vec, err := hp.Uint("embedding_vec_size")
		if err != nil {
			continue
		}
		frequent, err := hp.UintOr("max_num_frequent_categories", embedding.DefaultHybridTuning().MaxFrequentCategories)
		if err != nil {
			continue
		}
		elems += frequent * batch * vec
	}

	return int(max(elems, 1))
}
