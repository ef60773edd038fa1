// backend_hybrid.go - Hybride Variante
//
// Haeufige Kategorien liegen repliziert auf jedem Geraet und werden per
// All-Reduce ueber die Wgrad-Puffer des Austauschs synchronisiert. Seltene
// Kategorien werden wie bei DistributedHash geteilt.
package embedding

import (
	"log/slog"

	"github.com/ollama/embedforge/exchange"
	"github.com/ollama/embedforge/ml"
	"github.com/ollama/embedforge/optimizer"
	"github.com/ollama/embedforge/types/errtypes"
)

type HybridBackend[K Key, V Value] struct {
	table

	tuning HybridTuning

	frequent   []shard
	infrequent []shard

	frequentCapacity uint64
	vocabulary       []uint64

	wgrad      exchange.Accessor
	schedulers []optimizer.Scheduler

	useCUDAGraph  bool
	statisticsFor int
}

func newHybrid[K Key, V Value](d Descriptor, in SparseInput, p BuildParams) (*HybridBackend[K, V], error) {
	n := p.Resources.LocalDeviceCount()

	tuning, ok := d.Hybrid()
	if !ok {
		tuning = DefaultHybridTuning()
	}

	if p.Wgrad == nil {
		return nil, errtypes.Unsupported("hybrid embedding requires a gradient exchange")
	}
	bufs := p.Wgrad.EmbedWgradBuffers()
	if len(bufs) != n {
		return nil, errtypes.Unsupported("%s exchange has %d wgrad buffers for %d devices", p.Wgrad.Name(), len(bufs), n)
	}
	for i, buf := range bufs {
		dev := p.Resources.LocalDevice(i).DeviceID
		switch {
		case buf == nil:
			return nil, errtypes.Unsupported("%s wgrad buffer for device %d is missing", p.Wgrad.Name(), i)
		case buf.DType() != ml.DTypeOf[V]():
			return nil, errtypes.Unsupported("%s wgrad buffer on device %d holds %s, table values are %s", p.Wgrad.Name(), i, buf.DType(), ml.DTypeOf[V]())
		case buf.Device() != dev:
			return nil, errtypes.Unsupported("%s wgrad buffer for device %d lives on %s, expected %s", p.Wgrad.Name(), i, buf.Device(), dev)
		}
	}
	if len(p.Schedulers) != n {
		return nil, errtypes.Unsupported("hybrid embedding requires one learning rate scheduler per device, got %d for %d devices", len(p.Schedulers), n)
	}

	b := &HybridBackend[K, V]{
		table:            newTable(Hybrid, d, d.OptimizerOr(p.Optimizer), p.Resources),
		tuning:           tuning,
		frequentCapacity: tuning.MaxFrequentCategories * uint64(max(p.BatchSize, p.BatchSizeEval)),
		vocabulary:       d.VocabularyPerDevice(n),
		wgrad:            p.Wgrad,
		schedulers:       p.Schedulers,
		useCUDAGraph:     p.UseCUDAGraph,
		statisticsFor:    p.NumIterationsStatistics,
	}

	_, hashed := d.sizing.(WorkspaceBudget)
	for i := range n {
		f, err := allocShard[K, V](&b.table, p.Resources, i, b.frequentCapacity, d.VectorSize(), false)
		if err != nil {
			return nil, err
		}
		b.frequent = append(b.frequent, f)

		s, err := allocShard[K, V](&b.table, p.Resources, i, b.vocabulary[i], d.VectorSize(), hashed)
		if err != nil {
			return nil, err
		}
		b.infrequent = append(b.infrequent, s)

		if err := allocOutputs[V](&b.table, p.Resources, i,
			[]int{p.BatchSize / n, in.SlotNum * d.VectorSize()},
			[]int{p.BatchSizeEval / n, in.SlotNum * d.VectorSize()}); err != nil {
			return nil, err
		}
	}

	slog.Debug("hybrid table",
		"embedding", d.Top(),
		"wgrad", b.wgrad.Name(),
		"frequent_capacity", b.frequentCapacity,
		"communication", tuning.Communication,
		"stratification", tuning.Stratification,
		"cuda_graph", b.useCUDAGraph,
		"statistics_iterations", b.statisticsFor)
	return b, nil
}

// Wgrad returns the accessor the frequent gradients are exchanged through.
func (b *HybridBackend[K, V]) Wgrad() exchange.Accessor { return b.wgrad }

func (b *HybridBackend[K, V]) Tuning() HybridTuning { return b.tuning }

// FrequentCapacity is the number of replicated rows per device.
func (b *HybridBackend[K, V]) FrequentCapacity() uint64 { return b.frequentCapacity }

// LearningRate returns the rate device i uses at step.
func (b *HybridBackend[K, V]) LearningRate(i, step int) float32 {
	return b.schedulers[i].LearningRate(step)
}

// FrequentGradients returns the wgrad buffer of device i.
func (b *HybridBackend[K, V]) FrequentGradients(i int) ml.Tensor {
	return b.wgrad.EmbedWgradBuffers()[i]
}
