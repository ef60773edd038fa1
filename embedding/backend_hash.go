// backend_hash.go - Hash-basierte Varianten (verteilt und lokalisiert)
//
// DistributedHashBackend: jeder Schluessel kann auf jedem Geraet liegen,
// das Vokabular wird gleichmaessig geteilt.
// LocalizedHashBackend: ganze Slots werden reihum (slot % Geraete) verteilt.
package embedding

import (
	"log/slog"
	"slices"

	"github.com/ollama/embedforge/ml"
)

// DistributedHashBackend shards a hashed table evenly over all devices.
type DistributedHashBackend[K Key, V Value] struct {
	table

	shards     []shard
	vocabulary []uint64
}

func newDistributedHash[K Key, V Value](d Descriptor, in SparseInput, p BuildParams) (*DistributedHashBackend[K, V], error) {
	n := p.Resources.LocalDeviceCount()
	b := &DistributedHashBackend[K, V]{
		table:      newTable(DistributedHash, d, d.OptimizerOr(p.Optimizer), p.Resources),
		vocabulary: d.VocabularyPerDevice(n),
	}

	for i := range n {
		s, err := allocShard[K, V](&b.table, p.Resources, i, b.vocabulary[i], d.VectorSize(), true)
		if err != nil {
			return nil, err
		}
		b.shards = append(b.shards, s)

		if err := allocOutputs[V](&b.table, p.Resources, i,
			[]int{p.BatchSize / n, in.SlotNum, d.VectorSize()},
			[]int{p.BatchSizeEval / n, in.SlotNum, d.VectorSize()}); err != nil {
			return nil, err
		}
	}

	slog.Debug("distributed hash table", "embedding", d.Top(), "vocabulary_per_device", b.vocabulary[0])
	return b, nil
}

// VocabularyPerDevice returns the rows each device stores.
func (b *DistributedHashBackend[K, V]) VocabularyPerDevice() []uint64 {
	return slices.Clone(b.vocabulary)
}

// Values returns the embedding vectors of device i.
func (b *DistributedHashBackend[K, V]) Values(i int) ml.Tensor { return b.shards[i].values }

// State returns the optimizer state vectors of device i.
func (b *DistributedHashBackend[K, V]) State(i int) []ml.Tensor { return slices.Clone(b.shards[i].state) }

// LocalizedHashBackend keeps every slot on exactly one device.
type LocalizedHashBackend[K Key, V Value] struct {
	table

	shards     []shard
	vocabulary []uint64
	slots      [][]int
}

func newLocalizedHash[K Key, V Value](d Descriptor, in SparseInput, p BuildParams) (*LocalizedHashBackend[K, V], error) {
	n := p.Resources.LocalDeviceCount()
	b := &LocalizedHashBackend[K, V]{
		table:      newTable(LocalizedHash, d, d.OptimizerOr(p.Optimizer), p.Resources),
		vocabulary: d.VocabularyPerDevice(n),
		slots:      slotsPerDevice(in.SlotNum, n),
	}

	for i := range n {
		s, err := allocShard[K, V](&b.table, p.Resources, i, b.vocabulary[i], d.VectorSize(), true)
		if err != nil {
			return nil, err
		}
		b.shards = append(b.shards, s)

		if err := allocOutputs[V](&b.table, p.Resources, i,
			[]int{p.BatchSize / n, in.SlotNum, d.VectorSize()},
			[]int{p.BatchSizeEval / n, in.SlotNum, d.VectorSize()}); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// Slots returns the slot indices owned by device i.
func (b *LocalizedHashBackend[K, V]) Slots(i int) []int {
	return slices.Clone(b.slots[i])
}

func (b *LocalizedHashBackend[K, V]) VocabularyPerDevice() []uint64 {
	return slices.Clone(b.vocabulary)
}

// slotsPerDevice places slot s on device s % devices.
func slotsPerDevice(slots, devices int) [][]int {
	out := make([][]int, devices)
	for s := range slots {
		out[s%devices] = append(out[s%devices], s)
	}
	return out
}
