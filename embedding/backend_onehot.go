// backend_onehot.go - Lokalisierte One-Hot-Variante
// Jeder Slot traegt genau einen Schluessel; die Tabelle wird direkt
// indiziert und braucht keinen Hash-Speicher.
package embedding

import (
	"slices"

	"github.com/ollama/embedforge/types/errtypes"
)

type LocalizedOneHotBackend[K Key, V Value] struct {
	table

	shards     []shard
	vocabulary []uint64
	slots      [][]int

	// offsets maps a slot to its first row on the owning device
	offsets []uint64
}

func newLocalizedOneHot[K Key, V Value](d Descriptor, in SparseInput, p BuildParams) (*LocalizedOneHotBackend[K, V], error) {
	if in.MaxFeatureNumPerSample != in.SlotNum {
		return nil, errtypes.Unsupported("one-hot embedding needs exactly one key per slot, input %q has %d features for %d slots",
			d.Bottom(), in.MaxFeatureNumPerSample, in.SlotNum)
	}

	n := p.Resources.LocalDeviceCount()
	b := &LocalizedOneHotBackend[K, V]{
		table:      newTable(LocalizedOneHot, d, d.OptimizerOr(p.Optimizer), p.Resources),
		vocabulary: d.VocabularyPerDevice(n),
		slots:      slotsPerDevice(in.SlotNum, n),
	}

	sizes, _ := d.sizing.(SlotSizes)
	b.offsets = make([]uint64, len(sizes.Sizes))
	next := make([]uint64, n)
	for s, size := range sizes.Sizes {
		b.offsets[s] = next[s%n]
		next[s%n] += size
	}

	for i := range n {
		// no workspace: rows are addressed directly through offsets
		s, err := allocShard[K, V](&b.table, p.Resources, i, b.vocabulary[i], d.VectorSize(), false)
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

func (b *LocalizedOneHotBackend[K, V]) Slots(i int) []int {
	return slices.Clone(b.slots[i])
}

// SlotOffset returns the first row of slot s on its owning device.
func (b *LocalizedOneHotBackend[K, V]) SlotOffset(s int) uint64 {
	return b.offsets[s]
}

func (b *LocalizedOneHotBackend[K, V]) VocabularyPerDevice() []uint64 {
	return slices.Clone(b.vocabulary)
}
