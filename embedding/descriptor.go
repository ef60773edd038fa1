// descriptor.go - Unveraenderliche Beschreibung einer Embedding-Tabelle
// Hauptfunktionen: ParseDescriptor, Descriptor-Accessoren, Vokabular-Groessen
package embedding

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/ollama/embedforge/config"
	"github.com/ollama/embedforge/format"
	"github.com/ollama/embedforge/optimizer"
	"github.com/ollama/embedforge/types/errtypes"
)

const (
	// MaxVectorSize is the widest embedding vector a table may use
	MaxVectorSize = 1024

	// AlignmentUnit is the vector width the kernels are tuned for
	AlignmentUnit = 32
)

// =============================================================================
// Sizing
// =============================================================================

// Sizing is either a WorkspaceBudget or SlotSizes.
type Sizing interface {
	fmt.Stringer
	sizing()
}

// WorkspaceBudget sizes a hashed table from a per-device memory allowance.
type WorkspaceBudget struct {
	MB uint64 `json:"workspace_size_per_gpu_in_mb"`
}

// SlotSizes gives the exact cardinality of every slot.
type SlotSizes struct {
	Sizes []uint64 `json:"slot_size_array"`
}

func (WorkspaceBudget) sizing() {}
func (SlotSizes) sizing()       {}

func (w WorkspaceBudget) String() string { return fmt.Sprintf("workspace %d MB", w.MB) }
func (s SlotSizes) String() string       { return fmt.Sprintf("%d slots", len(s.Sizes)) }

// Total is the sum of all slot cardinalities.
func (s SlotSizes) Total() uint64 {
	var total uint64
	for _, n := range s.Sizes {
		total += n
	}
	return total
}

// =============================================================================
// Hybrid-Tuning
// =============================================================================

type HybridTuning struct {
	MaxFrequentCategories uint64            `json:"max_num_frequent_categories"`
	MaxInfrequentSamples  int64             `json:"max_num_infrequent_samples"`
	DuplicationRatio      float64           `json:"p_dup_max"`
	MaxAllReduceBandwidth float64           `json:"max_all_reduce_bandwidth"`
	MaxAllToAllBandwidth  float64           `json:"max_all_to_all_bandwidth"`
	EfficiencyRatio       float64           `json:"efficiency_bandwidth_ratio"`
	Communication         CommunicationType `json:"communication_type"`
	Stratification        HybridType        `json:"hybrid_embedding_type"`
}

// DefaultHybridTuning is used for every key a hybrid block leaves out.
func DefaultHybridTuning() HybridTuning {
	return HybridTuning{
		MaxFrequentCategories: 1,
		MaxInfrequentSamples:  -1,
		DuplicationRatio:      1. / 100,
		MaxAllReduceBandwidth: 1.3e11,
		MaxAllToAllBandwidth:  1.9e11,
		EfficiencyRatio:       1.0,
		Communication:         IBNVLink,
		Stratification:        Distributed,
	}
}

func parseHybridTuning(b config.Block) (HybridTuning, error) {
	h := DefaultHybridTuning()
	var err error

	if h.MaxFrequentCategories, err = b.UintOr("max_num_frequent_categories", h.MaxFrequentCategories); err != nil {
		return h, err
	}
	if h.MaxInfrequentSamples, err = b.IntOr("max_num_infrequent_samples", h.MaxInfrequentSamples); err != nil {
		return h, err
	}
	if h.DuplicationRatio, err = b.Float64Or("p_dup_max", h.DuplicationRatio); err != nil {
		return h, err
	}
	if h.MaxAllReduceBandwidth, err = b.Float64Or("max_all_reduce_bandwidth", h.MaxAllReduceBandwidth); err != nil {
		return h, err
	}
	if h.MaxAllToAllBandwidth, err = b.Float64Or("max_all_to_all_bandwidth", h.MaxAllToAllBandwidth); err != nil {
		return h, err
	}
	if h.EfficiencyRatio, err = b.Float64Or("efficiency_bandwidth_ratio", h.EfficiencyRatio); err != nil {
		return h, err
	}

	comm, err := b.StringOr("communication_type", h.Communication.String())
	if err != nil {
		return h, err
	}
	if h.Communication, err = ParseCommunicationType(comm); err != nil {
		return h, err
	}

	strat, err := b.StringOr("hybrid_embedding_type", h.Stratification.String())
	if err != nil {
		return h, err
	}
	if h.Stratification, err = ParseHybridType(strat); err != nil {
		return h, err
	}

	return h, nil
}

// =============================================================================
// Descriptor
// =============================================================================

// Descriptor is the fully resolved description of one table. It is built
// by ParseDescriptor and has no setters.
type Descriptor struct {
	kind       Kind
	bottom     string
	top        string
	vectorSize int
	combiner   Combiner
	sizing     Sizing
	optimizer  *optimizer.Params
	hybrid     *HybridTuning
	advisories []string
}

func (d Descriptor) Kind() Kind           { return d.kind }
func (d Descriptor) Bottom() string       { return d.bottom }
func (d Descriptor) Top() string          { return d.top }
func (d Descriptor) VectorSize() int      { return d.vectorSize }
func (d Descriptor) Combiner() Combiner   { return d.combiner }
func (d Descriptor) Advisories() []string { return slices.Clone(d.advisories) }

// Sizing returns a copy of the sizing variant.
func (d Descriptor) Sizing() Sizing {
	if s, ok := d.sizing.(SlotSizes); ok {
		return SlotSizes{Sizes: slices.Clone(s.Sizes)}
	}
	return d.sizing
}

// Optimizer returns the per-table optimizer record, if one was configured.
func (d Descriptor) Optimizer() (optimizer.Params, bool) {
	if d.optimizer == nil {
		return optimizer.Params{}, false
	}
	return *d.optimizer, true
}

// OptimizerOr returns the per-table record, or def when the table has none.
// A per-table record without learning rate or scaler takes them from def.
func (d Descriptor) OptimizerOr(def optimizer.Params) optimizer.Params {
	if d.optimizer == nil {
		return def
	}

	p := *d.optimizer
	if p.LearningRate == 0 {
		p.LearningRate = def.LearningRate
	}
	if p.Scaler == 0 {
		p.Scaler = def.Scaler
	}
	return p
}

// Hybrid returns the tuning record of a Hybrid table.
func (d Descriptor) Hybrid() (HybridTuning, bool) {
	if d.hybrid == nil {
		return HybridTuning{}, false
	}
	return *d.hybrid, true
}

// VocabularyPerDevice returns the number of rows each device stores for the
// sharded part of the table.
//
// A workspace budget is converted with 4-byte elements regardless of the
// value type, so f16 tables get the same row count as f32 ones.
func (d Descriptor) VocabularyPerDevice(devices int) []uint64 {
	out := make([]uint64, devices)
	if devices <= 0 {
		return out
	}

	switch s := d.sizing.(type) {
	case WorkspaceBudget:
		rows := s.MB * format.MebiByte / uint64(4*d.vectorSize)
		for i := range out {
			out[i] = rows
		}
	case SlotSizes:
		if d.kind.needsSlotSizes() {
			for slot, n := range s.Sizes {
				out[slot%devices] += n
			}
			return out
		}

		total := s.Total()
		rows := (total + uint64(devices) - 1) / uint64(devices)
		for i := range out {
			out[i] = rows
		}
	}
	return out
}

type descriptorJSON struct {
	Kind       Kind              `json:"type"`
	Bottom     string            `json:"bottom"`
	Top        string            `json:"top"`
	VectorSize int               `json:"embedding_vec_size"`
	Combiner   Combiner          `json:"combiner"`
	Sizing     Sizing            `json:"sizing"`
	Optimizer  *optimizer.Params `json:"optimizer,omitempty"`
	Hybrid     *HybridTuning     `json:"hybrid,omitempty"`
	Advisories []string          `json:"advisories,omitempty"`
}

func (d Descriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(descriptorJSON{
		Kind:       d.kind,
		Bottom:     d.bottom,
		Top:        d.top,
		VectorSize: d.vectorSize,
		Combiner:   d.combiner,
		Sizing:     d.sizing,
		Optimizer:  d.optimizer,
		Hybrid:     d.hybrid,
		Advisories: d.advisories,
	})
}

func (d Descriptor) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("top", d.top),
		slog.String("bottom", d.bottom),
		slog.Any("type", d.kind),
		slog.Int("vec", d.vectorSize),
		slog.String("sizing", d.sizing.String()),
	)
}

// ParseDescriptor validates one entry of the "embeddings" list:
//
//	{"bottom": ..., "top": ..., "type": ...,
//	 "sparse_embedding_hparam": {...}, "optimizer": {...}}
//
// Every error names the table (its top name) and the offending field.
func ParseDescriptor(b config.Block) (Descriptor, error) {
	d, err := parseDescriptor(b)
	if err != nil {
		return Descriptor{}, errtypes.WithTable(err, d.top)
	}

	for _, msg := range d.advisories {
		slog.Warn(msg, "embedding", d.top)
	}
	return d, nil
}

func parseDescriptor(b config.Block) (Descriptor, error) {
	var d Descriptor
	var err error

	if d.top, err = b.String("top"); err != nil {
		return d, err
	}
	if d.bottom, err = b.String("bottom"); err != nil {
		return d, err
	}

	typeName, err := b.String("type")
	if err != nil {
		return d, err
	}
	if d.kind, err = ParseKind(typeName); err != nil {
		return d, err
	}

	hp, err := b.Block("sparse_embedding_hparam")
	if err != nil {
		return d, err
	}

	if err := d.parseSizing(hp); err != nil {
		return d, err
	}

	vec, err := hp.Uint("embedding_vec_size")
	if err != nil {
		return d, err
	}
	if vec == 0 || vec > MaxVectorSize {
		return d, errtypes.Invalid("embedding_vec_size", "embedding vector size (%d) is invalid. It cannot be zero nor exceed %d", vec, MaxVectorSize)
	}
	d.vectorSize = int(vec)
	if d.vectorSize%AlignmentUnit != 0 {
		d.advisories = append(d.advisories, fmt.Sprintf(
			"embedding vector size (%d) is not a multiple of %d, which may affect the device resource utilization", vec, AlignmentUnit))
	}

	combiner, err := hp.String("combiner")
	if err != nil {
		return d, err
	}
	if d.combiner, err = ParseCombiner(combiner); err != nil {
		return d, err
	}

	if b.Has("optimizer") {
		ob, err := b.Block("optimizer")
		if err != nil {
			return d, err
		}
		p, err := optimizer.ParseParams(ob, optimizer.Params{})
		if err != nil {
			return d, err
		}
		d.optimizer = &p
	}

	if d.kind == Hybrid {
		h, err := parseHybridTuning(hp)
		if err != nil {
			return d, err
		}
		d.hybrid = &h
	}

	return d, nil
}

func (d *Descriptor) parseSizing(hp config.Block) error {
	hasWorkspace := hp.Has("workspace_size_per_gpu_in_mb")
	hasSlots := hp.Has("slot_size_array")

	if !hasWorkspace && !hasSlots {
		return errtypes.Unsupported("need workspace_size_per_gpu_in_mb or slot_size_array")
	}

	if hasWorkspace {
		mb, err := hp.Uint("workspace_size_per_gpu_in_mb")
		if err != nil {
			return err
		}
		if mb == 0 && !hasSlots {
			return errtypes.Invalid("workspace_size_per_gpu_in_mb", "workspace budget must be positive")
		}
		if mb > math.MaxUint64/format.MebiByte {
			return errtypes.Invalid("workspace_size_per_gpu_in_mb", "workspace budget of %d MB does not fit in 64 bits", mb)
		}
		d.sizing = WorkspaceBudget{MB: mb}
	}

	if hasSlots {
		sizes, err := hp.Uints("slot_size_array")
		if err != nil {
			return err
		}
		if len(sizes) == 0 {
			return errtypes.Invalid("slot_size_array", "slot size list is empty")
		}
		if i := slices.Index(sizes, 0); i >= 0 {
			return errtypes.Invalid(fmt.Sprintf("slot_size_array[%d]", i), "slot size must be positive")
		}
		if hasWorkspace {
			d.advisories = append(d.advisories, "both workspace_size_per_gpu_in_mb and slot_size_array are set, using slot_size_array")
		}
		d.sizing = SlotSizes{Sizes: sizes}
	}

	if _, ok := d.sizing.(SlotSizes); !ok && d.kind.needsSlotSizes() {
		return errtypes.Unsupported("%s embedding requires slot_size_array", d.kind)
	}

	return nil
}
