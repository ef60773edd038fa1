// kind.go - Aufzaehlungen der Embedding-Stufe
//
// Dieses Modul enthaelt:
// - Kind: die vier Backend-Varianten
// - Combiner: Reduktion ueber die Keys eines Slots
// - CommunicationType und HybridType: Tuning-Modi der Hybrid-Variante
package embedding

import (
	"log/slog"
	"strings"

	"github.com/ollama/embedforge/types/errtypes"
)

// =============================================================================
// Backend-Varianten
// =============================================================================

// Kind identifies the storage and communication strategy of a table.
type Kind int

const (
	// DistributedHash shards every slot across devices by hashed key
	DistributedHash Kind = iota
	// LocalizedHash keeps each slot fully on one device
	LocalizedHash
	// LocalizedOneHot is LocalizedHash with exactly one key per slot and sample
	LocalizedOneHot
	// Hybrid replicates frequent keys and shards the infrequent remainder
	Hybrid
)

var kindNames = map[string]Kind{
	"DistributedSlotSparseEmbeddingHash": DistributedHash,
	"LocalizedSlotSparseEmbeddingHash":   LocalizedHash,
	"LocalizedSlotSparseEmbeddingOneHot": LocalizedOneHot,
	"HybridSparseEmbedding":              Hybrid,

	"DistributedHash": DistributedHash,
	"LocalizedHash":   LocalizedHash,
	"LocalizedOneHot": LocalizedOneHot,
	"Hybrid":          Hybrid,
}

// ParseKind parses an embedding type name.
func ParseKind(s string) (Kind, error) {
	if k, ok := kindNames[s]; ok {
		return k, nil
	}
	return 0, errtypes.Invalid("type", "no such embedding type: %s", s)
}

func (k Kind) String() string {
	switch k {
	case DistributedHash:
		return "DistributedHash"
	case LocalizedHash:
		return "LocalizedHash"
	case LocalizedOneHot:
		return "LocalizedOneHot"
	case Hybrid:
		return "Hybrid"
	default:
		return "unknown"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) (err error) {
	*k, err = ParseKind(string(b))
	return err
}

func (k Kind) LogValue() slog.Value {
	return slog.StringValue(k.String())
}

// needsSlotSizes reports whether k can only be sized from slot_size_array.
func (k Kind) needsSlotSizes() bool {
	return k == LocalizedHash || k == LocalizedOneHot
}

// =============================================================================
// Combiner
// =============================================================================

type Combiner int

const (
	Sum Combiner = iota
	Mean
)

// ParseCombiner accepts "sum" and "mean" in any case.
func ParseCombiner(s string) (Combiner, error) {
	switch strings.ToLower(s) {
	case "sum":
		return Sum, nil
	case "mean":
		return Mean, nil
	}
	return 0, errtypes.Invalid("combiner", "no such combiner: %s", s)
}

func (c Combiner) String() string {
	if c == Mean {
		return "mean"
	}
	return "sum"
}

func (c Combiner) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// =============================================================================
// Hybrid-Modi
// =============================================================================

type CommunicationType int

const (
	IBNVLinkHier CommunicationType = iota
	IBNVLink
	NVLinkSingleNode
)

var communicationNames = map[string]CommunicationType{
	"IB_NVLink_Hier":    IBNVLinkHier,
	"IB_NVLink":         IBNVLink,
	"NVLink_SingleNode": NVLinkSingleNode,
}

func ParseCommunicationType(s string) (CommunicationType, error) {
	if c, ok := communicationNames[s]; ok {
		return c, nil
	}
	return 0, errtypes.Invalid("communication_type", "no such communication type: %s", s)
}

func (c CommunicationType) String() string {
	switch c {
	case IBNVLinkHier:
		return "IB_NVLink_Hier"
	case IBNVLink:
		return "IB_NVLink"
	case NVLinkSingleNode:
		return "NVLink_SingleNode"
	default:
		return "unknown"
	}
}

func (c CommunicationType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// HybridType is the stratification mode of a hybrid table.
type HybridType int

const (
	Distributed HybridType = iota
	Hierarchical
)

func ParseHybridType(s string) (HybridType, error) {
	switch s {
	case "Distributed":
		return Distributed, nil
	case "Hierarchical":
		return Hierarchical, nil
	}
	return 0, errtypes.Invalid("hybrid_embedding_type", "no such hybrid embedding type: %s", s)
}

func (h HybridType) String() string {
	if h == Hierarchical {
		return "Hierarchical"
	}
	return "Distributed"
}

func (h HybridType) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}
