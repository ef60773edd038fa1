// config_features.go - Build-Flags und Typauswahl
//
// Dieses Modul enthaelt:
// - Geraete-Anzahl und Speicher-Allokation
// - Flags fuer Gradienten-Austausch und CUDA-Graphen
// - Key/Value-Typen fuer den generischen Build-Pfad
package envconfig

// =============================================================================
// Geraete-Einstellungen
// =============================================================================

var (
	// NumDevices setzt die Anzahl lokaler Geraete wenn keine IDs gesetzt sind
	NumDevices = Uint("EMBEDFORGE_NUM_DEVICES", 1)

	// AllocMemory allokiert Tabellen-Speicher statt ihn nur zu vermessen
	AllocMemory = Bool("EMBEDFORGE_ALLOC_MEMORY")

	// HostMemoryLimit begrenzt den allokierten Host-Speicher (in Bytes, 0 = unbegrenzt)
	HostMemoryLimit = Uint64("EMBEDFORGE_HOST_MEMORY_LIMIT", 0)
)

// =============================================================================
// Build-Flags
// =============================================================================

var (
	// GroupedAllReduce waehlt den gruppierten Gradienten-Puffer
	// Ueberschreibt solver.grouped_all_reduce wenn gesetzt
	GroupedAllReduce = BoolWithDefault("EMBEDFORGE_GROUPED_ALL_REDUCE")

	// UseCUDAGraph aktiviert CUDA-Graphen fuer Hybrid-Embeddings
	UseCUDAGraph = BoolWithDefault("EMBEDFORGE_CUDA_GRAPH")

	// IterationsStatistics setzt die Iterationen fuer Hybrid-Statistiken
	IterationsStatistics = Uint("EMBEDFORGE_ITERATIONS_STATISTICS", 20)
)

// =============================================================================
// Typauswahl
// =============================================================================

var (
	// KeyType ueberschreibt solver.key_type (int64 oder uint32)
	KeyType = String("EMBEDFORGE_KEY_TYPE")

	// ValueType ueberschreibt solver.value_type (f32 oder f16)
	ValueType = String("EMBEDFORGE_VALUE_TYPE")
)
