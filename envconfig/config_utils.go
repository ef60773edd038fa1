// config_utils.go - Utility-Funktionen und Export fuer Konfiguration
//
// Dieses Modul enthaelt:
// - BoolWithDefault/Bool: Boolean-Getter mit Default-Wert
// - String: String-Getter
// - Uint/Uint64: Integer-Getter mit Default-Wert
// - EnvVar: Struktur fuer Environment-Variablen-Info
// - AsMap: Gibt alle Konfigurationen als Map zurueck
// - Values: Gibt alle Konfigurationswerte als String-Map zurueck
package envconfig

import (
	"fmt"
	"log/slog"
	"strconv"
)

// =============================================================================
// Boolean-Getter
// =============================================================================

// BoolWithDefault gibt eine Funktion zurueck, die einen Bool mit Default-Wert liest
func BoolWithDefault(k string) func(defaultValue bool) bool {
	return func(defaultValue bool) bool {
		if s := Var(k); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return true
			}
			return b
		}
		return defaultValue
	}
}

// Bool gibt eine Funktion zurueck, die einen Bool liest (Default: false)
func Bool(k string) func() bool {
	withDefault := BoolWithDefault(k)
	return func() bool {
		return withDefault(false)
	}
}

// =============================================================================
// String-Getter
// =============================================================================

// String gibt eine Funktion zurueck, die einen String liest
func String(s string) func() string {
	return func() string {
		return Var(s)
	}
}

// =============================================================================
// Integer-Getter
// =============================================================================

// Uint gibt eine Funktion zurueck, die einen uint mit Default-Wert liest
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

// Uint64 gibt eine Funktion zurueck, die einen uint64 mit Default-Wert liest
func Uint64(key string, defaultValue uint64) func() uint64 {
	return func() uint64 {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return n
			}
		}
		return defaultValue
	}
}

// =============================================================================
// Export-Strukturen und -Funktionen
// =============================================================================

// EnvVar repraesentiert eine Environment-Variable mit Metadaten
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap gibt alle Konfigurationen als Map zurueck
// Enthaelt Namen, aktuelle Werte und Beschreibungen
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"EMBEDFORGE_DEBUG":                 {"EMBEDFORGE_DEBUG", LogLevel(), "Show additional debug information (e.g. EMBEDFORGE_DEBUG=1)"},
		"EMBEDFORGE_HOST":                  {"EMBEDFORGE_HOST", Host(), "Address of the plan inspection server (default 127.0.0.1:11500)"},
		"EMBEDFORGE_ORIGINS":               {"EMBEDFORGE_ORIGINS", AllowedOrigins(), "A comma separated list of allowed origins for the inspection server"},
		"EMBEDFORGE_NUM_DEVICES":           {"EMBEDFORGE_NUM_DEVICES", NumDevices(), "Number of local devices when no ids are given (default: 1)"},
		"EMBEDFORGE_VISIBLE_DEVICES":       {"EMBEDFORGE_VISIBLE_DEVICES", VisibleDevices(), "Comma separated list of local device ids"},
		"EMBEDFORGE_ALLOC_MEMORY":          {"EMBEDFORGE_ALLOC_MEMORY", AllocMemory(), "Allocate table storage instead of only sizing it"},
		"EMBEDFORGE_HOST_MEMORY_LIMIT":     {"EMBEDFORGE_HOST_MEMORY_LIMIT", HostMemoryLimit(), "Upper bound for allocated host memory in bytes (0 = unlimited)"},
		"EMBEDFORGE_GROUPED_ALL_REDUCE":    {"EMBEDFORGE_GROUPED_ALL_REDUCE", GroupedAllReduce(false), "Merge embedding gradients across tables before reduction"},
		"EMBEDFORGE_CUDA_GRAPH":            {"EMBEDFORGE_CUDA_GRAPH", UseCUDAGraph(false), "Capture hybrid embedding steps in CUDA graphs"},
		"EMBEDFORGE_ITERATIONS_STATISTICS": {"EMBEDFORGE_ITERATIONS_STATISTICS", IterationsStatistics(), "Iterations used to collect hybrid frequency statistics (default: 20)"},
		"EMBEDFORGE_KEY_TYPE":              {"EMBEDFORGE_KEY_TYPE", KeyType(), "Override the sparse key type (int64, uint32)"},
		"EMBEDFORGE_VALUE_TYPE":            {"EMBEDFORGE_VALUE_TYPE", ValueType(), "Override the embedding value type (f32, f16)"},
	}
}

// Values gibt alle Konfigurationswerte als String-Map zurueck
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
