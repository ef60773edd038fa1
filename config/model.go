// model.go - Modell-Beschreibung laden
// Hauptfunktionen: Load, LoadFile, ParseModel
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ollama/embedforge/types/errtypes"
)

// Solver holds the model-wide settings the embedding stage needs.
type Solver struct {
	BatchSize     uint64 `json:"batchsize"`
	BatchSizeEval uint64 `json:"batchsize_eval"`

	LearningRate float32 `json:"lr"`
	WarmupSteps  uint64  `json:"warmup_steps"`
	DecayStart   uint64  `json:"decay_start"`
	DecaySteps   uint64  `json:"decay_steps"`
	DecayPower   float32 `json:"decay_power"`
	EndLR        float32 `json:"end_lr"`

	GroupedAllReduce        bool   `json:"grouped_all_reduce"`
	UseCUDAGraph            bool   `json:"use_cuda_graph"`
	NumIterationsStatistics uint64 `json:"num_iterations_statistics"`

	KeyType   string `json:"key_type"`
	ValueType string `json:"value_type"`
}

// Input declares one sparse input source.
type Input struct {
	Name                   string `json:"top"`
	SlotNum                uint64 `json:"slot_num"`
	MaxFeatureNumPerSample uint64 `json:"max_feature_num_per_sample"`
}

// Model is a parsed model description.
type Model struct {
	Solver Solver

	// Optimizer is the model-wide optimizer block, nil when absent
	Optimizer Block

	Inputs     []Input
	Embeddings []Block
}

// Load decodes a model description from r.
func Load(r io.Reader) (*Model, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var b Block
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("decode model config: %w", err)
	}
	return ParseModel(b)
}

// LoadFile reads a model description from path.
func LoadFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(bytes.NewReader(data))
}

// ParseModel converts a decoded block into a Model.
func ParseModel(b Block) (*Model, error) {
	var m Model
	var err error

	solver, err := b.Block("solver")
	if err != nil {
		return nil, err
	}
	if m.Solver, err = parseSolver(solver); err != nil {
		return nil, err
	}

	if b.Has("optimizer") {
		if m.Optimizer, err = b.Block("optimizer"); err != nil {
			return nil, err
		}
	}

	inputs, err := b.Blocks("sparse_inputs")
	if err != nil {
		return nil, err
	}
	for _, in := range inputs {
		input, err := parseInput(in)
		if err != nil {
			return nil, err
		}
		m.Inputs = append(m.Inputs, input)
	}

	if m.Embeddings, err = b.Blocks("embeddings"); err != nil {
		return nil, err
	}

	return &m, nil
}

func parseSolver(b Block) (Solver, error) {
	var s Solver
	var err error

	if s.BatchSize, err = b.Uint("batchsize"); err != nil {
		return s, err
	}
	if s.BatchSizeEval, err = b.UintOr("batchsize_eval", s.BatchSize); err != nil {
		return s, err
	}
	if s.LearningRate, err = b.Float32Or("lr", 0.001); err != nil {
		return s, err
	}
	if s.WarmupSteps, err = b.UintOr("warmup_steps", 1); err != nil {
		return s, err
	}
	if s.DecayStart, err = b.UintOr("decay_start", 0); err != nil {
		return s, err
	}
	if s.DecaySteps, err = b.UintOr("decay_steps", 1); err != nil {
		return s, err
	}
	if s.DecayPower, err = b.Float32Or("decay_power", 2); err != nil {
		return s, err
	}
	if s.EndLR, err = b.Float32Or("end_lr", 0); err != nil {
		return s, err
	}
	if s.GroupedAllReduce, err = b.BoolOr("grouped_all_reduce", false); err != nil {
		return s, err
	}
	if s.UseCUDAGraph, err = b.BoolOr("use_cuda_graph", false); err != nil {
		return s, err
	}
	if s.NumIterationsStatistics, err = b.UintOr("num_iterations_statistics", 20); err != nil {
		return s, err
	}
	if s.KeyType, err = b.StringOr("key_type", "int64"); err != nil {
		return s, err
	}
	if s.ValueType, err = b.StringOr("value_type", "f32"); err != nil {
		return s, err
	}

	return s, nil
}

func parseInput(b Block) (Input, error) {
	var in Input
	var err error

	if in.Name, err = b.String("top"); err != nil {
		return in, err
	}
	if in.SlotNum, err = b.Uint("slot_num"); err != nil {
		return in, err
	}
	if in.SlotNum == 0 {
		return in, errtypes.Invalid("slot_num", "input %q has no slots", in.Name)
	}
	if in.MaxFeatureNumPerSample, err = b.UintOr("max_feature_num_per_sample", in.SlotNum); err != nil {
		return in, err
	}
	if in.MaxFeatureNumPerSample < in.SlotNum {
		return in, errtypes.Invalid("max_feature_num_per_sample", "input %q: %d is less than slot_num %d", in.Name, in.MaxFeatureNumPerSample, in.SlotNum)
	}

	return in, nil
}
