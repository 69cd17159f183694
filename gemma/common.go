// Copyright 2025 gemma-go Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package gemma holds model-level configuration shared by the numeric
// kernels: the element types weights are stored in, and the scaling
// constants attention applies to embeddings and queries.
package gemma

import (
	"fmt"
	"math"
	"strings"

	"github.com/kp-forks/gemma-go/hwy"
)

// Type identifies the element type a tensor is stored as on disk.
type Type int

const (
	TypeF32 Type = iota
	TypeBF16
	TypeSFP
)

func (t Type) String() string {
	switch t {
	case TypeF32:
		return "f32"
	case TypeBF16:
		return "bf16"
	case TypeSFP:
		return "sfp"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// ElementSize returns the storage size of one element in bytes.
func (t Type) ElementSize() int {
	switch t {
	case TypeF32:
		return 4
	case TypeBF16:
		return 2
	case TypeSFP:
		return 1
	default:
		panic(fmt.Sprintf("gemma: unknown type %d", int(t)))
	}
}

// ParseType maps a user-facing type name to its Type.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(s) {
	case "f32", "float32":
		return TypeF32, nil
	case "bf16", "bfloat16":
		return TypeBF16, nil
	case "sfp", "sfp8":
		return TypeSFP, nil
	default:
		return 0, fmt.Errorf("gemma: unknown tensor type %q", s)
	}
}

// Config is the subset of model hyperparameters the kernels care about.
type Config struct {
	ModelDim int
	Heads    int
	QKVDim   int
}

// EmbeddingScaling is sqrt(modelDim), rounded through bfloat16 so that the
// multiplier matches the precision of bf16-stored embedding tables.
func EmbeddingScaling(modelDim int) float32 {
	scale := float32(math.Sqrt(float64(modelDim)))
	return hwy.BFloat16ToFloat32(hwy.Float32ToBFloat16(scale))
}

// ChooseQueryScale returns the attention query multiplier. Models whose
// query heads cover the full model dimension scale by 1/sqrt(modelDim/heads)
// instead of the usual 1/sqrt(qkvDim).
func ChooseQueryScale(c Config) float32 {
	if c.Heads*c.QKVDim == c.ModelDim {
		return float32(1 / math.Sqrt(float64(c.ModelDim)/float64(c.Heads)))
	}
	return float32(1 / math.Sqrt(float64(c.QKVDim)))
}
