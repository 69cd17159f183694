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

package main

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/kp-forks/gemma-go/compression"
	"github.com/kp-forks/gemma-go/gemma"
	"github.com/kp-forks/gemma-go/hwy"
	"github.com/kp-forks/gemma-go/ops"
	"github.com/spf13/cobra"
)

func newCondCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cond TENSOR [TENSOR2]",
		Short: "Report the condition number of a tensor, or of a dot product of two tensors",
		Long: `Reads one or two raw little-endian tensor files in the type given by
--tensor-type and reports the cascaded-sum condition number, the mantissa
bit count it implies, and whether the compensated kernel is recommended.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			t, err := gemma.ParseType(activeCfg.Tensor.Type)
			if err != nil {
				return err
			}

			var cond float64
			switch len(args) {
			case 1:
				cond, err = fileConditionNumber(args[0], t)
			case 2:
				cond, err = dotConditionNumber(args[0], args[1], t)
			}
			if err != nil {
				return err
			}

			bits := ops.MantissaBitsNeeded(cond)
			slog.Debug("condition number computed",
				"cond", cond, "bits", bits, "type", t.String())

			fmt.Printf("type: %s\n", t)
			fmt.Printf("condition number: %g\n", cond)
			if math.IsInf(cond, 1) {
				fmt.Println("mantissa bits needed: unbounded (total cancellation)")
				fmt.Println("kernel: compensated")
				return nil
			}
			fmt.Printf("mantissa bits needed: %d\n", bits)
			if bits > activeCfg.Tensor.Threshold {
				fmt.Println("kernel: compensated")
			} else {
				fmt.Println("kernel: promote-to-double")
			}
			return nil
		},
	}
	return cmd
}

func fileConditionNumber(path string, t gemma.Type) (float64, error) {
	switch t {
	case gemma.TypeF32:
		v, err := readTensorF32(path)
		if err != nil {
			return 0, err
		}
		return ops.VectorConditionNumber(v), nil
	case gemma.TypeBF16:
		v, err := readTensorBF16(path)
		if err != nil {
			return 0, err
		}
		return ops.VectorConditionNumber(v), nil
	case gemma.TypeSFP:
		v, err := readTensorSFP(path)
		if err != nil {
			return 0, err
		}
		return ops.VectorConditionNumber(v), nil
	default:
		return 0, fmt.Errorf("unsupported tensor type %s", t)
	}
}

// dotConditionNumber analyzes w.*v. The second operand is always read as
// f32: activations are not stored compressed.
func dotConditionNumber(wPath, vPath string, t gemma.Type) (float64, error) {
	v, err := readTensorF32(vPath)
	if err != nil {
		return 0, err
	}

	switch t {
	case gemma.TypeF32:
		w, err := readTensorF32(wPath)
		if err != nil {
			return 0, err
		}
		if err := checkSameLength(len(w), len(v)); err != nil {
			return 0, err
		}
		return ops.ConditionNumber(w, v), nil
	case gemma.TypeBF16:
		w, err := readTensorBF16(wPath)
		if err != nil {
			return 0, err
		}
		if err := checkSameLength(len(w), len(v)); err != nil {
			return 0, err
		}
		return ops.ConditionNumber(w, v), nil
	case gemma.TypeSFP:
		w, err := readTensorSFP(wPath)
		if err != nil {
			return 0, err
		}
		if err := checkSameLength(len(w), len(v)); err != nil {
			return 0, err
		}
		return ops.ConditionNumber(w, v), nil
	default:
		return 0, fmt.Errorf("unsupported tensor type %s", t)
	}
}

func checkSameLength(w, v int) error {
	if w != v {
		return fmt.Errorf("tensor lengths differ: %d vs %d", w, v)
	}
	return nil
}

func readTensorF32(path string) ([]float32, error) {
	raw, err := readTensorBytes(path, 4)
	if err != nil {
		return nil, err
	}
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return out, nil
}

func readTensorBF16(path string) ([]hwy.BFloat16, error) {
	raw, err := readTensorBytes(path, 2)
	if err != nil {
		return nil, err
	}
	out := make([]hwy.BFloat16, len(raw)/2)
	for i := range out {
		out[i] = hwy.BFloat16(binary.LittleEndian.Uint16(raw[2*i:]))
	}
	return out, nil
}

func readTensorSFP(path string) ([]compression.SFP8, error) {
	raw, err := readTensorBytes(path, 1)
	if err != nil {
		return nil, err
	}
	out := make([]compression.SFP8, len(raw))
	for i := range out {
		out[i] = compression.SFP8(raw[i])
	}
	return out, nil
}

func readTensorBytes(path string, elemSize int) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tensor: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("read tensor: %s is empty", path)
	}
	if len(raw)%elemSize != 0 {
		return nil, fmt.Errorf("read tensor: %s has %d bytes, not a multiple of element size %d",
			path, len(raw), elemSize)
	}
	return raw, nil
}
