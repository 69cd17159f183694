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

package ops

import (
	"math"
	"math/rand"
	"testing"

	"github.com/kp-forks/gemma-go/hwy"
)

func TestConditionNumberWellConditioned(t *testing.T) {
	w := []float32{1, 2, 3, 4, 5}
	v := []float32{1, 1, 1, 1, 1}

	// All products positive: |sum| == sum of magnitudes, so cond is
	// exactly 2.
	got := ConditionNumber(w, v)
	if got != 2 {
		t.Errorf("ConditionNumber: got %v, want 2", got)
	}
}

func TestConditionNumberCancellation(t *testing.T) {
	w := []float32{1e8, 1, -1e8, 1}
	v := []float32{1, 1, 1, 1}

	// Magnitudes sum to ~2e8, the signed sum to 2: cond ~= 2e8.
	got := ConditionNumber(w, v)
	if got < 1e8 || got > 4e8 {
		t.Errorf("ConditionNumber: got %v, want ~2e8", got)
	}
}

func TestConditionNumberTotalCancellation(t *testing.T) {
	w := []float32{1, -1, 2, -2}
	v := []float32{1, 1, 1, 1}

	got := ConditionNumber(w, v)
	if !math.IsInf(got, 1) {
		t.Errorf("ConditionNumber under total cancellation: got %v, want +Inf", got)
	}
}

func TestConditionNumberAllZero(t *testing.T) {
	w := make([]float32, 7)
	v := make([]float32, 7)

	if got := ConditionNumber(w, v); got != 0 {
		t.Errorf("ConditionNumber of zeros: got %v, want 0", got)
	}
	if got := VectorConditionNumber(make([]float32, 7)); got != 0 {
		t.Errorf("VectorConditionNumber of zeros: got %v, want 0", got)
	}
}

func TestConditionNumberNonNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for _, num := range []int{1, 5, 31, 64, 200} {
		w := make([]float32, num)
		v := make([]float32, num)
		for i := range w {
			w[i] = float32(rng.NormFloat64())
			v[i] = float32(rng.NormFloat64())
		}
		got := ConditionNumber(w, v)
		if got < 1.999 && got != 0 {
			// 2*sum|x| >= 2*|sum x| always.
			t.Errorf("num=%d: got %v, below lower bound 2", num, got)
		}
	}
}

func TestVectorConditionNumber(t *testing.T) {
	v := []float32{3, -1, 2, -2, 0.5}
	// sum = 2.5, sum of magnitudes = 8.5.
	want := 2 * 8.5 / 2.5
	got := VectorConditionNumber(v)
	if math.Abs(got-want) > 1e-6*want {
		t.Errorf("VectorConditionNumber: got %v, want %v", got, want)
	}
}

func TestVectorConditionNumberBF16(t *testing.T) {
	vals := []float32{1, -0.5, 2, 0.25, -1}
	v := make([]hwy.BFloat16, len(vals))
	var sum, abs float64
	for i, f := range vals {
		v[i] = hwy.Float32ToBFloat16(f)
		sum += float64(f)
		abs += math.Abs(float64(f))
	}
	want := 2 * abs / math.Abs(sum)
	got := VectorConditionNumber(v)
	if math.Abs(got-want) > 1e-6*want {
		t.Errorf("VectorConditionNumber (bf16): got %v, want %v", got, want)
	}
}

func TestMantissaBitsNeeded(t *testing.T) {
	tests := []struct {
		name     string
		cond     float64
		expected int
	}{
		{"Zero", 0, 0},
		{"One", 1, 0},
		{"Two", 2, 1},
		{"Eight", 8, 3},
		{"NonPow2", 10, 4},
		{"Large", 2e8, 28},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MantissaBitsNeeded(tt.cond); got != tt.expected {
				t.Errorf("MantissaBitsNeeded(%v): got %d, want %d", tt.cond, got, tt.expected)
			}
		})
	}

	if got := MantissaBitsNeeded(math.Inf(1)); got != math.MaxInt {
		t.Errorf("MantissaBitsNeeded(+Inf): got %d, want MaxInt", got)
	}
}
